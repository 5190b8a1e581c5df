// This file is part of intcode - https://github.com/db47h/intcode
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package network_test

import (
	"context"
	"testing"
	"time"

	"github.com/db47h/intcode/network"
	"github.com/db47h/intcode/vm"
	"github.com/pkg/errors"
)

// Node 0 sends (1, 10, 20), then forwards every packet it receives to the NAT.
// Node 1 doubles Y of every packet it receives and sends it to the NAT. Other
// nodes halt.
var relay = vm.Program{
	3, 100, // in [100]
	1005, 100, 20, // jnz [100] #20
	104, 1, 104, 10, 104, 20, // send (1, 10, 20)
	3, 101, 3, 102, // 11: in [101] in [102]
	1105, 1, 30, // jmp 30
	99, 0,
	1008, 100, 1, 103, // 20: eq [100] #1 [103]
	1006, 103, 42, // jz [103] #42
	1105, 1, 50, // jmp 50
	104, 255, 4, 101, 4, 102, // 30: send (255, [101], [102])
	1105, 1, 11, // jmp 11
	99, 99, 99,
	99, // 42
	0, 0, 0, 0, 0, 0, 0,
	3, 101, 3, 102, // 50: in [101] in [102]
	1002, 102, 2, 102, // mul [102] #2 [102]
	104, 255, 4, 101, 4, 102, // send (255, [101], [102])
	1105, 1, 50, // jmp 50
}

func run(t *testing.T, p vm.Program, cfg network.Config) (*network.Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return network.Run(ctx, p, cfg)
}

func TestRun(t *testing.T) {
	res, err := run(t, relay, network.DefaultConfig())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if res.FirstNATY != 40 || res.Answer != 40 {
		t.Errorf("expected first Y 40 and answer 40, got %d and %d", res.FirstNATY, res.Answer)
	}
	if len(res.Deliveries) != 2 {
		t.Fatalf("expected 2 NAT deliveries, got %v", res.Deliveries)
	}
	for _, d := range res.Deliveries {
		if d.IdleRounds != 3 || d.X != 10 || d.Y != 40 {
			t.Errorf("unexpected delivery %+v", d)
		}
	}
	if res.Deliveries[1].Round <= res.Deliveries[0].Round+3 {
		t.Errorf("deliveries too close: %+v", res.Deliveries)
	}
	// (1, 10, 20), then (255, 10, 40) from node 1 and from node 0
	if res.Packets != 3 {
		t.Errorf("expected 3 packets, got %d", res.Packets)
	}
}

func TestRun_threshold(t *testing.T) {
	cfg := network.DefaultConfig()
	cfg.Size = 2
	cfg.IdleThreshold = 5
	res, err := run(t, relay, cfg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for _, d := range res.Deliveries {
		if d.IdleRounds != 5 {
			t.Errorf("unexpected delivery %+v", d)
		}
	}
}

func TestRun_errors(t *testing.T) {
	unknown := vm.Program{3, 100, 1005, 100, 11, 104, 77, 104, 1, 104, 2, 99}
	if _, err := run(t, unknown, network.DefaultConfig()); err == nil {
		t.Error("expected error on unknown address")
	}
	if _, err := run(t, vm.Program{3, 100, 99}, network.DefaultConfig()); errors.Cause(err) != network.ErrStalled {
		t.Errorf("expected ErrStalled, got %v", err)
	}
	if _, err := run(t, vm.Program{3, 100, 98}, network.DefaultConfig()); errors.Cause(err) != vm.ErrUnknownOpcode {
		t.Errorf("expected ErrUnknownOpcode, got %v", err)
	}
	cfg := network.DefaultConfig()
	cfg.MaxRounds = 1
	// busy loop: jnz #1 #2
	if _, err := run(t, vm.Program{3, 100, 1105, 1, 2}, cfg); errors.Cause(err) != network.ErrRoundLimit {
		t.Errorf("expected ErrRoundLimit, got %v", err)
	}
	cfg = network.DefaultConfig()
	cfg.NATAddress = 7
	if _, err := run(t, relay, cfg); err == nil {
		t.Error("expected error on NAT address conflict")
	}
}

func TestNAT(t *testing.T) {
	n := network.NewNAT(3)
	for i := 0; i < 5; i++ {
		if _, ok := n.Tick(false); ok {
			t.Fatal("NAT fired with no packet")
		}
	}
	n.Capture(1, 2)
	n.Capture(3, 4)
	if y, ok := n.First(); !ok || y != 2 {
		t.Fatalf("bad first Y: %d, %v", y, ok)
	}
	n.Tick(true)
	if n.Idle() != 0 {
		t.Fatal("activity did not reset idle count")
	}
	for i := 1; i <= 3; i++ {
		p, ok := n.Tick(false)
		if ok != (i == 3) {
			t.Fatalf("round %d: unexpected fire status %v", i, ok)
		}
		if ok && (p != network.Packet{Dest: 0, X: 3, Y: 4}) {
			t.Fatalf("bad packet %+v", p)
		}
	}
	if n.Idle() != 0 {
		t.Fatal("idle count not reset after firing")
	}
	if n.Delivered(4) {
		t.Fatal("first delivery reported as repeat")
	}
	if n.Delivered(5) {
		t.Fatal("different Y reported as repeat")
	}
	if !n.Delivered(5) {
		t.Fatal("repeated Y not detected")
	}
}

func TestNAT_zero(t *testing.T) {
	// a first delivery of 0 is not a repeat
	n := network.NewNAT(1)
	if n.Delivered(0) || !n.Delivered(0) {
		t.Fatal("bad repeat detection for 0")
	}
}
