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

package channel_test

import (
	"context"
	"io"
	"runtime"
	"testing"
	"time"

	"github.com/db47h/intcode/channel"
	"github.com/db47h/intcode/vm"
)

func TestChannel_order(t *testing.T) {
	const n = 10000
	c := channel.New()
	ctx := context.Background()
	go func() {
		for i := 0; i < n; i++ {
			if err := c.Send(ctx, vm.Cell(i)); err != nil {
				panic(err)
			}
		}
		c.Close()
	}()
	vals, err := c.Drain(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != n {
		t.Fatalf("Expected %d values, got %d", n, len(vals))
	}
	for i, v := range vals {
		if v != vm.Cell(i) {
			t.Fatalf("Out of order value at %d: %d", i, v)
		}
	}
}

func TestChannel_close(t *testing.T) {
	ctx := context.Background()
	c := channel.Pipe(1, 2)
	c.Close()
	if err := c.Send(ctx, 3); err != channel.ErrClosed {
		t.Errorf("Send after close: %v", err)
	}
	for _, exp := range []vm.Cell{1, 2} {
		if v, err := c.Recv(ctx); err != nil || v != exp {
			t.Errorf("Recv: expected %d, got %d, %v", exp, v, err)
		}
	}
	if _, err := c.Recv(ctx); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
	if _, ok, err := c.TryRecv(); ok || err != io.EOF {
		t.Errorf("TryRecv: expected io.EOF, got %v, %v", ok, err)
	}
	c.Close()
	if !c.Closed() {
		t.Error("Channel not closed")
	}
}

func TestChannel_detach(t *testing.T) {
	ctx := context.Background()
	c := channel.New()
	if err := c.Send(ctx, 1); err != nil {
		t.Fatal(err)
	}
	c.Detach()
	if c.Len() != 0 {
		t.Errorf("Queue not emptied by Detach: %d", c.Len())
	}
	if err := c.Send(ctx, 2); err != io.ErrClosedPipe {
		t.Errorf("Expected io.ErrClosedPipe, got %v", err)
	}
}

func TestChannel_tryRecv(t *testing.T) {
	c := channel.New()
	if _, ok, err := c.TryRecv(); ok || err != nil {
		t.Fatalf("TryRecv on empty channel: %v, %v", ok, err)
	}
	c.Send(context.Background(), 42)
	if v, ok, err := c.TryRecv(); !ok || err != nil || v != 42 {
		t.Fatalf("TryRecv: %d, %v, %v", v, ok, err)
	}
	if c.Len() != 0 {
		t.Fatalf("Bad Len(): %d", c.Len())
	}
}

func TestChannel_parked(t *testing.T) {
	c := channel.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := make(chan vm.Cell)
	go func() {
		v, _ := c.Recv(ctx)
		res <- v
	}()
	deadline := time.Now().Add(5 * time.Second)
	for !c.Parked() {
		if time.Now().After(deadline) {
			t.Fatal("Receiver never parked")
		}
		runtime.Gosched()
	}
	c.Send(ctx, 7)
	if c.Parked() {
		t.Error("Receiver still reported parked with a value queued")
	}
	if v := <-res; v != 7 {
		t.Errorf("Expected 7, got %d", v)
	}
	if c.Parked() {
		t.Error("Receiver parked after receiving")
	}
}

func TestChannel_cancel(t *testing.T) {
	c := channel.New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Recv(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if c.Parked() {
		t.Fatal("Receiver parked after cancellation")
	}
	if err := c.Send(ctx, 1); err != context.DeadlineExceeded {
		t.Fatalf("Expected deadline exceeded on send, got %v", err)
	}
}

// Wiring two VMs through a channel.
func TestChannel_vm(t *testing.T) {
	ctx := context.Background()
	c := channel.New()
	quine := vm.Program{109, 1, 204, -1, 1001, 100, 1, 100, 1008, 100, 16, 101, 1006, 101, 0, 99}
	src, _ := vm.New(quine, vm.Output(c))
	// echo: in 0 out 0 jnz #1 #0
	echo, _ := vm.New(vm.Program{3, 100, 4, 100, 1105, 1, 0}, vm.Input(c), vm.Output(new(vm.Buffer)))
	errs := make(chan error, 1)
	go func() {
		err := src.Run(ctx)
		c.Close()
		errs <- err
	}()
	err := echo.Run(ctx)
	if e, ok := err.(*vm.Error); !ok || e.Err != io.EOF || e.PC != 0 {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err = <-errs; err != nil {
		t.Fatal(err)
	}
}
