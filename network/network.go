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

// Package network runs a set of addressable Intcode nodes exchanging packets.
//
// Each node is given its address as first input, then sends packets as three
// consecutive output values: destination address, X and Y. A router polls the
// outputs of all nodes in round robin and forwards X and Y to the input of the
// destination node. Packets sent to the NAT address are captured by the NAT,
// which wakes the network up by resending the last of them to node 0 once all
// nodes are idle.
//
// Idle detection does not depend on timing: a round is idle when nothing was
// read from any node and every node is either halted or blocked waiting for
// input with an empty input queue.
package network

import (
	"context"
	"io"
	"log"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/db47h/intcode/channel"
	"github.com/db47h/intcode/vm"
)

// ErrStalled is returned when the network is idle and the NAT has nothing to
// send.
var ErrStalled = errors.New("network stalled")

// ErrRoundLimit is returned when Config.MaxRounds is exceeded.
var ErrRoundLimit = errors.New("round limit reached")

// Config configures a network.
type Config struct {
	Size          int         // number of nodes
	NATAddress    vm.Cell     // address of the NAT
	IdleThreshold int         // idle rounds before the NAT sends a packet
	MaxRounds     int         // poll rounds limit, 0 for no limit
	Logger        *log.Logger // optional
}

// DefaultConfig returns a configuration for 50 nodes with the NAT at address
// 255, firing after 3 idle rounds.
func DefaultConfig() Config {
	return Config{
		Size:          50,
		NATAddress:    255,
		IdleThreshold: 3,
	}
}

// Delivery records a packet sent by the NAT to node 0.
type Delivery struct {
	Round      int // poll round
	IdleRounds int // idle rounds that triggered it
	X, Y       vm.Cell
}

// Result is the outcome of a network run.
type Result struct {
	FirstNATY  vm.Cell // Y of the first packet sent to the NAT
	Answer     vm.Cell // first Y delivered twice in a row by the NAT
	Rounds     int     // poll rounds
	Packets    int     // packets routed, including those to the NAT
	Dropped    int     // packets sent to halted nodes
	Deliveries []Delivery
}

type router struct {
	cfg  Config
	ins  []*channel.Channel
	outs []*channel.Channel
	bufs [][]vm.Cell
	nat  *NAT
	res  Result
}

func (r *router) logf(format string, args ...interface{}) {
	if r.cfg.Logger != nil {
		r.cfg.Logger.Printf(format, args...)
	}
}

func (r *router) send(ctx context.Context, to int, x, y vm.Cell) error {
	in := r.ins[to]
	err := in.Send(ctx, x)
	if err == nil {
		err = in.Send(ctx, y)
	}
	if err == io.ErrClosedPipe {
		r.res.Dropped++
		r.logf("network: node %d halted, dropped packet (%d, %d)", to, x, y)
		return nil
	}
	return err
}

func (r *router) dispatch(ctx context.Context, from int, p Packet) error {
	r.res.Packets++
	switch {
	case p.Dest == r.cfg.NATAddress:
		r.nat.Capture(p.X, p.Y)
		return nil
	case p.Dest < 0 || p.Dest >= vm.Cell(len(r.ins)):
		return errors.Errorf("node %d: packet to unknown address %d", from, p.Dest)
	}
	return r.send(ctx, int(p.Dest), p.X, p.Y)
}

// poll reads all values available from every node and dispatches complete
// packets. It returns true if anything was read.
func (r *router) poll(ctx context.Context) (bool, error) {
	read := false
	for k, out := range r.outs {
		for {
			v, ok, _ := out.TryRecv()
			if !ok {
				break
			}
			read = true
			b := append(r.bufs[k], v)
			if len(b) < 3 {
				r.bufs[k] = b
				continue
			}
			r.bufs[k] = b[:0]
			if err := r.dispatch(ctx, k, Packet{Dest: b[0], X: b[1], Y: b[2]}); err != nil {
				return read, err
			}
		}
	}
	return read, nil
}

// quiescent returns true if every node is halted or waiting for input and no
// output is pending.
func (r *router) quiescent() bool {
	for k := range r.outs {
		if !r.outs[k].Closed() && !r.ins[k].Parked() {
			return false
		}
	}
	// a node may have sent output after it was polled, then parked.
	for _, out := range r.outs {
		if out.Len() != 0 {
			return false
		}
	}
	return true
}

func (r *router) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.cfg.MaxRounds > 0 && r.res.Rounds >= r.cfg.MaxRounds {
			return ErrRoundLimit
		}
		r.res.Rounds++
		read, err := r.poll(ctx)
		if err != nil {
			return err
		}
		if read {
			r.nat.Tick(true)
			continue
		}
		if !r.quiescent() {
			runtime.Gosched()
			continue
		}
		idle := r.nat.Idle() + 1
		p, ok := r.nat.Tick(false)
		if !ok {
			if !r.nat.Captured() && r.nat.Idle() >= r.nat.Threshold {
				return ErrStalled
			}
			continue
		}
		r.res.Deliveries = append(r.res.Deliveries, Delivery{Round: r.res.Rounds, IdleRounds: idle, X: p.X, Y: p.Y})
		r.logf("network: round %d, NAT sends (%d, %d) to node 0 after %d idle rounds", r.res.Rounds, p.X, p.Y, idle)
		if err = r.send(ctx, 0, p.X, p.Y); err != nil {
			return err
		}
		if r.nat.Delivered(p.Y) {
			r.res.Answer = p.Y
			return nil
		}
	}
}

// Run starts cfg.Size copies of p, node k receiving k as its first input, and
// routes packets until the NAT delivers the same Y value to node 0 twice in a
// row. All nodes are then stopped.
func Run(ctx context.Context, p vm.Program, cfg Config) (*Result, error) {
	if cfg.Size <= 0 {
		return nil, errors.Errorf("invalid network size %d", cfg.Size)
	}
	if cfg.NATAddress >= 0 && cfg.NATAddress < vm.Cell(cfg.Size) {
		return nil, errors.Errorf("NAT address %d conflicts with node addresses", cfg.NATAddress)
	}
	r := &router{
		cfg:  cfg,
		ins:  make([]*channel.Channel, cfg.Size),
		outs: make([]*channel.Channel, cfg.Size),
		bufs: make([][]vm.Cell, cfg.Size),
		nat:  NewNAT(cfg.IdleThreshold),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	for k := range r.ins {
		in, out := channel.Pipe(vm.Cell(k)), channel.New()
		r.ins[k], r.outs[k] = in, out
		i, err := vm.New(p, vm.Input(in), vm.Output(out))
		if err != nil {
			return nil, err
		}
		k := k
		g.Go(func() error {
			defer out.Close()
			defer in.Detach()
			return errors.Wrapf(i.Run(gctx), "node %d", k)
		})
	}

	rerr := r.run(gctx)
	cancel()
	err := g.Wait()
	if err != nil && errors.Cause(err) != context.Canceled {
		return nil, err
	}
	if rerr != nil {
		return nil, errors.Wrap(rerr, "router")
	}
	r.res.FirstNATY, _ = r.nat.First()
	return &r.res, nil
}
