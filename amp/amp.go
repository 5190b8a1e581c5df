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

// Package amp wires copies of an Intcode program into amplifier chains.
//
// In a linear chain, the output of each amplifier feeds the input of the next
// one. In a feedback loop, the output of the last amplifier is also relayed
// back to the input of the first, until the last amplifier halts.
//
// Every amplifier first receives its phase setting, then the first amplifier
// receives the seed signal.
package amp

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/db47h/intcode/channel"
	"github.com/db47h/intcode/vm"
)

// ErrNoSignal is returned when the last amplifier halts without producing any
// output.
var ErrNoSignal = errors.New("no output signal")

// start runs amplifier k in g. Its input is detached and its output closed
// when it stops. A downstream amplifier that is already gone is not an error.
func start(ctx context.Context, g *errgroup.Group, k int, i *vm.Instance, in, out *channel.Channel) {
	g.Go(func() error {
		defer out.Close()
		defer in.Detach()
		err := i.Run(ctx)
		if errors.Cause(err) == io.ErrClosedPipe {
			return nil
		}
		return errors.Wrapf(err, "amplifier %d", k)
	})
}

// wire creates one amplifier per phase setting. It returns the amplifier
// inputs, the terminal output channel and the instances.
func wire(p vm.Program, phases []vm.Cell, seed vm.Cell) ([]*channel.Channel, *channel.Channel, []*vm.Instance, error) {
	n := len(phases)
	if n == 0 {
		return nil, nil, nil, errors.New("no amplifiers")
	}
	in := make([]*channel.Channel, n+1)
	for k, ph := range phases {
		in[k] = channel.Pipe(ph)
	}
	in[0] = channel.Pipe(phases[0], seed)
	in[n] = channel.New()
	amps := make([]*vm.Instance, n)
	for k := range amps {
		i, err := vm.New(p, vm.Input(in[k]), vm.Output(in[k+1]))
		if err != nil {
			return nil, nil, nil, err
		}
		amps[k] = i
	}
	return in[:n], in[n], amps, nil
}

// Chain runs len(phases) amplifiers wired in line and returns the first
// value output by the last one. Once that value is read, the remaining
// amplifiers are stopped.
func Chain(ctx context.Context, p vm.Program, phases []vm.Cell, seed vm.Cell) (vm.Cell, error) {
	in, out, amps, err := wire(p, phases, seed)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	for k, i := range amps {
		k := k
		next := out
		if k < len(amps)-1 {
			next = in[k+1]
		}
		start(gctx, g, k, i, in[k], next)
	}

	v, rerr := out.Recv(gctx)
	out.Detach()
	cancel()
	err = g.Wait()
	switch {
	case rerr == nil:
		// the chain was stopped on purpose: ignore our own cancellation.
		if err != nil && errors.Cause(err) != context.Canceled {
			return 0, err
		}
		return v, nil
	case err != nil && errors.Cause(err) != context.Canceled:
		return 0, err
	case rerr == io.EOF:
		return 0, ErrNoSignal
	}
	return 0, errors.Wrap(rerr, "chain")
}

// Feedback runs len(phases) amplifiers in a loop: a relay forwards every
// value output by the last amplifier to the input of the first one. It returns
// the last value output by the last amplifier before it halted.
func Feedback(ctx context.Context, p vm.Program, phases []vm.Cell, seed vm.Cell) (vm.Cell, error) {
	in, out, amps, err := wire(p, phases, seed)
	if err != nil {
		return 0, err
	}
	g, gctx := errgroup.WithContext(ctx)
	for k, i := range amps {
		k := k
		next := out
		if k < len(amps)-1 {
			next = in[k+1]
		}
		start(gctx, g, k, i, in[k], next)
	}

	var (
		last vm.Cell
		seen bool
	)
	g.Go(func() error {
		defer in[0].Close()
		relay := true
		for {
			v, err := out.Recv(gctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "relay")
			}
			last, seen = v, true
			if !relay {
				continue
			}
			if err = in[0].Send(gctx, v); err != nil {
				if err != io.ErrClosedPipe {
					return errors.Wrap(err, "relay")
				}
				// the first amplifier halted: keep draining the last one.
				relay = false
			}
		}
	})
	if err = g.Wait(); err != nil {
		return 0, err
	}
	if !seen {
		return 0, ErrNoSignal
	}
	return last, nil
}
