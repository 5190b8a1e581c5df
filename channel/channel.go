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

// Package channel implements an unbounded single-producer single-consumer
// queue of Intcode cells.
//
// A Channel implements both vm.Receiver and vm.Sender and is the glue used to
// wire VM instances together. Since the queue never fills up, a producer never
// blocks, which rules out deadlocks in ring topologies where every VM both
// sends to and receives from its neighbours.
//
// Either end can leave: the producer calls Close, after which the consumer
// gets io.EOF once the queue is empty; the consumer calls Detach, after which
// sends fail with io.ErrClosedPipe.
package channel

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/db47h/intcode/vm"
)

// ErrClosed is returned when sending on a channel closed by its producer.
var ErrClosed = errors.New("send on closed channel")

// Channel is an unbounded FIFO of cells. The zero value is not usable, use New.
type Channel struct {
	mu       sync.Mutex
	q        []vm.Cell
	head     int
	ready    chan struct{}
	closed   bool
	detached bool
	parked   bool
}

var (
	_ vm.Receiver = (*Channel)(nil)
	_ vm.Sender   = (*Channel)(nil)
)

// New returns a new empty channel.
func New() *Channel {
	return &Channel{ready: make(chan struct{}, 1)}
}

// Pipe returns a channel preloaded with the given values.
func Pipe(v ...vm.Cell) *Channel {
	c := New()
	c.q = append(c.q, v...)
	return c
}

func (c *Channel) wake() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// must be called with c.mu held and a non empty queue.
func (c *Channel) pop() vm.Cell {
	v := c.q[c.head]
	c.head++
	if c.head == len(c.q) {
		c.q = c.q[:0]
		c.head = 0
	}
	return v
}

// Send appends v to the queue. It never blocks. It fails with
// io.ErrClosedPipe if the receiver has detached and with ErrClosed if the
// producer already closed the channel.
func (c *Channel) Send(ctx context.Context, v vm.Cell) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	switch {
	case c.detached:
		c.mu.Unlock()
		return io.ErrClosedPipe
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	}
	c.q = append(c.q, v)
	c.mu.Unlock()
	c.wake()
	return nil
}

// Recv removes and returns the value at the head of the queue, blocking until
// one is available. It returns io.EOF if the queue is empty and the channel
// closed, or ctx.Err() if ctx is done first.
func (c *Channel) Recv(ctx context.Context) (vm.Cell, error) {
	for {
		c.mu.Lock()
		if c.head < len(c.q) {
			c.parked = false
			v := c.pop()
			c.mu.Unlock()
			return v, nil
		}
		if c.closed {
			c.parked = false
			c.mu.Unlock()
			return 0, io.EOF
		}
		c.parked = true
		c.mu.Unlock()

		select {
		case <-c.ready:
		case <-ctx.Done():
			c.mu.Lock()
			c.parked = false
			c.mu.Unlock()
			return 0, ctx.Err()
		}
	}
}

// TryRecv is the non-blocking version of Recv. ok is false if no value is
// available; err is io.EOF if none will ever be.
func (c *Channel) TryRecv() (v vm.Cell, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.head < len(c.q) {
		return c.pop(), true, nil
	}
	if c.closed {
		return 0, false, io.EOF
	}
	return 0, false, nil
}

// Close signals that no more values will be sent. Values already queued can
// still be received. Close is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wake()
}

// Detach signals that the receiver is gone. Queued values are discarded and
// any subsequent Send fails with io.ErrClosedPipe.
func (c *Channel) Detach() {
	c.mu.Lock()
	c.detached = true
	c.q = nil
	c.head = 0
	c.mu.Unlock()
}

// Len returns the number of queued values.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.q) - c.head
}

// Parked returns true if the receiver is blocked in Recv waiting for a value.
func (c *Channel) Parked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parked && c.head == len(c.q)
}

// Closed returns true once Close has been called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Drain receives values until the channel is closed and returns them. Reaching
// the end of the stream is not an error. On any other error, the values
// received so far are returned along with it.
func (c *Channel) Drain(ctx context.Context) ([]vm.Cell, error) {
	var out []vm.Cell
	for {
		v, err := c.Recv(ctx)
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			return out, err
		}
		out = append(out, v)
	}
}
