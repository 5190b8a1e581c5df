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

package vm

import (
	"context"
	"io"
	"sync"
)

// Receiver is the interface implemented by VM inputs.
//
// Recv blocks until a value is available. It must return io.EOF once no more
// values will ever be available, and ctx.Err() if ctx is done before a value
// arrives.
type Receiver interface {
	Recv(ctx context.Context) (Cell, error)
}

// Sender is the interface implemented by VM outputs.
//
// Send should return io.ErrClosedPipe if the receiving end is gone.
type Sender interface {
	Send(ctx context.Context, v Cell) error
}

// InputFunc is a function that implements Receiver.
type InputFunc func(ctx context.Context) (Cell, error)

// Recv implements Receiver.
func (f InputFunc) Recv(ctx context.Context) (Cell, error) { return f(ctx) }

// OutputFunc is a function that implements Sender.
type OutputFunc func(ctx context.Context, v Cell) error

// Send implements Sender.
func (f OutputFunc) Send(ctx context.Context, v Cell) error { return f(ctx, v) }

type noInput struct{}

func (noInput) Recv(context.Context) (Cell, error) { return 0, io.EOF }

type discard struct{}

func (discard) Send(context.Context, Cell) error { return nil }

type values struct {
	v []Cell
}

func (r *values) Recv(ctx context.Context) (Cell, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(r.v) == 0 {
		return 0, io.EOF
	}
	v := r.v[0]
	r.v = r.v[1:]
	return v, nil
}

// Values returns a Receiver that yields the given values in order, then io.EOF.
func Values(v ...Cell) Receiver {
	return &values{append([]Cell(nil), v...)}
}

// Buffer is a Sender that collects all values sent to it. It is safe for
// concurrent use.
type Buffer struct {
	mu sync.Mutex
	v  []Cell
}

// Send implements Sender.
func (b *Buffer) Send(_ context.Context, v Cell) error {
	b.mu.Lock()
	b.v = append(b.v, v)
	b.mu.Unlock()
	return nil
}

// Values returns a copy of the values sent so far.
func (b *Buffer) Values() []Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Cell(nil), b.v...)
}

// Last returns the last value sent. ok is false if nothing has been sent.
func (b *Buffer) Last() (v Cell, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.v) == 0 {
		return 0, false
	}
	return b.v[len(b.v)-1], true
}
