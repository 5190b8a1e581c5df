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
	"fmt"

	"github.com/pkg/errors"
)

// Cell is the raw type stored in a memory location.
type Cell int64

// VM faults. Use errors.Cause on errors returned by Run to get to these.
var (
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrBadMode         = errors.New("bad parameter mode")
	ErrNegativeAddress = errors.New("negative address")
	ErrImmediateWrite  = errors.New("write to immediate mode parameter")
)

// Error is returned by Run when an instruction fails. It records the address
// and opcode of the faulting instruction.
type Error struct {
	PC  int
	Op  Op
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pc=%d %s: %v", e.PC, e.Op, e.Err)
}

// Cause returns the underlying error.
func (e *Error) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Instance represents an Intcode VM instance.
type Instance struct {
	PC       int    // Program Counter (aka. Instruction Pointer)
	RB       Cell   // Relative base
	Mem      []Cell // Memory
	in       Receiver
	out      Sender
	trace    func(*Instance)
	strict   bool
	halted   bool
	insCount int64
}

// Option interface
type Option func(*Instance) error

// Input sets the Receiver the VM reads from on IN instructions. Without an
// input, the first IN fails with io.EOF.
func Input(r Receiver) Option {
	return func(i *Instance) error { i.in = r; return nil }
}

// Output sets the Sender the VM writes to on OUT instructions. Without an
// output, values are discarded.
func Output(s Sender) Option {
	return func(i *Instance) error { i.out = s; return nil }
}

// Trace sets a function that will be called before each instruction is
// executed.
func Trace(fn func(i *Instance)) Option {
	return func(i *Instance) error { i.trace = fn; return nil }
}

// StrictWrites enables or disables checking of write target parameters. When
// disabled (the default), an immediate mode write target resolves to the
// address of the parameter itself, so the write overwrites the operand. When
// enabled, such instructions fail with ErrImmediateWrite.
func StrictWrites(strict bool) Option {
	return func(i *Instance) error { i.strict = strict; return nil }
}

// MemSize makes sure that at least size cells of memory are allocated before
// the program starts. Memory grows on demand anyway; this only saves a few
// reallocations for programs known to use high addresses.
func MemSize(size int) Option {
	return func(i *Instance) error {
		if size < 0 {
			return errors.Errorf("invalid memory size %d", size)
		}
		i.grow(size - 1)
		return nil
	}
}

// SetOptions sets the provided options.
func (i *Instance) SetOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return err
		}
	}
	return nil
}

// New creates a new Intcode VM instance running the given program. The
// program is copied, so the same Program can be used by any number of
// instances.
//
// Options will be set by calling SetOptions.
func New(p Program, opts ...Option) (*Instance, error) {
	i := &Instance{
		Mem: p.Clone(),
		in:  noInput{},
		out: discard{},
	}
	if err := i.SetOptions(opts...); err != nil {
		return nil, err
	}
	return i, nil
}

// Halted returns true once the VM has executed a HLT instruction.
func (i *Instance) Halted() bool {
	return i.halted
}

// InstructionCount returns the number of instructions executed so far.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}

// grow makes sure that addr is a valid memory address. New cells are zeroed.
func (i *Instance) grow(addr int) {
	if addr < len(i.Mem) {
		return
	}
	if addr < cap(i.Mem) {
		i.Mem = i.Mem[:addr+1]
		return
	}
	n := len(i.Mem) * 2
	if n <= addr {
		n = addr + 1
	}
	m := make([]Cell, addr+1, n)
	copy(m, i.Mem)
	i.Mem = m
}
