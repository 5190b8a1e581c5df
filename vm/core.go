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

	"github.com/pkg/errors"
)

// the context is polled every ctxCheckMask+1 instructions outside of I/O.
const ctxCheckMask = 4095

func (i *Instance) fault(op Op, err error) error {
	return &Error{PC: i.PC, Op: op, Err: err}
}

// resolve returns the address of parameter k of the instruction at PC and
// makes sure that it is backed by memory.
func (i *Instance) resolve(op Op, k int, mode Mode) (int, error) {
	p := i.PC + 1 + k
	i.grow(p)
	var a Cell
	switch mode {
	case ModePosition:
		a = i.Mem[p]
	case ModeImmediate:
		if i.strict && k == op.WriteParam() {
			return 0, errors.Wrapf(ErrImmediateWrite, "parameter %d", k+1)
		}
		a = Cell(p)
	case ModeRelative:
		a = i.RB + i.Mem[p]
	}
	if a < 0 {
		return 0, errors.Wrapf(ErrNegativeAddress, "parameter %d resolves to %d", k+1, a)
	}
	i.grow(int(a))
	return int(a), nil
}

// Run starts execution of the VM and returns when the program halts, in which
// case err is nil.
//
// If an error occurs, the PC will point to the instruction that triggered the
// error and the returned error will be an *Error. If the input gets exhausted,
// the cause of the error will be io.EOF. This may or may not be a normal exit
// condition depending on the program. Cancelling ctx stops the VM at the next
// I/O instruction or shortly after if it is not doing any I/O.
//
// Run can be called again after an error caused by ctx or a transient I/O
// failure: execution resumes at the faulting instruction.
func (i *Instance) Run(ctx context.Context) (err error) {
	defer func() {
		if e := recover(); e != nil {
			switch e := e.(type) {
			case error:
				err = errors.Wrapf(e, "Recovered error @pc=%d/%d, rb %d", i.PC, len(i.Mem), i.RB)
			default:
				panic(e)
			}
		}
	}()
	var addr [MaxArity]int
	for !i.halted {
		if i.insCount&ctxCheckMask == 0 {
			if err = ctx.Err(); err != nil {
				return i.fault(0, err)
			}
		}
		if i.PC < 0 {
			return i.fault(0, errors.Wrapf(ErrNegativeAddress, "instruction pointer %d", i.PC))
		}
		i.grow(i.PC)
		op, modes, err := Decode(i.Mem[i.PC])
		if err != nil {
			return i.fault(op, err)
		}
		if i.trace != nil {
			i.trace(i)
		}
		n := opcodes[op].arity
		for k := 0; k < n; k++ {
			if addr[k], err = i.resolve(op, k, modes[k]); err != nil {
				return i.fault(op, err)
			}
		}
		m := i.Mem
		next := i.PC + 1 + n
		switch op {
		case OpAdd:
			m[addr[2]] = m[addr[0]] + m[addr[1]]
		case OpMul:
			m[addr[2]] = m[addr[0]] * m[addr[1]]
		case OpIn:
			v, err := i.in.Recv(ctx)
			if err != nil {
				return i.fault(op, err)
			}
			m[addr[0]] = v
		case OpOut:
			if err = i.out.Send(ctx, m[addr[0]]); err != nil {
				return i.fault(op, err)
			}
		case OpJnz:
			if m[addr[0]] != 0 {
				next = int(m[addr[1]])
			}
		case OpJz:
			if m[addr[0]] == 0 {
				next = int(m[addr[1]])
			}
		case OpLt:
			if m[addr[0]] < m[addr[1]] {
				m[addr[2]] = 1
			} else {
				m[addr[2]] = 0
			}
		case OpEq:
			if m[addr[0]] == m[addr[1]] {
				m[addr[2]] = 1
			} else {
				m[addr[2]] = 0
			}
		case OpArb:
			i.RB += m[addr[0]]
		case OpHalt:
			i.halted = true
			next = i.PC
		}
		i.PC = next
		i.insCount++
	}
	return nil
}
