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
	"strconv"

	"github.com/pkg/errors"
)

// Op is an Intcode opcode, i.e. the instruction value modulo 100.
type Op Cell

// Intcode opcodes.
const (
	OpAdd  Op = 1
	OpMul  Op = 2
	OpIn   Op = 3
	OpOut  Op = 4
	OpJnz  Op = 5
	OpJz   Op = 6
	OpLt   Op = 7
	OpEq   Op = 8
	OpArb  Op = 9
	OpHalt Op = 99
)

type opInfo struct {
	name  string
	arity int
	write int // index of the write target parameter, -1 if none
}

var opcodes = [...]opInfo{
	OpAdd:  {"add", 3, 2},
	OpMul:  {"mul", 3, 2},
	OpIn:   {"in", 1, 0},
	OpOut:  {"out", 1, -1},
	OpJnz:  {"jnz", 2, -1},
	OpJz:   {"jz", 2, -1},
	OpLt:   {"lt", 3, 2},
	OpEq:   {"eq", 3, 2},
	OpArb:  {"arb", 1, -1},
	OpHalt: {"hlt", 0, -1},
}

// Valid returns true if op is a known opcode.
func (op Op) Valid() bool {
	return op > 0 && int(op) < len(opcodes) && opcodes[op].name != ""
}

// Arity returns the number of parameters of op, or -1 if op is not a valid
// opcode.
func (op Op) Arity() int {
	if !op.Valid() {
		return -1
	}
	return opcodes[op].arity
}

// WriteParam returns the index of the parameter used as a write target, or -1
// if op does not write to memory.
func (op Op) WriteParam() int {
	if !op.Valid() {
		return -1
	}
	return opcodes[op].write
}

func (op Op) String() string {
	if !op.Valid() {
		return "op(" + strconv.Itoa(int(op)) + ")"
	}
	return opcodes[op].name
}

// Mode is a parameter addressing mode.
type Mode uint8

// Addressing modes.
const (
	ModePosition  Mode = 0 // operand is an address
	ModeImmediate Mode = 1 // operand is the value
	ModeRelative  Mode = 2 // operand is an offset from the relative base
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeImmediate:
		return "immediate"
	case ModeRelative:
		return "relative"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// MaxArity is the largest number of parameters taken by any opcode.
const MaxArity = 3

// Decode splits an instruction value into its opcode and parameter modes. Mode
// digits are taken least significant first from v / 100, one per parameter.
//
// The returned error has ErrUnknownOpcode or ErrBadMode as its cause.
func Decode(v Cell) (op Op, modes [MaxArity]Mode, err error) {
	if v < 0 {
		return Op(v), modes, errors.Wrapf(ErrUnknownOpcode, "%d", v)
	}
	op = Op(v % 100)
	if !op.Valid() {
		return op, modes, errors.Wrapf(ErrUnknownOpcode, "%d", op)
	}
	m := v / 100
	for k := 0; k < opcodes[op].arity; k++ {
		d := Mode(m % 10)
		if d > ModeRelative {
			return op, modes, errors.Wrapf(ErrBadMode, "digit %d for parameter %d of %s", d, k+1, op)
		}
		modes[k] = d
		m /= 10
	}
	return op, modes, nil
}
