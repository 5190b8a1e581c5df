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

package asm

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/db47h/intcode/internal/ici"
	"github.com/db47h/intcode/vm"
)

var opcodes = [...]struct {
	op    vm.Op
	names []string
}{
	{vm.OpAdd, []string{"add"}},
	{vm.OpMul, []string{"mul"}},
	{vm.OpIn, []string{"in"}},
	{vm.OpOut, []string{"out"}},
	{vm.OpJnz, []string{"jnz", "jt"}},
	{vm.OpJz, []string{"jz", "jf"}},
	{vm.OpLt, []string{"lt"}},
	{vm.OpEq, []string{"eq"}},
	{vm.OpArb, []string{"arb", "rb"}},
	{vm.OpHalt, []string{"hlt", "halt"}},
}

var opcodeIndex = make(map[string]vm.Op)

func init() {
	for _, o := range opcodes {
		for _, n := range o.names {
			opcodeIndex[n] = o.op
		}
	}
}

// Error is an assembler error at a given source position.
type Error struct {
	Pos scanner.Position
	Msg string
}

func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// ErrAsm is the error type returned by Assemble. It holds up to 10 errors.
type ErrAsm []Error

func (e ErrAsm) Error() string {
	s := make([]string, len(e))
	for k := range e {
		s[k] = e[k].Error()
	}
	return strings.Join(s, "\n")
}

// Assemble compiles assembly read from the supplied io.Reader and returns the
// resulting program and error if any.
//
// Then name parameter is used only in error messages to name the source of the
// error. If the io.Reader is a file, name should be the file name.
//
// The returned error, if not nil, can safely be cast to an ErrAsm value that
// will contain up to 10 entries.
func Assemble(name string, r io.Reader) (vm.Program, error) {
	p := newParser()
	if err := p.Parse(name, r); err != nil {
		return nil, err
	}
	return vm.Program(p.i[:p.size]), nil
}

var modePrefix = [...]string{vm.ModePosition: "", vm.ModeImmediate: "#", vm.ModeRelative: "~"}

// Disassemble writes a disassembly of the cells in the given slice at position
// pc to the specified io.Writer and returns the position of the next
// instruction and any write error.
//
// Values that do not decode to a valid instruction are written as .dat
// directives.
func Disassemble(mem []vm.Cell, pc int, w io.Writer) (next int, err error) {
	ew := ici.NewErrWriter(w)

	v := mem[pc]
	op, modes, derr := vm.Decode(v)
	if derr != nil {
		io.WriteString(ew, ".dat ")
		io.WriteString(ew, strconv.FormatInt(int64(v), 10))
		return pc + 1, ew.Err
	}
	io.WriteString(ew, op.String())
	pc++
	for k := 0; k < op.Arity(); k++ {
		ew.Write([]byte{' '})
		if pc >= len(mem) {
			io.WriteString(ew, "???")
			return pc, ew.Err
		}
		io.WriteString(ew, modePrefix[modes[k]])
		io.WriteString(ew, strconv.FormatInt(int64(mem[pc]), 10))
		pc++
	}
	return pc, ew.Err
}

// DisassembleAll writes a disassembly of all cells in the given slice to
// the specified io.Writer. The base argument specifies the real address of the
// frist cell (mem[0]). It will return any write error.
func DisassembleAll(mem []vm.Cell, base int, w io.Writer) error {
	ew := ici.NewErrWriter(w)
	for pc := 0; pc < len(mem); {
		fmt.Fprintf(ew, "% 10d\t", base+pc)
		pc, _ = Disassemble(mem, pc, ew)
		ew.Write([]byte{'\n'})
		if ew.Err != nil {
			return ew.Err
		}
	}
	return nil
}
