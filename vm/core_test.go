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

package vm_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/db47h/intcode/vm"
	"github.com/pkg/errors"
)

type C []vm.Cell

func setup(code, input C, opts ...vm.Option) (*vm.Instance, *vm.Buffer) {
	out := new(vm.Buffer)
	opts = append([]vm.Option{vm.Input(vm.Values(input...)), vm.Output(out)}, opts...)
	i, err := vm.New(vm.Program(code), opts...)
	if err != nil {
		panic(err)
	}
	return i, out
}

func equal(a, b []vm.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}

func check(t *testing.T, testName string, i *vm.Instance, out *vm.Buffer, expOut, expMem C) {
	t.Helper()
	if err := i.Run(context.Background()); err != nil {
		t.Errorf("%s: %+v", testName, err)
		return
	}
	if !i.Halted() {
		t.Errorf("%s: VM not halted", testName)
	}
	if got := out.Values(); !equal(got, expOut) {
		t.Errorf("%v", fmt.Errorf("%s: Output error: expected %d, got %d", testName, expOut, got))
	}
	if expMem != nil && !equal(i.Mem, expMem) {
		t.Errorf("%v", fmt.Errorf("%s: Memory error: expected %d, got %d", testName, expMem, i.Mem))
	}
}

var comparator = C{
	3, 21, 1008, 21, 8, 20, 1005, 20, 22, 107, 8, 21, 20, 1006, 20, 31,
	1106, 0, 36, 98, 0, 0, 1002, 21, 125, 20, 4, 20, 1105, 1, 46, 104,
	999, 1105, 1, 46, 1101, 1000, 1, 20, 4, 20, 1105, 1, 46, 98, 99,
}

var quine = C{109, 1, 204, -1, 1001, 100, 1, 100, 1008, 100, 16, 101, 1006, 101, 0, 99}

var tests = [...]struct {
	name string
	code C
	in   C
	out  C
	mem  C
}{
	{"add/mul", C{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50}, nil, nil, C{3500, 9, 10, 70, 2, 3, 11, 0, 99, 30, 40, 50}},
	{"add", C{1, 0, 0, 0, 99}, nil, nil, C{2, 0, 0, 0, 99}},
	{"mul", C{2, 3, 0, 3, 99}, nil, nil, C{2, 3, 0, 6, 99}},
	{"mul large", C{2, 4, 4, 5, 99, 0}, nil, nil, C{2, 4, 4, 5, 99, 9801}},
	{"self modify", C{1, 1, 1, 4, 99, 5, 6, 0, 99}, nil, nil, C{30, 1, 1, 4, 2, 5, 6, 0, 99}},
	{"modes", C{1002, 4, 3, 4, 33}, nil, nil, C{1002, 4, 3, 4, 99}},
	{"negative imm", C{1101, 100, -1, 4, 0}, nil, nil, C{1101, 100, -1, 4, 99}},
	{"in/out", C{3, 0, 4, 0, 99}, C{42}, C{42}, nil},
	{"eq pos 8", C{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8}, C{8}, C{1}, nil},
	{"eq pos 7", C{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8}, C{7}, C{0}, nil},
	{"lt imm 5", C{3, 3, 1107, -1, 8, 3, 4, 3, 99}, C{5}, C{1}, nil},
	{"lt imm 9", C{3, 3, 1107, -1, 8, 3, 4, 3, 99}, C{9}, C{0}, nil},
	{"jz pos 0", C{3, 12, 6, 12, 15, 1, 13, 14, 13, 4, 13, 99, -1, 0, 1, 9}, C{0}, C{0}, nil},
	{"jz pos 3", C{3, 12, 6, 12, 15, 1, 13, 14, 13, 4, 13, 99, -1, 0, 1, 9}, C{3}, C{1}, nil},
	{"jnz imm 0", C{3, 3, 1105, -1, 9, 1101, 0, 0, 12, 4, 12, 99, 1}, C{0}, C{0}, nil},
	{"jnz imm 5", C{3, 3, 1105, -1, 9, 1101, 0, 0, 12, 4, 12, 99, 1}, C{5}, C{1}, nil},
	{"comparator 7", comparator, C{7}, C{999}, nil},
	{"comparator 8", comparator, C{8}, C{1000}, nil},
	{"comparator 9", comparator, C{9}, C{1001}, nil},
	{"quine", quine, nil, quine, nil},
	{"large mul", C{1102, 34915192, 34915192, 7, 4, 7, 99, 0}, nil, C{1219070632396864}, nil},
	{"large imm", C{104, 1125899906842624, 99}, nil, C{1125899906842624}, nil},
	{"relative read", C{109, 5, 204, 0, 99, 42}, nil, C{42}, nil},
	{"relative write", C{109, 10, 203, 0, 204, 0, 99}, C{7}, C{7}, C{109, 10, 203, 0, 204, 0, 99, 0, 0, 0, 7}},
	{"arb negative", C{109, 8, 109, -3, 204, 1, 99}, nil, C{99}, nil},
	{"grow on read", C{4, 10, 99}, nil, C{0}, C{4, 10, 99, 0, 0, 0, 0, 0, 0, 0, 0}},
	{"immediate write", C{11101, 2, 3, 0, 99}, nil, nil, C{11101, 2, 3, 5, 99}},
}

func TestCore(t *testing.T) {
	for _, test := range tests {
		i, out := setup(test.code, test.in)
		check(t, test.name, i, out, test.out, test.mem)
	}
}

func TestCore_errors(t *testing.T) {
	errTests := []struct {
		name  string
		code  C
		opts  []vm.Option
		cause error
		pc    int
		op    vm.Op
	}{
		{"unknown opcode", C{98}, nil, vm.ErrUnknownOpcode, 0, 98},
		{"negative opcode", C{1101, 1, 1, 5, -7}, nil, vm.ErrUnknownOpcode, 4, -7},
		{"run off end", C{1101, 1, 1, 5}, nil, vm.ErrUnknownOpcode, 4, 0},
		{"bad mode", C{301, 0, 0, 0, 99}, nil, vm.ErrBadMode, 0, vm.OpAdd},
		{"negative address", C{1, -1, 0, 0, 99}, nil, vm.ErrNegativeAddress, 0, vm.OpAdd},
		{"negative relative", C{204, -1, 99}, nil, vm.ErrNegativeAddress, 0, vm.OpOut},
		{"negative jump", C{1105, 1, -4, 99}, nil, vm.ErrNegativeAddress, -4, 0},
		{"input exhausted", C{3, 0, 99}, nil, io.EOF, 0, vm.OpIn},
		{"strict write", C{11101, 2, 3, 0, 99}, []vm.Option{vm.StrictWrites(true)}, vm.ErrImmediateWrite, 0, vm.OpAdd},
	}
	for _, test := range errTests {
		i, _ := setup(test.code, nil, test.opts...)
		err := i.Run(context.Background())
		if errors.Cause(err) != test.cause {
			t.Errorf("%s: expected cause %v, got %v", test.name, test.cause, err)
			continue
		}
		e, ok := err.(*vm.Error)
		if !ok {
			t.Errorf("%s: expected *vm.Error, got %T", test.name, err)
			continue
		}
		if e.PC != test.pc || e.Op != test.op {
			t.Errorf("%s: fault at pc=%d op=%d, expected pc=%d op=%d", test.name, e.PC, e.Op, test.pc, test.op)
		}
		if i.Halted() {
			t.Errorf("%s: VM halted after fault", test.name)
		}
	}
}

func TestCore_output(t *testing.T) {
	i, err := vm.New(vm.Program{104, 1, 99}, vm.Output(vm.OutputFunc(func(context.Context, vm.Cell) error {
		return io.ErrClosedPipe
	})))
	if err != nil {
		t.Fatal(err)
	}
	err = i.Run(context.Background())
	if errors.Cause(err) != io.ErrClosedPipe {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestCore_cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// an endless loop: jnz #1 #0
	i, _ := setup(C{1105, 1, 0}, nil)
	if err := i.Run(ctx); errors.Cause(err) != context.Canceled {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestCore_resume(t *testing.T) {
	var ready bool
	in := vm.InputFunc(func(ctx context.Context) (vm.Cell, error) {
		if !ready {
			return 0, context.DeadlineExceeded
		}
		return 21, nil
	})
	out := new(vm.Buffer)
	i, err := vm.New(vm.Program{1101, 1, 1, 20, 3, 21, 2, 20, 21, 22, 4, 22, 99}, vm.Input(in), vm.Output(out))
	if err != nil {
		t.Fatal(err)
	}
	err = i.Run(context.Background())
	if errors.Cause(err) != context.DeadlineExceeded {
		t.Fatalf("Unexpected error: %v", err)
	}
	if i.PC != 4 {
		t.Fatalf("Bad PC after timeout: %d", i.PC)
	}
	ready = true
	if err = i.Run(context.Background()); err != nil {
		t.Fatalf("%+v", err)
	}
	if v, _ := out.Last(); v != 42 {
		t.Fatalf("Expected 42, got %d", v)
	}
	// running a halted VM is a no-op
	if err = i.Run(context.Background()); err != nil || len(out.Values()) != 1 {
		t.Fatalf("Unexpected re-run: err = %v, output %v", err, out.Values())
	}
}

func TestCore_trace(t *testing.T) {
	var pcs []int
	i, out := setup(C{1101, 100, -1, 4, 0}, nil, vm.Trace(func(i *vm.Instance) { pcs = append(pcs, i.PC) }))
	check(t, "trace", i, out, nil, nil)
	if len(pcs) != 2 || pcs[0] != 0 || pcs[1] != 4 {
		t.Errorf("Bad trace: %v", pcs)
	}
	if n := i.InstructionCount(); n != 2 {
		t.Errorf("Bad instruction count: %d", n)
	}
}

func TestCore_determinism(t *testing.T) {
	for _, in := range []C{{7}, {8}, {9}} {
		i1, o1 := setup(comparator, in)
		if err := i1.Run(context.Background()); err != nil {
			t.Fatalf("%+v", err)
		}
		i2, o2 := setup(comparator, in)
		check(t, "determinism", i2, o2, o1.Values(), i1.Mem)
	}
}

func TestNew_copies(t *testing.T) {
	p := vm.Program{1101, 1, 1, 0, 99}
	i, _ := vm.New(p)
	if err := i.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p[0] != 1101 || i.Mem[0] != 2 {
		t.Fatalf("Program modified by VM: %v / %v", p, i.Mem)
	}
}

func TestMemSize(t *testing.T) {
	i, err := vm.New(vm.Program{99}, vm.MemSize(1000))
	if err != nil {
		t.Fatal(err)
	}
	if len(i.Mem) != 1000 || i.Mem[0] != 99 {
		t.Fatalf("Bad memory: len %d, mem[0] = %d", len(i.Mem), i.Mem[0])
	}
	if _, err = vm.New(vm.Program{99}, vm.MemSize(-1)); err == nil {
		t.Fatal("Expected error on negative memory size")
	}
}

func TestDecode(t *testing.T) {
	op, modes, err := vm.Decode(21107)
	if err != nil {
		t.Fatal(err)
	}
	if op != vm.OpLt || modes != [vm.MaxArity]vm.Mode{vm.ModeImmediate, vm.ModeImmediate, vm.ModeRelative} {
		t.Fatalf("Bad decode: %v %v", op, modes)
	}
	// mode digits beyond the arity are ignored
	if op, _, err = vm.Decode(9999); err != nil || op != vm.OpHalt {
		t.Fatalf("Bad decode: %v %v", op, err)
	}
	if _, _, err = vm.Decode(10); errors.Cause(err) != vm.ErrUnknownOpcode {
		t.Fatalf("Unexpected error: %v", err)
	}
	if op.Arity() != 0 || vm.OpAdd.Arity() != 3 || vm.Op(42).Arity() != -1 {
		t.Fatal("Bad arity")
	}
	if vm.OpJz.String() != "jz" || vm.Op(42).String() != "op(42)" || vm.ModeRelative.String() != "relative" {
		t.Fatal("Bad names")
	}
}
