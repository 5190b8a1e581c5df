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

// Package vm implements the Intcode VM.
//
// An Intcode program is a sequence of signed integers. Each instruction is
// encoded in a single cell: the opcode is the value modulo 100, and the
// remaining decimal digits, least significant first, give the addressing mode
// of each parameter:
//
//	opcode	asm	params	description
//	------	---	------	-----------------------------------------------
//	1	add	a b c	c = a + b
//	2	mul	a b c	c = a * b
//	3	in	c	c = next input value (blocks)
//	4	out	a	send a to the output
//	5	jnz	a b	if a != 0, jump to b
//	6	jz	a b	if a == 0, jump to b
//	7	lt	a b c	c = 1 if a < b else 0
//	8	eq	a b c	c = 1 if a == b else 0
//	9	arb	a	relative base += a
//	99	hlt		halt
//
// Mode 0 (position) parameters are addresses, mode 1 (immediate) parameters
// are the value itself and mode 2 (relative) parameters are addresses relative
// to the relative base register.
//
// Memory is unbounded: any access past the end of memory grows it, new cells
// being zero. Negative addresses are reported as errors.
//
// I/O goes through the Receiver and Sender interfaces. The channel package
// provides an implementation suitable for wiring several VMs together, each
// running in its own goroutine.
//
// For performance reasons, the VM checks for context cancellation only on I/O
// instructions and once every few thousand instructions.
package vm
