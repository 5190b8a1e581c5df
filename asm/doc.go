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

// Package asm provides utility functions to assemble and disassemble Intcode
// programs.
//
// Supported assembler mnemonics:
//
//	opcode	asm		params	description
//	------	---		------	-----------------------------------------------
//	1	add		a b c	c = a + b
//	2	mul		a b c	c = a * b
//	3	in		c	c = next input value
//	4	out		a	output a
//	5	jnz, jt		a b	jump to b if a != 0
//	6	jz, jf		a b	jump to b if a == 0
//	7	lt		a b c	c = 1 if a < b else 0
//	8	eq		a b c	c = 1 if a == b else 0
//	9	arb, rb		a	add a to the relative base
//	99	hlt, halt		halt
//
// Operands:
//
// Each mnemonic must be followed by exactly as many operands as it takes
// parameters. The addressing mode of an operand is given by an optional
// prefix:
//
//	42	position mode: the value at address 42
//	#42	immediate mode: the value 42
//	~42	relative mode: the value at address relative base + 42
//
// The assembler computes the mode digits of the instruction, so "add #1 ~-2
// 100" compiles as 2101, 1, -2, 100. Write targets (the last operand of add,
// mul, lt, eq and the operand of in) cannot use immediate mode.
//
// Comments:
//
// Comments are placed between parentheses, i.e. '(' and ')'. The body of the
// comment must be separated from the enclosing parentheses by a space:
//
//	( this is a valid comment )
//	( this is a
//	  rather long
//	  multiline comment )
//
// Literals and label/const identifiers:
//
// The parser behaves almost like a Forth parser: input is split at white space
// (space, tab or new line) into tokens. Operand values are resolved as
// follows:
//
//	- If a token can be converted to a Go integer (see strconv.ParseInt), it will
//	  be converted to an integer literal.
//	- If it is a Go character literal between single quotes, it will be converted to
//	  the corresponding integer literal. Since tokens are split at white space,
//	  the space character must be written as '\x20' or 32.
//	- If a token is the name of a defined constant, it is replaced by the
//	  constant's value.
//	- Anything else is a label.
//
// Where an instruction is expected, tokens that are not mnemonics, labels
// definitions or directives are compiled as data, just like with .dat.
//
// Labels:
//
// Labels are defined by prefixing them with a colon (:) and evaluate to the
// address of the next compiled cell. They can be used as operands in any mode:
//
//	jnz #1 #loop	( jump to loop )
//	out loop	( output the value stored at address loop )
//
// Local labels:
//
// Local labels work in the same way as in the GNU assembler. They are defined
// as a colon followed by a sequence of digits (i.e. :007, :0, :42) and can be
// defined multiple times. References to such labels must be suffixed with either
// a '-' (meaning backward reference to the last definition of this label), or a
// '+' (meaning a forward reference to the next definition of this label):
//
//	:1	jz ~0 #1+	( jump forward to the next :1 )
//		jnz #1 #1-	( jump back to the previous :1 )
//	:1	hlt
//
// Assembler directives:
//
//	.equ <IDENTIFIER> <value>
//
// defines a constant value. The value must be an integer value, named constant
// or character literal.
//
//	.org <value>
//
// Will place the next instruction at the address specified by the given integer
// literal or named constant.
//
//	.dat <value>
//
// Will compile the specified value as-is. This is primarily used for data
// storage:
//
//	:table	.dat 65
//		.dat 'B'
//
// The cells at addresses table+0 and table+1 will contain 65 and 66 respectively.
package asm
