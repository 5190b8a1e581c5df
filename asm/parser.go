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
	"io"
	"sort"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/db47h/intcode/vm"
)

const maxErrors = 10

var modeWeight = [vm.MaxArity]vm.Cell{100, 1000, 10000}

func isIdentRune(ch rune, i int) bool {
	return unicode.IsLetter(ch) || unicode.IsSymbol(ch) || unicode.IsPunct(ch) || unicode.IsDigit(ch)
}

type labelSite struct {
	pos     scanner.Position
	address int
}

type label struct {
	labelSite
	uses []labelSite
}

type constant struct {
	pos scanner.Position
	v   vm.Cell
}

// parser states
const (
	stInstr = iota
	stOperand
	stData
	stOrg
	stEqu
)

type parser struct {
	i      []vm.Cell
	pc     int
	size   int
	s      scanner.Scanner
	labels map[string]*label
	consts map[string]constant
	locals map[string]int
	errs   ErrAsm

	state   int
	op      vm.Op
	insAddr int
	argN    int
	cstName string
	cstPos  scanner.Position
}

func newParser() *parser {
	p := new(parser)
	p.labels = make(map[string]*label)
	p.consts = make(map[string]constant)
	p.locals = make(map[string]int)
	return p
}

func (p *parser) errorAt(pos scanner.Position, msg string) {
	if len(p.errs) < maxErrors {
		p.errs = append(p.errs, Error{pos, msg})
	}
}

func (p *parser) error(msg string) {
	pos := p.s.Position
	if !pos.IsValid() {
		pos = p.s.Pos()
	}
	p.errorAt(pos, msg)
}

func (p *parser) write(v vm.Cell) {
	for p.pc >= len(p.i) {
		p.i = append(p.i, make([]vm.Cell, 1024)...)
	}
	p.i[p.pc] = v
	p.pc++
	if p.pc > p.size {
		p.size = p.pc
	}
}

func isLocal(name string) bool {
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return name != ""
}

func localName(name string, n int) string {
	return name + "·" + strconv.Itoa(n)
}

// literal converts s to a value if it is an integer, a character literal or a
// constant name.
func (p *parser) literal(s string) (vm.Cell, bool) {
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return vm.Cell(n), true
	}
	if len(s) > 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		r, _, tail, err := strconv.UnquoteChar(s[1:len(s)-1], '\'')
		if err != nil || tail != "" {
			p.error("invalid character literal " + s)
		}
		return vm.Cell(r), true
	}
	if c, ok := p.consts[s]; ok {
		return c.v, true
	}
	return 0, false
}

func (p *parser) useLabel(name string) {
	if l := len(name) - 1; l > 0 && isLocal(name[:l]) {
		switch n := p.locals[name[:l]]; name[l] {
		case '-':
			if n == 0 {
				p.error("no previous definition for local label " + name)
				return
			}
			name = localName(name[:l], n)
		case '+':
			name = localName(name[:l], n+1)
		}
	}
	lbl := p.labels[name]
	if lbl == nil {
		lbl = &label{labelSite{p.s.Position, -1}, nil}
		p.labels[name] = lbl
	}
	lbl.uses = append(lbl.uses, labelSite{p.s.Position, p.pc})
}

// value compiles a literal value or a label address at pc.
func (p *parser) value(s string) {
	if v, ok := p.literal(s); ok {
		p.write(v)
		return
	}
	switch s[0] {
	case ':', '.', '#', '~':
		p.error("unexpected " + s)
		p.write(0)
		return
	}
	p.useLabel(s)
	p.write(0)
}

func (p *parser) defLabel(name string) {
	if name == "" {
		p.error("empty label name")
		return
	}
	if isLocal(name) {
		p.locals[name]++
		name = localName(name, p.locals[name])
	}
	if c, ok := p.consts[name]; ok {
		p.error("label previously defined as a constant at " + c.pos.String() + ": " + name)
		return
	}
	if l, ok := p.labels[name]; ok {
		if l.address != -1 {
			p.error("label redefinition, previous definition at " + l.pos.String() + ": " + name)
			return
		}
		l.address = p.pc
		l.pos = p.s.Position
		return
	}
	p.labels[name] = &label{labelSite{p.s.Position, p.pc}, nil}
}

func (p *parser) directive(s string) {
	switch s {
	case ".org":
		p.state = stOrg
	case ".dat":
		p.state = stData
	case ".equ":
		if p.s.Scan() != scanner.Ident {
			p.error(".equ: expected identifier, got " + p.s.TokenText())
			return
		}
		p.cstName = p.s.TokenText()
		if l, ok := p.labels[p.cstName]; ok {
			p.error(".equ: previously defined or used as a label at " + l.pos.String() + ": " + p.cstName)
			return
		}
		p.cstPos = p.s.Position
		p.state = stEqu
	default:
		p.error("unknown directive " + s)
	}
}

func (p *parser) instr(s string) {
	switch s[0] {
	case ':':
		p.defLabel(s[1:])
		return
	case '.':
		p.directive(s)
		return
	case '#', '~':
		p.error("unexpected operand " + s)
		return
	}
	if op, ok := opcodeIndex[s]; ok {
		p.op, p.insAddr, p.argN = op, p.pc, 0
		p.write(vm.Cell(op))
		if op.Arity() > 0 {
			p.state = stOperand
		}
		return
	}
	// anything else is data
	p.value(s)
}

func (p *parser) operand(s string) {
	mode := vm.ModePosition
	switch s[0] {
	case '#':
		mode = vm.ModeImmediate
	case '~':
		mode = vm.ModeRelative
	}
	if mode != vm.ModePosition {
		if len(s) == 1 {
			p.error("missing value after mode prefix " + s)
		} else if mode == vm.ModeImmediate && p.argN == p.op.WriteParam() {
			p.error("immediate mode write target " + s)
		}
		s = s[1:]
	}
	if s == "" {
		p.write(0)
	} else {
		p.value(s)
	}
	p.i[p.insAddr] += vm.Cell(mode) * modeWeight[p.argN]
	p.argN++
	if p.argN == p.op.Arity() {
		p.state = stInstr
	}
}

// Parse does the parsing and compiling.
func (p *parser) Parse(name string, r io.Reader) error {
	p.s.Init(r)
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.error(msg)
	}
	p.s.IsIdentRune = isIdentRune
	p.s.Mode = scanner.ScanIdents
	p.s.Filename = name

	// Our assembly is forth like: words can start with and contain digits,
	// symbols, punctuation and so on. The stdlib scanner can only return
	// identifiers, so we need to convert back to ints when required.
	for tok := p.s.Scan(); tok != scanner.EOF && len(p.errs) < maxErrors; tok = p.s.Scan() {
		if tok != scanner.Ident {
			p.error("unexpected character " + strconv.QuoteRune(tok))
			continue
		}
		s := p.s.TokenText()
		if s == "(" {
			// skip comments
			pos := p.s.Position
			for tok = p.s.Scan(); tok != scanner.EOF && (tok != scanner.Ident || p.s.TokenText() != ")"); tok = p.s.Scan() {
			}
			if tok == scanner.EOF {
				p.errorAt(pos, "unterminated comment (")
				break
			}
			continue
		}

		switch p.state {
		case stOperand:
			p.operand(s)
		case stData:
			p.value(s)
			p.state = stInstr
		case stOrg:
			p.state = stInstr
			v, ok := p.literal(s)
			if !ok || v < 0 {
				p.error(".org: expected positive integer or constant, got " + s)
				break
			}
			p.pc = int(v)
		case stEqu:
			p.state = stInstr
			v, ok := p.literal(s)
			if !ok {
				p.error(".equ: expected integer or constant, got " + s)
				break
			}
			p.consts[p.cstName] = constant{p.cstPos, v}
		default:
			p.instr(s)
		}
	}
	if p.state != stInstr {
		p.error("unexpected end of input")
	}

	// write labels
	names := make([]string, 0, len(p.labels))
	for n := range p.labels {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		l := p.labels[n]
		if l.address == -1 {
			p.errorAt(l.uses[0].pos, "undefined label "+strings.Split(n, "·")[0])
			continue
		}
		for _, u := range l.uses {
			p.i[u.address] = vm.Cell(l.address)
		}
	}

	if len(p.errs) > 0 {
		return p.errs
	}
	return nil
}
