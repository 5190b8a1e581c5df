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

// Package ascii runs Intcode programs that talk ASCII.
//
// Such programs read and write text one character per value. Any output value
// outside of the [0, 255] range is a numeric result that ends the session.
package ascii

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/db47h/intcode/channel"
	"github.com/db47h/intcode/internal/ici"
	"github.com/db47h/intcode/vm"
)

// ErrNoResult is returned by Run when the program halts without outputting a
// numeric result.
var ErrNoResult = errors.New("program halted without result")

var errResult = errors.New("result")

// IsText returns true if v is an ASCII character.
func IsText(v vm.Cell) bool {
	return v >= 0 && v <= 255
}

// Encode returns the character codes of the given lines, each terminated by a
// newline.
func Encode(lines ...string) []vm.Cell {
	var c []vm.Cell
	for _, l := range lines {
		for i := 0; i < len(l); i++ {
			c = append(c, vm.Cell(l[i]))
		}
		c = append(c, '\n')
	}
	return c
}

// Decode returns the text at the start of cells, up to the first value that is
// not a character, and the remaining values.
func Decode(cells []vm.Cell) (string, []vm.Cell) {
	var b strings.Builder
	for k, c := range cells {
		if !IsText(c) {
			return b.String(), cells[k:]
		}
		b.WriteByte(byte(c))
	}
	return b.String(), nil
}

// feed copies bytes from r to c until EOF, skipping carriage returns. It
// closes c when done.
func feed(ctx context.Context, r io.Reader, c *channel.Channel) {
	defer c.Close()
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if b == '\r' {
			continue
		}
		if c.Send(ctx, vm.Cell(b)) != nil {
			return
		}
	}
}

// Run runs p with the bytes read from in as input, writing its text output to
// out. It returns the first numeric value output by the program, at which
// point the program is stopped.
//
// Reading from in is done in a separate goroutine which may outlive Run if in
// blocks. Any additional options are passed to vm.New.
func Run(ctx context.Context, p vm.Program, in io.Reader, out io.Writer, opts ...vm.Option) (vm.Cell, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := channel.New()
	defer input.Detach()
	if in != nil {
		go feed(ctx, in, input)
	} else {
		input.Close()
	}

	if out == nil {
		out = io.Discard
	}
	var (
		res vm.Cell
		ew  = ici.NewErrWriter(out)
	)
	output := vm.OutputFunc(func(_ context.Context, v vm.Cell) error {
		if !IsText(v) {
			res = v
			return errResult
		}
		_, err := ew.Write([]byte{byte(v)})
		return err
	})

	i, err := vm.New(p, append([]vm.Option{vm.Input(input), vm.Output(output)}, opts...)...)
	if err != nil {
		return 0, err
	}
	err = i.Run(ctx)
	switch {
	case errors.Cause(err) == errResult:
		return res, nil
	case err != nil:
		return 0, err
	}
	return 0, ErrNoResult
}

// Script runs p with the given input lines.
func Script(ctx context.Context, p vm.Program, out io.Writer, lines ...string) (vm.Cell, error) {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return Run(ctx, p, strings.NewReader(b.String()), out)
}
