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
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/db47h/intcode/internal/ici"
)

// Program is an Intcode memory image.
type Program []Cell

// Clone returns a copy of p.
func (p Program) Clone() []Cell {
	m := make([]Cell, len(p))
	copy(m, p)
	return m
}

// String returns p in source format: comma separated decimal integers.
func (p Program) String() string {
	var b bytes.Buffer
	ici.WriteCells(&b, []Cell(p), ',')
	return b.String()
}

// Parse reads a program in source format from r. Values are comma separated
// decimal integers, optionally wrapped on several lines. White space around
// values is ignored, as is a trailing comma.
func Parse(r io.Reader) (Program, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read failed")
	}
	return ParseBytes(src)
}

// ParseBytes is like Parse but reads from a byte slice.
func ParseBytes(src []byte) (Program, error) {
	s := strings.TrimSpace(string(src))
	s = strings.TrimSuffix(s, ",")
	if s == "" {
		return nil, errors.New("empty program")
	}
	fields := strings.Split(s, ",")
	p := make(Program, len(fields))
	for k, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value #%d", k)
		}
		p[k] = Cell(v)
	}
	return p, nil
}
