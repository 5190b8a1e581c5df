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

package ascii_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/db47h/intcode/lang/ascii"
	"github.com/db47h/intcode/vm"
	"github.com/pkg/errors"
)

// prints a prompt, reads a line and outputs 1000 + the sum of its characters.
var sum = vm.Program{
	104, '?', 104, '\n',
	3, 201, // 4: in [201]
	1008, 201, 10, 202, // eq [201] #10 [202]
	1005, 202, 20, // jnz [202] #20
	1, 200, 201, 200, // add [200] [201] [200]
	1105, 1, 4, // jmp 4
	1001, 200, 1000, 200, // 20: add [200] #1000 [200]
	4, 200,
	99,
}

func TestRun(t *testing.T) {
	data := []struct {
		name  string
		p     vm.Program
		in    string
		out   string
		res   vm.Cell
		cause error
	}{
		{"sum", sum, "AB\n", "?\n", 1131, nil},
		{"crlf", sum, "AB\r\n", "?\n", 1131, nil},
		{"eof", sum, "AB", "?\n", 0, io.EOF},
		{"no result", vm.Program{104, 'H', 104, 'i', 99}, "", "Hi", 0, ascii.ErrNoResult},
		{"stop", vm.Program{104, 'x', 104, 1000, 1105, 1, 0}, "", "x", 1000, nil},
		{"negative", vm.Program{104, -1, 99}, "", "", -1, nil},
	}
	for _, d := range data {
		var out bytes.Buffer
		res, err := ascii.Run(context.Background(), d.p, strings.NewReader(d.in), &out)
		if errors.Cause(err) != d.cause {
			t.Errorf("%s: expected error %v, got %v", d.name, d.cause, err)
			continue
		}
		if res != d.res {
			t.Errorf("%s: expected result %d, got %d", d.name, d.res, res)
		}
		if out.String() != d.out {
			t.Errorf("%s: expected output %q, got %q", d.name, d.out, out.String())
		}
	}
}

func TestRun_nilIO(t *testing.T) {
	if _, err := ascii.Run(context.Background(), sum, nil, nil); errors.Cause(err) != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestEncode(t *testing.T) {
	c := ascii.Encode("NOT A J", "WALK")
	text, rest := ascii.Decode(append(c, 19350000, 'x'))
	if text != "NOT A J\nWALK\n" {
		t.Errorf("unexpected text %q", text)
	}
	if len(rest) != 2 || rest[0] != 19350000 {
		t.Errorf("unexpected rest %v", rest)
	}
	if text, rest = ascii.Decode(c[:3]); text != "NOT" || rest != nil {
		t.Errorf("unexpected decode %q %v", text, rest)
	}
}

func ExampleScript() {
	v, err := ascii.Script(context.Background(), sum, os.Stdout, "AB")
	if err != nil {
		panic(err)
	}
	fmt.Println(v)

	// Output:
	// ?
	// 1131
}
