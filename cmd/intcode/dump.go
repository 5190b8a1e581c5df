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

package main

import (
	"io"

	"github.com/db47h/intcode/internal/ici"
	"github.com/db47h/intcode/vm"
)

// dumpVM writes the VM registers and memory to w as "\x1C<pc> <rb>\x1D<mem>",
// memory cells being space separated.
func dumpVM(i *vm.Instance, w io.Writer) error {
	ew := ici.NewErrWriter(w)
	ew.Write([]byte{'\x1C'})
	ici.WriteCells(ew, []vm.Cell{vm.Cell(i.PC), i.RB}, ' ')
	ew.Write([]byte{'\x1D'})
	ici.WriteCells(ew, i.Mem, ' ')
	ew.Write([]byte{'\n'})
	return ew.Err
}
