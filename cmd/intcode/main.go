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
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/db47h/intcode/asm"
	"github.com/db47h/intcode/store"
	"github.com/db47h/intcode/vm"
)

const version = "0.1.0"

type cellList []vm.Cell

func (l *cellList) String() string { return vm.Program(*l).String() }
func (l *cellList) Set(s string) error {
	p, err := vm.ParseBytes([]byte(s))
	if err != nil {
		return err
	}
	*l = cellList(p)
	return nil
}
func (l *cellList) Get() interface{} { return []vm.Cell(*l) }

type fileList []string

func (f *fileList) String() string     { return "" }
func (f *fileList) Set(s string) error { *f = append(*f, s); return nil }
func (f *fileList) Get() interface{}   { return *f }

var (
	debug   bool
	verbose bool
	libPath string

	// instance to report on in atExit
	inst *vm.Instance
)

func defaultLibPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "programs.db"
	}
	return filepath.Join(dir, "intcode", "programs.db")
}

func logger() *log.Logger {
	if verbose {
		return log.Default()
	}
	return nil
}

// loadProgram loads a program from a file, the library if ref starts with @,
// or stdin if ref is "-". Files with a .ica extension are assembled.
func loadProgram(ref string) (vm.Program, error) {
	switch {
	case ref == "-":
		return vm.Parse(bufio.NewReader(os.Stdin))
	case strings.HasPrefix(ref, "@"):
		l, err := store.Open(store.Config{Path: libPath, ReadOnly: true})
		if err != nil {
			return nil, err
		}
		defer l.Close()
		p, _, err := l.Get(ref[1:])
		return p, err
	case filepath.Ext(ref) == ".ica":
		f, err := os.Open(ref)
		if err != nil {
			return nil, errors.Wrap(err, "open failed")
		}
		defer f.Close()
		return asm.Assemble(ref, bufio.NewReader(f))
	}
	return vm.Load(ref)
}

func atExit(err error) {
	if err == nil {
		return
	}
	if !debug {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\n%+v\n", err)
	if i := inst; i != nil {
		if i.PC >= 0 && i.PC < len(i.Mem) {
			fmt.Fprintf(os.Stderr, "PC: %v (", i.PC)
			asm.Disassemble(i.Mem, i.PC, os.Stderr)
			fmt.Fprintf(os.Stderr, "), RB: %v, instructions: %d\n", i.RB, i.InstructionCount())
		} else {
			fmt.Fprintf(os.Stderr, "PC: %v, RB: %v, instructions: %d\n", i.PC, i.RB, i.InstructionCount())
		}
	}
	os.Exit(1)
}

var commands = []struct {
	name string
	fn   func(args []string) error
	help string
}{
	{"run", runCmd, "run a program"},
	{"ascii", asciiCmd, "run an ASCII program interactively or from scripts"},
	{"amp", ampCmd, "find the best amplifier phase settings"},
	{"net", netCmd, "run a network of programs"},
	{"asm", asmCmd, "assemble a program"},
	{"disasm", disasmCmd, "disassemble a program"},
	{"store", storeCmd, "manage the program library"},
	{"version", versionCmd, "print version information"},
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "Usage: %s [flags] command [arguments]\n\nCommands:\n", filepath.Base(os.Args[0]))
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.help)
	}
	fmt.Fprintf(w, "\nFlags:\n")
	flag.PrintDefaults()
}

func versionCmd([]string) error {
	_, err := fmt.Printf("intcode %s\n", version)
	return err
}

func main() {
	var err error
	defer func() { atExit(err) }()

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	flag.Usage = usage
	flag.BoolVar(&debug, "debug", false, "enable debug diagnostics")
	flag.BoolVar(&verbose, "v", false, "log progress to stderr")
	flag.StringVar(&libPath, "lib", defaultLibPath(), "program library `path`")
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	name := flag.Arg(0)
	for _, c := range commands {
		if c.name == name {
			err = c.fn(flag.Args()[1:])
			return
		}
	}
	if name == "help" {
		usage()
		return
	}
	err = errors.Errorf("unknown command %q", name)
}

// output returns a buffered writer on the named file, or stdout if name is
// empty or "-".
func output(name string) (io.Writer, func() error, error) {
	if name == "" || name == "-" {
		w := bufio.NewWriter(os.Stdout)
		return w, w.Flush, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create failed")
	}
	w := bufio.NewWriter(f)
	return w, func() error {
		err := w.Flush()
		if e := f.Close(); err == nil {
			err = e
		}
		return err
	}, nil
}
