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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/db47h/intcode/store"
	"github.com/db47h/intcode/vm"
)

const storeUsage = `Usage: intcode store command [arguments]

Commands:
  add name program   add a program to the library under the given name
  ls                 list named programs
  get ref [file]     write a program to file or stdout; ref is a name or id
  rm name...         remove names from the library
`

func openLibrary(readOnly bool) (*store.Library, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(libPath), 0755); err != nil {
			return nil, errors.Wrap(err, "create library directory")
		}
	}
	cfg := store.DefaultConfig(libPath)
	cfg.ReadOnly = readOnly
	return store.Open(cfg)
}

func storeCmd(args []string) (err error) {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, storeUsage)
		os.Exit(2)
	}
	cmd, args := args[0], args[1:]
	argc := map[string]int{"add": 2, "ls": 0, "get": 1, "rm": 1}
	n, ok := argc[cmd]
	if !ok || len(args) < n {
		fmt.Fprint(os.Stderr, storeUsage)
		os.Exit(2)
	}

	var p vm.Program
	if cmd == "add" {
		// load before opening the library: the program may come from it.
		if p, err = loadProgram(args[1]); err != nil {
			return err
		}
	}
	l, err := openLibrary(cmd == "ls" || cmd == "get")
	if err != nil {
		return err
	}
	defer func() {
		if e := l.Close(); err == nil {
			err = e
		}
	}()

	switch cmd {
	case "add":
		var e store.Entry
		if e, err = l.Put(args[0], p); err == nil {
			logf("added %s (%d cells)", e.Name, e.Size)
			_, err = fmt.Println(e.ID)
		}
	case "ls":
		var list []store.Entry
		if list, err = l.List(); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tID\tCELLS\tADDED")
		for _, e := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Name, e.ID, e.Size, e.Added.Local().Format(time.DateTime))
		}
		err = tw.Flush()
	case "get":
		var name string
		if len(args) > 1 {
			name = args[1]
		}
		if p, _, err = l.Get(strings.TrimPrefix(args[0], "@")); err != nil {
			return err
		}
		w, done, err := output(name)
		if err != nil {
			return err
		}
		if err = vm.Encode(w, p, false); err != nil {
			return err
		}
		return done()
	case "rm":
		for _, name := range args {
			if err = l.Delete(name); err != nil {
				return err
			}
		}
	}
	return err
}

func logf(format string, args ...interface{}) {
	if l := logger(); l != nil {
		l.Printf(format, args...)
	}
}
