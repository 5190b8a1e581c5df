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

// The intcode command runs, assembles and manages Intcode programs.
//
// Usage:
//
//	intcode [-debug] [-v] [-lib path] command [arguments]
//
// Global flags:
//
//	-debug
//		  print a full stack trace and the VM state should a program crash
//	-v
//		  log progress to stderr
//	-lib path
//		  program library database (default $XDG_CONFIG_HOME/intcode/programs.db)
//
// Wherever a program is expected, it can be given as a file name, "-" for
// stdin, or @name to load it from the library. Files ending with .ica are
// assembled on the fly; other files may be zstd compressed.
//
// run: runs a program. Input values are given with -i and, if -stdin is set,
// read from stdin after those. Output values are printed one per line. -trace
// disassembles every instruction to stderr before execution. -dump prints the
// final VM state as "\x1C<pc> <rb>\x1D<memory>", and -save writes the final
// memory image to a file (-z to compress it).
//
// ascii: runs an ASCII capable program. Scripts given with -script are fed to
// the program before stdin. Input piped from a file is echoed to stdout so
// that the output reads like an interactive session. The first non-ASCII
// output value is printed on exit.
//
// amp: runs every ordering of the -phases settings through a chain of
// amplifiers (a feedback loop with -feedback) and prints the highest signal.
// -table prints the signal for every ordering. With -cache dir, results are
// memoized in a database keyed by program id and parameters.
//
// net: runs -size copies of a program as a packet switched network and prints
// the Y value of the first packet sent to the NAT, then the first Y value
// delivered twice in a row by the NAT to node 0.
//
// asm, disasm: convert between assembly source and program format.
//
// store: manages the program library:
//
//	intcode store add name program
//	intcode store ls
//	intcode store get ref [file]
//	intcode store rm name...
package main
