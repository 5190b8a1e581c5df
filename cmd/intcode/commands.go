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
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/errors"

	"github.com/db47h/intcode/amp"
	"github.com/db47h/intcode/asm"
	"github.com/db47h/intcode/cache"
	"github.com/db47h/intcode/channel"
	"github.com/db47h/intcode/lang/ascii"
	"github.com/db47h/intcode/network"
	"github.com/db47h/intcode/store"
	"github.com/db47h/intcode/vm"
)

func newFlagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: intcode %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// programArg parses flags and loads the program named by the first remaining
// argument.
func programArg(fs *flag.FlagSet, args []string) (vm.Program, error) {
	fs.Parse(args)
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(2)
	}
	return loadProgram(fs.Arg(0))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func openCache(dir string) (*cache.Cache, error) {
	if dir == "" {
		return nil, nil
	}
	return cache.Open(cache.DefaultConfig(dir))
}

func runCmd(args []string) (err error) {
	var (
		in cellList
		fs = newFlagSet("run", "program")
	)
	fs.Var(&in, "i", "comma separated input `values`")
	stdin := fs.Bool("stdin", false, "read input values from stdin after -i values")
	trace := fs.Bool("trace", false, "trace execution to stderr")
	strict := fs.Bool("strict", false, "fail on immediate mode write targets")
	dump := fs.Bool("dump", false, "dump VM state and memory upon exit")
	save := fs.String("save", "", "save memory to `filename` upon exit")
	compress := fs.Bool("z", false, "zstd compress saved memory")
	p, err := programArg(fs, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	input := channel.Pipe(in...)
	if *stdin {
		go readCells(ctx, os.Stdin, input)
	} else {
		input.Close()
	}
	out := bufio.NewWriter(os.Stdout)
	defer func() {
		if e := out.Flush(); err == nil {
			err = e
		}
	}()
	opts := []vm.Option{
		vm.Input(input),
		vm.Output(vm.OutputFunc(func(_ context.Context, v vm.Cell) error {
			_, err := fmt.Fprintln(out, v)
			return err
		})),
		vm.StrictWrites(*strict),
	}
	if *trace {
		tw := bufio.NewWriter(os.Stderr)
		defer tw.Flush()
		opts = append(opts, vm.Trace(func(i *vm.Instance) {
			fmt.Fprintf(tw, "% 10d\trb=%d\t", i.PC, i.RB)
			asm.Disassemble(i.Mem, i.PC, tw)
			tw.WriteByte('\n')
		}))
	}
	if inst, err = vm.New(p, opts...); err != nil {
		return err
	}
	err = inst.Run(ctx)
	if err == nil && *dump {
		err = dumpVM(inst, out)
	}
	if err == nil && *save != "" {
		err = vm.Save(*save, inst.Mem, *compress)
	}
	return err
}

// readCells sends the integers read from r, separated by commas or white
// space, to c.
func readCells(ctx context.Context, r io.Reader, c *channel.Channel) {
	defer c.Close()
	s := bufio.NewScanner(r)
	s.Split(scanCells)
	for s.Scan() {
		v, err := strconv.ParseInt(s.Text(), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ignoring bad input %q\n", s.Text())
			continue
		}
		if c.Send(ctx, vm.Cell(v)) != nil {
			return
		}
	}
}

func isSep(b byte) bool {
	return b == ',' || b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func scanCells(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && isSep(data[start]) {
		start++
	}
	for i := start; i < len(data); i++ {
		if isSep(data[i]) {
			return i + 1, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

func asciiCmd(args []string) error {
	var (
		scripts fileList
		fs      = newFlagSet("ascii", "program")
	)
	fs.Var(&scripts, "script", "feed `filename` to the program before stdin (can be specified multiple times)")
	noStdin := fs.Bool("nostdin", false, "do not read stdin after scripts")
	p, err := programArg(fs, args)
	if err != nil {
		return err
	}

	var in []io.Reader
	for _, s := range scripts {
		f, err := os.Open(s)
		if err != nil {
			return errors.Wrap(err, "open failed")
		}
		defer f.Close()
		in = append(in, f)
	}
	if !*noStdin {
		if isTerminal(os.Stdin) {
			in = append(in, os.Stdin)
		} else {
			// echo piped input so that the transcript reads like a session
			in = append(in, io.TeeReader(os.Stdin, os.Stdout))
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	v, err := ascii.Run(ctx, p, io.MultiReader(in...), os.Stdout)
	if err != nil {
		return err
	}
	_, err = fmt.Println(v)
	return err
}

func ampCmd(args []string) error {
	var (
		phases cellList
		fs     = newFlagSet("amp", "program")
	)
	fs.Var(&phases, "phases", "phase setting `values` (default 0,1,2,3,4 or 5,6,7,8,9 with -feedback)")
	feedback := fs.Bool("feedback", false, "run the amplifiers in a feedback loop")
	seed := fs.Int64("seed", 0, "initial input signal")
	table := fs.Bool("table", false, "print the signal for every ordering")
	jobs := fs.Int("j", 0, "concurrent chains (default number of CPUs)")
	cacheDir := fs.String("cache", "", "memoize results in `directory`")
	p, err := programArg(fs, args)
	if err != nil {
		return err
	}
	if len(phases) == 0 {
		phases = cellList{0, 1, 2, 3, 4}
		if *feedback {
			phases = cellList{5, 6, 7, 8, 9}
		}
	}
	cfg := amp.DefaultConfig()
	cfg.Feedback = *feedback
	cfg.Seed = vm.Cell(*seed)
	cfg.Logger = logger()
	if *jobs > 0 {
		cfg.Workers = *jobs
	}

	kind := "amp"
	if *feedback {
		kind = "amp-feedback"
	}
	c, err := openCache(*cacheDir)
	if err != nil {
		return err
	}
	var key []byte
	if c != nil {
		defer c.Close()
		key = cache.Key(store.ID(p), kind, append([]vm.Cell{cfg.Seed}, phases...)...)
		if !*table {
			if v, ok, err := c.Get(key); err != nil || ok {
				if err == nil {
					_, err = fmt.Println(v)
				}
				return err
			}
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := amp.Sweep(ctx, p, phases, cfg)
	if err != nil {
		return err
	}
	if *table {
		fmt.Print(amp.Report(res).Table())
	}
	best := res[0]
	for _, r := range res[1:] {
		if r.Signal > best.Signal {
			best = r
		}
	}
	if c != nil {
		if err = c.Put(key, best.Signal); err != nil {
			return err
		}
	}
	_, err = fmt.Printf("%d (phases %v)\n", best.Signal, vm.Program(best.Phases))
	return err
}

func netCmd(args []string) error {
	cfg := network.DefaultConfig()
	fs := newFlagSet("net", "program")
	fs.IntVar(&cfg.Size, "size", cfg.Size, "number of nodes")
	nat := fs.Int64("nat", int64(cfg.NATAddress), "NAT address")
	fs.IntVar(&cfg.IdleThreshold, "idle", cfg.IdleThreshold, "idle rounds before the NAT wakes up node 0")
	fs.IntVar(&cfg.MaxRounds, "max", 0, "maximum number of poll rounds, 0 for no limit")
	cacheDir := fs.String("cache", "", "memoize results in `directory`")
	p, err := programArg(fs, args)
	if err != nil {
		return err
	}
	cfg.NATAddress = vm.Cell(*nat)
	cfg.Logger = logger()

	c, err := openCache(*cacheDir)
	if err != nil {
		return err
	}
	var keys [2][]byte
	if c != nil {
		defer c.Close()
		params := []vm.Cell{vm.Cell(cfg.Size), cfg.NATAddress, vm.Cell(cfg.IdleThreshold)}
		id := store.ID(p)
		keys = [2][]byte{cache.Key(id, "net-first", params...), cache.Key(id, "net", params...)}
		first, ok1, err := c.Get(keys[0])
		if err != nil {
			return err
		}
		answer, ok2, err := c.Get(keys[1])
		if err != nil {
			return err
		}
		if ok1 && ok2 {
			_, err = fmt.Printf("first NAT packet Y: %d\nfirst repeated Y: %d\n", first, answer)
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := network.Run(ctx, p, cfg)
	if err != nil {
		return err
	}
	if c != nil {
		if err = c.Put(keys[0], res.FirstNATY); err == nil {
			err = c.Put(keys[1], res.Answer)
		}
		if err != nil {
			return err
		}
	}
	_, err = fmt.Printf("first NAT packet Y: %d\nfirst repeated Y: %d\n", res.FirstNATY, res.Answer)
	if err == nil && verbose {
		logger().Printf("%d rounds, %d packets, %d dropped, %d NAT deliveries", res.Rounds, res.Packets, res.Dropped, len(res.Deliveries))
	}
	return err
}

func asmCmd(args []string) error {
	fs := newFlagSet("asm", "source")
	outName := fs.String("o", "", "output `filename` (default stdout)")
	compress := fs.Bool("z", false, "zstd compress output")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(2)
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return errors.Wrap(err, "open failed")
	}
	defer f.Close()
	p, err := asm.Assemble(fs.Arg(0), bufio.NewReader(f))
	if err != nil {
		return err
	}
	if *outName != "" {
		return vm.Save(*outName, p, *compress)
	}
	w, done, err := output("")
	if err != nil {
		return err
	}
	if err = vm.Encode(w, p, *compress); err != nil {
		return err
	}
	return done()
}

func disasmCmd(args []string) error {
	fs := newFlagSet("disasm", "program")
	outName := fs.String("o", "", "output `filename` (default stdout)")
	p, err := programArg(fs, args)
	if err != nil {
		return err
	}
	w, done, err := output(*outName)
	if err != nil {
		return err
	}
	if err = asm.DisassembleAll(p, 0, w); err != nil {
		return err
	}
	return done()
}
