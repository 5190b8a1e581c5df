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

package amp

import (
	"context"
	"log"
	"runtime"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rocketlaunchr/dataframe-go"
	"golang.org/x/sync/errgroup"

	"github.com/db47h/intcode/vm"
)

// Config configures phase sweeps.
type Config struct {
	Feedback bool        // run amplifiers in a feedback loop
	Seed     vm.Cell     // initial input signal
	Workers  int         // concurrent chains, <= 0 means runtime.NumCPU()
	Logger   *log.Logger // optional
}

// DefaultConfig returns the configuration of a linear chain with a zero seed.
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

// Result is the output signal obtained for one ordering of phase settings.
type Result struct {
	Phases []vm.Cell
	Signal vm.Cell
}

// Permutations returns all orderings of set in lexicographic order. Repeated
// values yield each distinct ordering once.
func Permutations(set []vm.Cell) [][]vm.Cell {
	a := append([]vm.Cell(nil), set...)
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	var res [][]vm.Cell
	for {
		res = append(res, append([]vm.Cell(nil), a...))
		// next permutation
		i := len(a) - 2
		for i >= 0 && a[i] >= a[i+1] {
			i--
		}
		if i < 0 {
			return res
		}
		j := len(a) - 1
		for a[j] <= a[i] {
			j--
		}
		a[i], a[j] = a[j], a[i]
		for l, r := i+1, len(a)-1; l < r; l, r = l+1, r-1 {
			a[l], a[r] = a[r], a[l]
		}
	}
}

// Sweep runs the amplifiers for every ordering of the phase settings in set
// and returns the results in lexicographic order of the phases.
func Sweep(ctx context.Context, p vm.Program, set []vm.Cell, cfg Config) ([]Result, error) {
	if len(set) == 0 {
		return nil, errors.New("empty phase set")
	}
	run := Chain
	if cfg.Feedback {
		run = Feedback
	}
	perms := Permutations(set)
	res := make([]Result, len(perms))
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	t := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k, ph := range perms {
		k, ph := k, ph
		g.Go(func() error {
			v, err := run(gctx, p, ph, cfg.Seed)
			if err != nil {
				return errors.Wrapf(err, "phases %v", ph)
			}
			res[k] = Result{Phases: ph, Signal: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if cfg.Logger != nil {
		cfg.Logger.Printf("amp: %d orderings of %v in %v", len(perms), set, time.Since(t))
	}
	return res, nil
}

// Max returns the ordering of phase settings that yields the highest signal.
// On ties, the first ordering in lexicographic order wins.
func Max(ctx context.Context, p vm.Program, set []vm.Cell, cfg Config) (Result, error) {
	res, err := Sweep(ctx, p, set, cfg)
	if err != nil {
		return Result{}, err
	}
	best := res[0]
	for _, r := range res[1:] {
		if r.Signal > best.Signal {
			best = r
		}
	}
	return best, nil
}

// Report returns sweep results as a data frame with a "phases" and a "signal"
// column, sorted by decreasing signal.
func Report(res []Result) *dataframe.DataFrame {
	sorted := append([]Result(nil), res...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Signal > sorted[j].Signal })
	df := dataframe.NewDataFrame(
		dataframe.NewSeriesString("phases", nil),
		dataframe.NewSeriesInt64("signal", nil),
	)
	for _, r := range sorted {
		df.Append(nil, vm.Program(r.Phases).String(), int64(r.Signal))
	}
	return df
}
