// Package compiler drives one or many RGOS files through parse, build and
// convert, and records per-unit metrics.
package compiler

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/newtron-network/rgosc/pkg/builder"
	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/convert"
	"github.com/newtron-network/rgosc/pkg/grammar"
	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
	"github.com/newtron-network/rgosc/pkg/warnings"
)

// Unit is one configuration text to compile. Name identifies it in logs and
// results, usually the file path or the fetched host.
type Unit struct {
	Name string
	Text string
}

// ReadUnit loads a unit from a file.
func ReadUnit(path string) (Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Unit{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Unit{Name: path, Text: string(data)}, nil
}

// Result is the outcome of compiling one unit. Err is set only when the
// unit hit an internal invariant violation; Config is nil in that case.
type Result struct {
	Unit     Unit
	Vendor   *rgos.Configuration
	Config   *canonical.Configuration
	Refs     *refs.Tracker
	Silent   *grammar.SilentSyntaxCollection
	Warnings *warnings.Warnings
	Duration time.Duration
	Err      error
}

// Hostname returns the compiled hostname, or the unit name when the unit
// failed before a hostname was known.
func (r *Result) Hostname() string {
	if r.Config != nil && r.Config.Hostname != "" {
		return r.Config.Hostname
	}
	if r.Vendor != nil && r.Vendor.Hostname != "" {
		return r.Vendor.Hostname
	}
	return r.Unit.Name
}

// Options controls batch compilation.
type Options struct {
	// Workers bounds concurrent units; values below 1 mean one.
	Workers int

	// Metrics, when set, receives one observation per unit.
	Metrics *Metrics
}

// Compile runs one unit through the pipeline. It never returns nil.
func Compile(ctx context.Context, u Unit) *Result {
	res := &Result{Unit: u, Warnings: warnings.New(), Silent: grammar.NewSilentSyntaxCollection()}
	log := util.WithUnit(u.Name)

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	res.Err = runPipeline(u, res)
	res.Duration = time.Since(start)

	if res.Err != nil {
		log.WithError(res.Err).Error("compilation failed")
		return res
	}
	log.WithFields(map[string]interface{}{
		"hostname":      res.Hostname(),
		"duration":      res.Duration,
		"red_flags":     len(res.Warnings.RedFlags),
		"unimplemented": len(res.Warnings.Unimplemented),
		"parse":         len(res.Warnings.ParseWarnings),
	}).Info("compiled")
	return res
}

// runPipeline is swapped in tests.
var runPipeline = compile

func compile(u Unit, res *Result) (err error) {
	defer util.RecoverInvariant(&err)

	tree := grammar.Parse(u.Text)
	res.Vendor, res.Refs = builder.Build(tree, res.Warnings, res.Silent)
	util.WithUnit(u.Name).Debugf("built %s from %d lines", res.Vendor.Hostname, tree.Lines)

	res.Config, err = convert.Convert(res.Vendor, res.Warnings)
	if err != nil {
		res.Config = nil
		return fmt.Errorf("converting %s: %w", u.Name, err)
	}
	return nil
}

// CompileAll compiles units concurrently and returns results in input
// order. A failing unit never cancels its siblings; cancelling ctx stops
// units that have not started yet, which then carry ctx's error.
func CompileAll(ctx context.Context, units []Unit, opts Options) []*Result {
	results := make([]*Result, len(units))
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range units {
		i := i
		g.Go(func() error {
			res := Compile(ctx, units[i])
			if opts.Metrics != nil {
				opts.Metrics.Observe(res)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed counts results carrying an error.
func Failed(results []*Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
