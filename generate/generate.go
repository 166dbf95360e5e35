// Package generate runs the on-device emulator generation: probe the
// device, compress the capture and store the result under
// database.GeneratedKey.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/a2c"
	"github.com/gogpu/a2c/database"
	"github.com/gogpu/a2c/probe"
)

var (
	// ErrNoStore is returned by Run when the Generator has no Store.
	ErrNoStore = errors.New("generate: nil store")

	// ErrNoAcquirer is returned by Run when a probe is needed and the
	// Generator has no Acquirer.
	ErrNoAcquirer = errors.New("generate: nil acquirer")
)

// Generator derives an emulator for the device behind Acquirer.
type Generator struct {
	Store    *database.Store
	Acquirer probe.Acquirer

	// Params defaults to a2c.DefaultParams when zero.
	Params a2c.Params

	// Label is emitted as the function's leading comment. When empty the
	// acquirer's label is used, if it has one.
	Label string

	// Progress, if set, receives collection progress.
	Progress func(probe.Progress)

	// Force re-probes even when GeneratedKey is already populated.
	Force bool
}

// Result is the outcome of a successful Run.
type Result struct {
	Function *a2c.Function

	// Runs are the extracted runs of the probe. Nil when Cached.
	Runs []a2c.Run

	// Cached reports that the stored emulator was returned without
	// probing.
	Cached bool
}

// Run returns the stored generated emulator if there is one. Otherwise it
// probes every alpha step, compresses the capture and stores the function
// under database.GeneratedKey. The store is only written after the whole
// pipeline succeeds.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	if g.Store == nil {
		return nil, ErrNoStore
	}
	if !g.Force {
		if fn, ok := g.Store.Function(database.GeneratedKey); ok {
			a2c.Logger().Info("generate: using stored emulator")
			return &Result{Function: fn, Cached: true}, nil
		}
	}
	if g.Acquirer == nil {
		return nil, ErrNoAcquirer
	}

	p := g.Params
	if p == (a2c.Params{}) {
		p = a2c.DefaultParams()
	}
	label := g.Label
	if label == "" {
		label = probe.LabelOf(g.Acquirer)
	}

	var opts []probe.Option
	if g.Progress != nil {
		opts = append(opts, probe.WithProgress(g.Progress))
	}
	a2c.Logger().Info("generate: probing device",
		"label", label, "size", p.Size, "samples", p.SampleCount, "increments", p.Increments)
	obs, err := probe.Collect(ctx, g.Acquirer, p, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	runs := a2c.ExtractRuns(obs)
	fn := a2c.CompressRuns(runs, p, a2c.WithLabel(label))
	if err := g.Store.Put(database.GeneratedKey, fn); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return &Result{Function: fn, Runs: runs}, nil
}
