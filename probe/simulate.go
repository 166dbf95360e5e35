package probe

import (
	"context"

	"github.com/gogpu/a2c"
)

// Simulator is an Acquirer backed by an emulator function instead of a GPU.
// It is used to regenerate catalog entries and to test the pipeline.
type Simulator struct {
	fn   *a2c.Function
	size int
}

// FromFunction returns a Simulator that observes fn over a size x size grid.
func FromFunction(fn *a2c.Function, size int) *Simulator {
	return &Simulator{fn: fn, size: size}
}

// Acquire evaluates the function at alpha step/total.
func (s *Simulator) Acquire(ctx context.Context, step, total int) (a2c.Grid, error) {
	if err := ctx.Err(); err != nil {
		return a2c.Grid{}, err
	}
	return s.fn.Grid(float64(step)/float64(total), s.size), nil
}

// AcquireBatch evaluates count consecutive steps.
func (s *Simulator) AcquireBatch(ctx context.Context, first, count, total int) ([]a2c.Grid, error) {
	grids := make([]a2c.Grid, count)
	for i := range grids {
		g, err := s.Acquire(ctx, first+i, total)
		if err != nil {
			return nil, err
		}
		grids[i] = g
	}
	return grids, nil
}

// Label returns the simulated function's label.
func (s *Simulator) Label() string {
	return s.fn.Label
}
