package probe

import (
	"context"
	"fmt"

	"github.com/gogpu/a2c"
)

// DefaultBatchSize is the number of steps between progress reports.
const DefaultBatchSize = 1000

// Progress is reported after each batch of steps.
type Progress struct {
	// Done is the number of observations collected so far.
	Done int

	// Total is Increments+1.
	Total int
}

// Percent returns the completed share in [0, 100].
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return 100 * float64(p.Done) / float64(p.Total)
}

// Option configures Collect.
type Option func(*collectOptions)

type collectOptions struct {
	batchSize int
	progress  func(Progress)
}

func defaultCollectOptions() collectOptions {
	return collectOptions{batchSize: DefaultBatchSize}
}

// WithProgress registers a callback invoked after every batch.
func WithProgress(fn func(Progress)) Option {
	return func(o *collectOptions) {
		o.progress = fn
	}
}

// WithBatchSize sets how many steps are acquired between progress reports.
// A BatchAcquirer receives batches of this size. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(o *collectOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// Collect acquires every step from 0 to p.Increments in order. Any
// acquisition error aborts the run; no partial result is returned.
func Collect(ctx context.Context, acq Acquirer, p a2c.Params, opts ...Option) ([]a2c.Observation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := defaultCollectOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := a2c.Logger()
	total := p.Increments + 1
	obs := make([]a2c.Observation, 0, total)
	batcher, batched := acq.(BatchAcquirer)

	for first := 0; first < total; first += o.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("probe: collect stopped at step %d: %w", first, err)
		}
		count := min(o.batchSize, total-first)

		grids, err := acquireRange(ctx, acq, batcher, batched, first, count, p.Increments)
		if err != nil {
			return nil, err
		}
		for i, g := range grids {
			step := first + i
			if err := checkGrid(g, p); err != nil {
				return nil, fmt.Errorf("step %d: %w", step, err)
			}
			obs = append(obs, a2c.Observation{Step: step, Alpha: p.Alpha(step), Grid: g})
		}

		prog := Progress{Done: len(obs), Total: total}
		log.Info("probe: progress", "alpha", fmt.Sprintf("%.0f%%", prog.Percent()))
		if o.progress != nil {
			o.progress(prog)
		}
	}
	return obs, nil
}

func acquireRange(ctx context.Context, acq Acquirer, batcher BatchAcquirer, batched bool, first, count, increments int) ([]a2c.Grid, error) {
	if batched {
		grids, err := batcher.AcquireBatch(ctx, first, count, increments)
		if err != nil {
			return nil, fmt.Errorf("%w: steps %d-%d: %w", ErrAcquisition, first, first+count-1, err)
		}
		if len(grids) != count {
			return nil, fmt.Errorf("%w: steps %d-%d: got %d grids, want %d",
				ErrAcquisition, first, first+count-1, len(grids), count)
		}
		return grids, nil
	}

	grids := make([]a2c.Grid, 0, count)
	for step := first; step < first+count; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("probe: collect stopped at step %d: %w", step, err)
		}
		g, err := acq.Acquire(ctx, step, increments)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %w", ErrAcquisition, step, err)
		}
		grids = append(grids, g)
	}
	return grids, nil
}

func checkGrid(g a2c.Grid, p a2c.Params) error {
	if g.Size != p.Size || len(g.Masks) != p.Size*p.Size {
		return fmt.Errorf("%w: size %d with %d masks, want %d", ErrInvalidGrid, g.Size, len(g.Masks), p.Size)
	}
	full := p.FullMask()
	for i, m := range g.Masks {
		if m&^full != 0 {
			return fmt.Errorf("%w: mask %#x at pixel %d exceeds %d samples", ErrInvalidGrid, m, i, p.SampleCount)
		}
	}
	return nil
}
