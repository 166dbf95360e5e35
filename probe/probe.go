// Package probe defines how the compressor obtains hardware observations.
//
// An Acquirer renders one alpha step with alpha-to-coverage enabled and
// returns the sample mask of every probed pixel. Collect drives an Acquirer
// across all Increments+1 steps, strictly in order, and returns the
// observations ready for a2c.Compress.
package probe

import (
	"context"
	"errors"

	"github.com/gogpu/a2c"
)

var (
	// ErrUnavailable reports that no device capable of running the probe
	// could be obtained. Generation must not start.
	ErrUnavailable = errors.New("probe: acquisition unavailable")

	// ErrAcquisition wraps any failure reported by an Acquirer mid-run.
	ErrAcquisition = errors.New("probe: acquisition failed")

	// ErrInvalidGrid reports a grid whose size or masks do not match the
	// probe parameters.
	ErrInvalidGrid = errors.New("probe: invalid coverage grid")
)

// Acquirer renders alpha step/total and returns the coverage grid.
type Acquirer interface {
	Acquire(ctx context.Context, step, total int) (a2c.Grid, error)
}

// BatchAcquirer is implemented by acquirers that can pipeline several steps
// into one submission. AcquireBatch returns count grids for steps
// first..first+count-1, in order.
type BatchAcquirer interface {
	Acquirer
	AcquireBatch(ctx context.Context, first, count, total int) ([]a2c.Grid, error)
}

// Labeler is implemented by acquirers that know which device they probe.
type Labeler interface {
	Label() string
}

// AcquirerFunc adapts a function to the Acquirer interface.
type AcquirerFunc func(ctx context.Context, step, total int) (a2c.Grid, error)

// Acquire calls f(ctx, step, total).
func (f AcquirerFunc) Acquire(ctx context.Context, step, total int) (a2c.Grid, error) {
	return f(ctx, step, total)
}

// LabelOf returns the device label of acq, or "" when it has none.
func LabelOf(acq Acquirer) string {
	if l, ok := acq.(Labeler); ok {
		return l.Label()
	}
	return ""
}
