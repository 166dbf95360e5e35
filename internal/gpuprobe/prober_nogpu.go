//go:build nogpu

package gpuprobe

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/a2c"
	"github.com/gogpu/a2c/probe"
)

// ErrClosed is returned by a Prober used after Close.
var ErrClosed = errors.New("gpuprobe: prober closed")

var errNoGPU = fmt.Errorf("%w: built with nogpu", probe.ErrUnavailable)

// Prober is unavailable in nogpu builds.
type Prober struct{}

// Open always fails in nogpu builds.
func Open(a2c.Params) (*Prober, error) { return nil, errNoGPU }

// NewFromProvider always fails in nogpu builds.
func NewFromProvider(gpucontext.DeviceProvider, a2c.Params) (*Prober, error) {
	return nil, errNoGPU
}

func (*Prober) Acquire(context.Context, int, int) (a2c.Grid, error) {
	return a2c.Grid{}, errNoGPU
}

func (*Prober) AcquireBatch(context.Context, int, int, int) ([]a2c.Grid, error) {
	return nil, errNoGPU
}

func (*Prober) Label() string { return "" }

func (*Prober) Params() a2c.Params { return a2c.Params{} }

func (*Prober) Close() {}
