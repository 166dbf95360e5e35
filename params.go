package a2c

import (
	"errors"
	"fmt"
)

// Default probe parameters, matching the on-device generator.
const (
	// DefaultSize is the probe render target size. It is the largest
	// pattern size the probe can detect.
	DefaultSize = 16

	// DefaultSampleCount is the multisample count of the probe target.
	DefaultSampleCount = 4

	// DefaultIncrements is the number of alpha steps between 0 and 1.
	DefaultIncrements = 25_000
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("a2c: invalid probe parameters")

// Params describes a hardware probe. The same parameters must be used to
// capture observations and to compress them.
type Params struct {
	// Size is the width and height of the probe grid in pixels.
	Size int

	// SampleCount is the number of samples per pixel (bits per mask).
	SampleCount int

	// Increments is the number of alpha steps. The probe renders
	// Increments+1 alphas from 0 to 1 inclusive.
	Increments int
}

// DefaultParams returns the parameters used by the on-device generator:
// 16x16 pixels, 4 samples, 25000 increments.
func DefaultParams() Params {
	return Params{
		Size:        DefaultSize,
		SampleCount: DefaultSampleCount,
		Increments:  DefaultIncrements,
	}
}

// Validate reports whether the parameters describe a usable probe.
func (p Params) Validate() error {
	switch {
	case p.Size < 1:
		return fmt.Errorf("%w: size=%d", ErrInvalidParams, p.Size)
	case p.SampleCount < 1 || p.SampleCount > 32:
		return fmt.Errorf("%w: sampleCount=%d", ErrInvalidParams, p.SampleCount)
	case p.Increments < 1:
		return fmt.Errorf("%w: increments=%d", ErrInvalidParams, p.Increments)
	}
	return nil
}

// Tolerance is the allowed error when fitting breakpoints: one probe step.
func (p Params) Tolerance() float64 {
	return 1 / float64(p.Increments)
}

// FullMask is the mask with every sample covered.
func (p Params) FullMask() uint32 {
	return fullMask(p.SampleCount)
}

// Alpha returns the alpha value probed at step.
func (p Params) Alpha(step int) float64 {
	return float64(step) / float64(p.Increments)
}

func fullMask(sampleCount int) uint32 {
	if sampleCount >= 32 {
		return 0xFFFFFFFF
	}
	return uint32(1)<<uint(sampleCount) - 1 //nolint:gosec // sampleCount validated to 1..32
}
