// Package capture stores the runs of a probe so compression can be re-run
// offline, on another machine or with a newer compressor.
//
// A capture file is the 4-byte magic "A2CR" followed by one zstd frame.
// The frame holds a version byte, the probe parameters and run count as
// uvarints, the run start steps as uvarint deltas, and finally every run's
// masks bit-packed MSB-first with SampleCount bits per pixel.
package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"

	"github.com/32bitkid/bitreader"

	"github.com/gogpu/a2c"
)

const (
	magic   = "A2CR"
	version = 1

	// tailPadding zero bytes follow the bit stream so the reader can
	// prefetch past the last mask.
	tailPadding = 8
)

// MaxSize is the largest probe grid side a capture can hold.
const MaxSize = 4096

var (
	// ErrBadMagic is returned when the input is not a capture file.
	ErrBadMagic = errors.New("capture: not a capture file")

	// ErrVersion is returned for capture files written by a newer format.
	ErrVersion = errors.New("capture: unsupported version")

	// ErrCorrupt is returned when a capture file is truncated or
	// inconsistent.
	ErrCorrupt = errors.New("capture: corrupt capture")

	// ErrInvalid is returned by Write for runs that do not match the
	// parameters.
	ErrInvalid = errors.New("capture: invalid runs")
)

// Capture is the run sequence of one probe together with the parameters
// it was taken with.
type Capture struct {
	Params a2c.Params

	// Label names the probed device. It may be empty.
	Label string

	Runs []a2c.Run
}

// FromObservations builds a capture from an ordered probe.
func FromObservations(p a2c.Params, label string, obs []a2c.Observation) *Capture {
	return &Capture{Params: p, Label: label, Runs: a2c.ExtractRuns(obs)}
}

// Compress derives the emulator function of the capture. The capture's
// label is used unless opts override it.
func (c *Capture) Compress(opts ...a2c.CompressOption) *a2c.Function {
	opts = append([]a2c.CompressOption{a2c.WithLabel(c.Label)}, opts...)
	return a2c.CompressRuns(c.Runs, c.Params, opts...)
}

// checkParams rejects parameters Write would not produce.
func checkParams(p a2c.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Size > MaxSize {
		return fmt.Errorf("%w: size=%d above %d", a2c.ErrInvalidParams, p.Size, MaxSize)
	}
	return nil
}

func (c *Capture) validate() error {
	if err := checkParams(c.Params); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	full := c.Params.FullMask()
	prev := -1
	for i, r := range c.Runs {
		if r.StartStep <= prev || r.StartStep > c.Params.Increments {
			return fmt.Errorf("%w: run %d starts at step %d after %d", ErrInvalid, i, r.StartStep, prev)
		}
		prev = r.StartStep
		if r.Pattern.Size != c.Params.Size || len(r.Pattern.Masks) != c.Params.Size*c.Params.Size {
			return fmt.Errorf("%w: run %d has a %dx%d grid, want %d", ErrInvalid, i,
				r.Pattern.Size, r.Pattern.Size, c.Params.Size)
		}
		for _, m := range r.Pattern.Masks {
			if m&^full != 0 {
				return fmt.Errorf("%w: run %d mask %#x exceeds %d samples", ErrInvalid, i, m, c.Params.SampleCount)
			}
		}
	}
	return nil
}

// Write encodes c to w.
func Write(w io.Writer, c *Capture) error {
	if err := c.validate(); err != nil {
		return err
	}

	var payload []byte
	payload = append(payload, version)
	payload = binary.AppendUvarint(payload, uint64(c.Params.Size))        //nolint:gosec // validated positive
	payload = binary.AppendUvarint(payload, uint64(c.Params.SampleCount)) //nolint:gosec // validated positive
	payload = binary.AppendUvarint(payload, uint64(c.Params.Increments))  //nolint:gosec // validated positive
	payload = binary.AppendUvarint(payload, uint64(len(c.Label)))
	payload = append(payload, c.Label...)
	payload = binary.AppendUvarint(payload, uint64(len(c.Runs)))
	prev := 0
	for _, r := range c.Runs {
		payload = binary.AppendUvarint(payload, uint64(r.StartStep-prev)) //nolint:gosec // steps increase
		prev = r.StartStep
	}

	bw := bitWriter{buf: payload}
	width := uint(c.Params.SampleCount) //nolint:gosec // validated 1..32
	for _, r := range c.Runs {
		for _, m := range r.Pattern.Masks {
			bw.write(m, width)
		}
	}
	payload = append(bw.flush(), make([]byte, tailPadding)...)

	compressed, err := compressZstd(payload)
	if err != nil {
		return fmt.Errorf("capture: zstd encode: %w", err)
	}
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

// Read decodes a capture written by Write.
func Read(r io.Reader) (*Capture, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil || string(head) != magic {
		return nil, ErrBadMagic
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	payload, err := decompressZstd(body)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decode: %w", ErrCorrupt, err)
	}

	br := bytes.NewReader(payload)
	v, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: missing version", ErrCorrupt)
	}
	if v != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	var header [4]uint64
	for i := range header {
		if header[i], err = binary.ReadUvarint(br); err != nil {
			return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
		}
	}
	if header[0] > MaxSize {
		return nil, fmt.Errorf("%w: size %d above %d", ErrCorrupt, header[0], MaxSize)
	}
	c := &Capture{Params: a2c.Params{
		Size:        int(header[0]), //nolint:gosec // bounded by MaxSize
		SampleCount: int(header[1]), //nolint:gosec // checked by checkParams below
		Increments:  int(header[2]), //nolint:gosec // checked by checkParams below
	}}
	if err := checkParams(c.Params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if header[3] > uint64(br.Len()) {
		return nil, fmt.Errorf("%w: label length %d", ErrCorrupt, header[3])
	}
	label := make([]byte, header[3])
	if _, err := io.ReadFull(br, label); err != nil {
		return nil, fmt.Errorf("%w: label: %w", ErrCorrupt, err)
	}
	c.Label = string(label)

	count, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("%w: run count: %w", ErrCorrupt, err)
	}
	if count > uint64(c.Params.Increments)+1 {
		return nil, fmt.Errorf("%w: %d runs for %d increments", ErrCorrupt, count, c.Params.Increments)
	}
	// Every start delta takes at least one byte.
	if count > uint64(br.Len()) {
		return nil, fmt.Errorf("%w: %d runs in %d bytes", ErrCorrupt, count, br.Len())
	}

	c.Runs = make([]a2c.Run, count)
	step := 0
	for i := range c.Runs {
		d, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("%w: run %d start: %w", ErrCorrupt, i, err)
		}
		step += int(d) //nolint:gosec // range checked by validate
		c.Runs[i].StartStep = step
		c.Runs[i].StartAlpha = c.Params.Alpha(step)
	}

	width := uint(c.Params.SampleCount) //nolint:gosec // validated 1..32
	pixels := uint64(c.Params.Size) * uint64(c.Params.Size)
	hi, total := bits.Mul64(count, pixels*uint64(width))
	need := total/8 + tailPadding
	if total%8 != 0 {
		need++
	}
	if hi != 0 || uint64(br.Len()) < need {
		return nil, fmt.Errorf("%w: mask data truncated", ErrCorrupt)
	}
	masks := bitreader.NewReader(br)
	for i := range c.Runs {
		g := a2c.NewGrid(c.Params.Size)
		for j := range g.Masks {
			m, err := masks.Read32(width)
			if err != nil {
				return nil, fmt.Errorf("%w: run %d masks: %w", ErrCorrupt, i, err)
			}
			g.Masks[j] = m
		}
		c.Runs[i].Pattern = g
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return c, nil
}

// WriteFile writes c to the named file.
func WriteFile(name string, c *Capture) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, c)
}

// ReadFile reads a capture from the named file.
func ReadFile(name string) (*Capture, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
