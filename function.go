package a2c

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultFunctionName is the WGSL name of emitted emulator functions. The
// visualization shaders call it by this name.
const DefaultFunctionName = "emulatedAlphaToCoverage"

// Clause is one piece of an emulator function: while alpha is below
// Numerator/HalfDenominator, return Masks indexed by tile coordinate.
type Clause struct {
	Numerator float64

	// Masks holds PatternSize*PatternSize masks in row-major tile order.
	Masks []uint32
}

// Function is a closed-form emulation of a device's alpha-to-coverage:
// (alpha, x, y) -> sample mask. It is immutable once built.
type Function struct {
	// Name is the WGSL function name.
	Name string

	// Label identifies the device the function was derived from. It is
	// emitted as a leading comment.
	Label string

	SampleCount int

	// PatternSize is the side of the repeating pixel tile. 1 means the
	// mask does not depend on the pixel position.
	PatternSize int

	Threshold ThresholdModel

	// Clauses are ordered by increasing threshold. Alphas past the last
	// clause return the full mask.
	Clauses []Clause
}

// FullMask returns the default clause's mask (every sample covered).
func (f *Function) FullMask() uint32 {
	return fullMask(f.SampleCount)
}

// Bound returns the alpha threshold of clause i.
func (f *Function) Bound(i int) float64 {
	return f.Clauses[i].Numerator / float64(f.Threshold.HalfDenominator)
}

// Mask evaluates the function at alpha for pixel (x, y).
func (f *Function) Mask(alpha float64, x, y int) uint32 {
	idx := 0
	if f.PatternSize > 1 {
		idx = wrap(y, f.PatternSize)*f.PatternSize + wrap(x, f.PatternSize)
	}
	for i := range f.Clauses {
		bound := f.Bound(i)
		below := alpha < bound
		if f.Threshold.TieBreakDownward {
			below = alpha <= bound
		}
		if below {
			return f.Clauses[i].Masks[idx]
		}
	}
	return f.FullMask()
}

// Grid evaluates the function at alpha over a size x size pixel grid, the
// way a probe would observe it.
func (f *Function) Grid(alpha float64, size int) Grid {
	g := NewGrid(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			g.Set(x, y, f.Mask(alpha, x, y))
		}
	}
	return g
}

func wrap(v, m int) int {
	return ((v % m) + m) % m
}

// WGSL renders the function as a self-contained WGSL function taking
// (alpha: f32, xy: vec2u) and returning the sample mask.
func (f *Function) WGSL() string {
	var b strings.Builder
	if f.Label != "" {
		fmt.Fprintf(&b, "// %s\n", f.Label)
	}
	name := f.Name
	if name == "" {
		name = DefaultFunctionName
	}
	fmt.Fprintf(&b, "fn %s(alpha: f32, xy: vec2u) -> u32 {\n", name)
	s := f.PatternSize
	if s > 1 {
		fmt.Fprintf(&b, "  let i = (xy.y %% %d) * %d + (xy.x %% %d);\n", s, s, s)
	}
	cmp := f.Threshold.Comparison()
	for _, c := range f.Clauses {
		fraction := strconv.FormatFloat(c.Numerator, 'f', -1, 64) + " / " +
			strconv.Itoa(f.Threshold.HalfDenominator) + ".0"
		fmt.Fprintf(&b, "  if alpha %s %s { return %s; }\n", cmp, fraction, maskExpr(c.Masks, s))
	}
	fmt.Fprintf(&b, "  return %s;\n}", hexMask(f.FullMask()))
	return b.String()
}

func maskExpr(masks []uint32, patternSize int) string {
	if patternSize == 1 {
		return hexMask(masks[0])
	}
	elems := make([]string, len(masks))
	for i, m := range masks {
		elems[i] = hexMask(m)
	}
	return "array(" + strings.Join(elems, ", ") + "u)[i]"
}

func hexMask(m uint32) string {
	return "0x" + strconv.FormatUint(uint64(m), 16)
}
