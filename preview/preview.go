// Package preview draws an emulator function as a PNG sheet.
//
// The sheet has two parts. The top strip is an alpha ramp: column x is
// evaluated at alpha x/(width-1) for every pixel, shaded by the share of
// covered samples, and scaled up with nearest-neighbour filtering so the
// dither pattern stays visible. Below it, every clause (and the
// full-coverage default) is drawn as one PatternSize x PatternSize tile with
// a dot per sample, coloured when the sample is covered.
package preview

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"math/bits"

	"github.com/gogpu/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/a2c"
)

// ErrEmptyFunction is returned for a nil function or one without a
// sample count.
var ErrEmptyFunction = errors.New("preview: empty function")

// Option configures Render.
type Option func(*options)

type options struct {
	rampWidth  int
	rampHeight int
	scale      int
	cellSize   int
	padding    int
	background color.Color
	covered    color.Color
	uncovered  color.Color
}

func defaultOptions() options {
	return options{
		rampWidth:  128,
		rampHeight: 16,
		scale:      4,
		cellSize:   32,
		padding:    8,
		background: color.RGBA{R: 0x20, G: 0x20, B: 0x24, A: 0xff},
		covered:    color.White,
		uncovered:  color.Black,
	}
}

// WithRamp sets the alpha ramp size in unscaled pixels. Widths below 2 and
// heights below 1 are ignored.
func WithRamp(width, height int) Option {
	return func(o *options) {
		if width >= 2 {
			o.rampWidth = width
		}
		if height >= 1 {
			o.rampHeight = height
		}
	}
}

// WithScale sets the integer upscaling of the ramp.
func WithScale(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.scale = n
		}
	}
}

// WithCellSize sets the side of one pixel cell in the clause tiles.
func WithCellSize(px int) Option {
	return func(o *options) {
		if px >= 4 {
			o.cellSize = px
		}
	}
}

// WithBackground sets the sheet background.
func WithBackground(c color.Color) Option {
	return func(o *options) {
		if c != nil {
			o.background = c
		}
	}
}

// layout holds the pixel geometry of a sheet.
type layout struct {
	width, height int
	ramp          image.Rectangle
	tileSide      int
	perRow        int
	tiles         int
}

func newLayout(fn *a2c.Function, o options) layout {
	l := layout{
		tileSide: max(fn.PatternSize, 1) * o.cellSize,
		tiles:    len(fn.Clauses) + 1,
	}
	rampW := o.rampWidth * o.scale
	rampH := o.rampHeight * o.scale
	inner := max(rampW, l.tileSide)
	l.perRow = max(1, (inner+o.padding)/(l.tileSide+o.padding))
	rows := (l.tiles + l.perRow - 1) / l.perRow

	l.width = inner + 2*o.padding
	l.ramp = image.Rect(o.padding, o.padding, o.padding+rampW, o.padding+rampH)
	l.height = l.ramp.Max.Y + o.padding + rows*(l.tileSide+o.padding)
	return l
}

// tileOrigin returns the top-left corner of tile i.
func (l layout) tileOrigin(i int, o options) image.Point {
	col, row := i%l.perRow, i/l.perRow
	return image.Point{
		X: o.padding + col*(l.tileSide+o.padding),
		Y: l.ramp.Max.Y + o.padding + row*(l.tileSide+o.padding),
	}
}

// Render draws the preview sheet of fn.
func Render(fn *a2c.Function, opts ...Option) (image.Image, error) {
	dc, err := render(fn, opts)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// Encode writes the preview sheet of fn to w as PNG.
func Encode(w io.Writer, fn *a2c.Function, opts ...Option) error {
	dc, err := render(fn, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

func render(fn *a2c.Function, opts []Option) (*gg.Context, error) {
	if fn == nil || fn.SampleCount < 1 {
		return nil, ErrEmptyFunction
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := newLayout(fn, o)

	canvas := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(o.background), image.Point{}, xdraw.Src)
	ramp := rampImage(fn, o)
	xdraw.NearestNeighbor.Scale(canvas, l.ramp, ramp, ramp.Bounds(), xdraw.Src, nil)

	dc := gg.NewContextForImage(canvas)
	for i := 0; i < l.tiles; i++ {
		if err := drawTile(dc, fn, i, l.tileOrigin(i, o), o); err != nil {
			_ = dc.Close()
			return nil, err
		}
	}
	a2c.Logger().Debug("preview: rendered sheet",
		"width", l.width, "height", l.height, "tiles", l.tiles)
	return dc, nil
}

// rampImage evaluates fn per pixel at one alpha per column.
func rampImage(fn *a2c.Function, o options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, o.rampWidth, o.rampHeight))
	lo, _ := colorful.MakeColor(o.uncovered)
	hi, _ := colorful.MakeColor(o.covered)
	for x := 0; x < o.rampWidth; x++ {
		alpha := float64(x) / float64(o.rampWidth-1)
		for y := 0; y < o.rampHeight; y++ {
			share := float64(bits.OnesCount32(fn.Mask(alpha, x, y))) / float64(fn.SampleCount)
			img.Set(x, y, lo.BlendRgb(hi, share).Clamped())
		}
	}
	return img
}

// tileMasks returns the masks drawn for tile i: clause i, or the default
// full mask past the last clause.
func tileMasks(fn *a2c.Function, i int) []uint32 {
	if i < len(fn.Clauses) {
		return fn.Clauses[i].Masks
	}
	n := max(fn.PatternSize, 1)
	masks := make([]uint32, n*n)
	for j := range masks {
		masks[j] = fn.FullMask()
	}
	return masks
}

func drawTile(dc *gg.Context, fn *a2c.Function, i int, at image.Point, o options) error {
	n := max(fn.PatternSize, 1)
	masks := tileMasks(fn, i)
	cell := float64(o.cellSize)

	for py := 0; py < n; py++ {
		for px := 0; px < n; px++ {
			x := float64(at.X) + float64(px)*cell
			y := float64(at.Y) + float64(py)*cell
			dc.SetColor(cellColor(px, py))
			dc.DrawRectangle(x, y, cell, cell)
			if err := dc.Fill(); err != nil {
				return err
			}

			mask := masks[py*n+px]
			for s := 0; s < fn.SampleCount; s++ {
				cx, cy, r := samplePosition(s, fn.SampleCount, cell)
				dc.SetColor(sampleColor(s, fn.SampleCount, mask&(1<<uint(s)) != 0))
				dc.DrawCircle(x+cx, y+cy, r)
				if err := dc.Fill(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// cellColor alternates two greys so tile cells stay distinguishable.
func cellColor(x, y int) color.Color {
	if (x+y)%2 == 0 {
		return colorful.Hcl(0, 0, 0.22)
	}
	return colorful.Hcl(0, 0, 0.28)
}

// samplePosition places sample s of n on a near-square grid inside a cell
// and returns its centre and dot radius.
func samplePosition(s, n int, cell float64) (cx, cy, r float64) {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	col, row := s%cols, s/cols
	cx = (float64(col) + 0.5) * cell / float64(cols)
	cy = (float64(row) + 0.5) * cell / float64(rows)
	r = cell / float64(max(cols, rows)) * 0.35
	return cx, cy, r
}

// sampleColor gives every sample index its own hue; uncovered samples are
// drawn as a dark version of it.
func sampleColor(s, n int, covered bool) color.Color {
	h := 360 * float64(s) / float64(n)
	if covered {
		return colorful.Hcl(h, 0.6, 0.75).Clamped()
	}
	return colorful.Hcl(h, 0.15, 0.35).Clamped()
}
