package preview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/gogpu/a2c"
	"github.com/gogpu/a2c/database"
)

func catalogFunction(t *testing.T, key string) *a2c.Function {
	t.Helper()
	fn, ok := database.Builtin().Function(key)
	if !ok {
		t.Fatalf("catalog entry %q missing", key)
	}
	return fn
}

// near reports whether two colors match within tol per 8-bit channel.
func near(a, b color.Color, tol int) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	for _, d := range []int{
		int(ar>>8) - int(br>>8),
		int(ag>>8) - int(bg>>8),
		int(ab>>8) - int(bb>>8),
		int(aa>>8) - int(ba>>8),
	} {
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}

func TestNewLayout(t *testing.T) {
	tests := []struct {
		key    string
		width  int
		perRow int
	}{
		// 1x1 tiles of 32px.
		{database.IntelHDGraphics4400, 528, 13},
		// 4x4 tiles of 128px.
		{database.QualcommAdreno630, 528, 3},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			l := newLayout(catalogFunction(t, tt.key), defaultOptions())
			if l.width != tt.width || l.perRow != tt.perRow {
				t.Errorf("width = %d perRow = %d, want %d %d", l.width, l.perRow, tt.width, tt.perRow)
			}
			rows := (l.tiles + l.perRow - 1) / l.perRow
			if want := 80 + rows*(l.tileSide+8); l.height != want {
				t.Errorf("height = %d, want %d", l.height, want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	fn := catalogFunction(t, database.IntelHDGraphics4400)
	img, err := Render(fn)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 528 || b.Dy() != 120 {
		t.Fatalf("bounds = %v, want 528x120", b)
	}

	// Alpha 0 covers nothing, alpha 1 covers every sample.
	if c := img.At(8, 8); !near(c, color.Black, 2) {
		t.Errorf("ramp start = %v, want black", c)
	}
	if c := img.At(8+511, 8+63); !near(c, color.White, 2) {
		t.Errorf("ramp end = %v, want white", c)
	}
	// Background shows through the padding.
	if c := img.At(2, 2); !near(c, defaultOptions().background, 2) {
		t.Errorf("padding = %v, want background", c)
	}

	// Sample 0 sits at the centre of the top-left quadrant of the cell.
	first := image.Point{X: 8 + 8, Y: 80 + 8}
	if c := img.At(first.X, first.Y); !near(c, sampleColor(0, 4, false), 3) {
		t.Errorf("clause 0 sample 0 = %v, want uncovered", c)
	}
	last := image.Point{X: 8 + 4*40 + 8, Y: 80 + 8}
	if c := img.At(last.X, last.Y); !near(c, sampleColor(0, 4, true), 3) {
		t.Errorf("default sample 0 = %v, want covered", c)
	}
}

func TestRender_Options(t *testing.T) {
	fn := catalogFunction(t, database.ARMMaliG78)
	img, err := Render(fn, WithRamp(64, 8), WithScale(2), WithCellSize(16), WithBackground(color.White))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	l := newLayout(fn, options{rampWidth: 64, rampHeight: 8, scale: 2, cellSize: 16, padding: 8})
	if b := img.Bounds(); b.Dx() != l.width || b.Dy() != l.height {
		t.Errorf("bounds = %v, want %dx%d", b, l.width, l.height)
	}
	if c := img.At(1, 1); !near(c, color.White, 2) {
		t.Errorf("background = %v, want white", c)
	}
}

func TestEncode(t *testing.T) {
	fn := catalogFunction(t, database.NVIDIAGeForceRTX3070)
	var buf bytes.Buffer
	if err := Encode(&buf, fn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	want := newLayout(fn, defaultOptions())
	if b := img.Bounds(); b.Dx() != want.width || b.Dy() != want.height {
		t.Errorf("bounds = %v, want %dx%d", b, want.width, want.height)
	}
}

func TestRender_Empty(t *testing.T) {
	if _, err := Render(nil); !errors.Is(err, ErrEmptyFunction) {
		t.Errorf("Render(nil) = %v, want ErrEmptyFunction", err)
	}
	if err := Encode(&bytes.Buffer{}, &a2c.Function{}); !errors.Is(err, ErrEmptyFunction) {
		t.Errorf("Encode(zero) = %v, want ErrEmptyFunction", err)
	}
}

func TestSamplePosition(t *testing.T) {
	tests := []struct {
		s, n      int
		cx, cy, r float64
	}{
		{0, 1, 16, 16, 11.2},
		{0, 4, 8, 8, 5.6},
		{3, 4, 24, 24, 5.6},
		{1, 2, 24, 16, 5.6},
	}
	for _, tt := range tests {
		cx, cy, r := samplePosition(tt.s, tt.n, 32)
		if cx != tt.cx || cy != tt.cy || r != tt.r {
			t.Errorf("samplePosition(%d, %d) = %v %v %v, want %v %v %v",
				tt.s, tt.n, cx, cy, r, tt.cx, tt.cy, tt.r)
		}
	}
}
