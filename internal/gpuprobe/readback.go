package gpuprobe

import "github.com/gogpu/a2c"

// copyPitchAlignment is the required BytesPerRow alignment for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// sliceLayout describes where one resolved RGBA8 slice lives in the staging
// buffer.
type sliceLayout struct {
	size        int
	bytesPerRow int // aligned
	sliceBytes  int
}

func newSliceLayout(size int) sliceLayout {
	row := (size*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	return sliceLayout{size: size, bytesPerRow: row, sliceBytes: row * size}
}

// decodeGrids turns steps*samples resolved slices, ordered step-major, into
// coverage grids. A sample is covered when the red channel of its slice is
// non-zero.
func decodeGrids(data []byte, l sliceLayout, steps, samples int) []a2c.Grid {
	grids := make([]a2c.Grid, steps)
	for i := range grids {
		g := a2c.NewGrid(l.size)
		for s := 0; s < samples; s++ {
			base := (i*samples + s) * l.sliceBytes
			for y := 0; y < l.size; y++ {
				row := base + y*l.bytesPerRow
				for x := 0; x < l.size; x++ {
					if data[row+x*4] != 0 {
						g.Set(x, y, g.At(x, y)|1<<uint(s))
					}
				}
			}
		}
		grids[i] = g
	}
	return grids
}
