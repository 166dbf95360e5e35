package a2c

import "slices"

// Grid is a square, row-major array of per-pixel sample masks as read back
// from one probe render.
type Grid struct {
	Size  int
	Masks []uint32
}

// NewGrid returns a size x size grid with every mask zero.
func NewGrid(size int) Grid {
	return Grid{Size: size, Masks: make([]uint32, size*size)}
}

// UniformGrid returns a size x size grid with every pixel set to mask.
func UniformGrid(size int, mask uint32) Grid {
	g := NewGrid(size)
	for i := range g.Masks {
		g.Masks[i] = mask
	}
	return g
}

// GridFromRows builds a grid from rows of masks. All rows must have the same
// length as the number of rows.
func GridFromRows(rows [][]uint32) Grid {
	g := NewGrid(len(rows))
	for y, row := range rows {
		if len(row) != g.Size {
			panic("a2c: GridFromRows requires a square grid")
		}
		copy(g.Masks[y*g.Size:], row)
	}
	return g
}

// At returns the mask at pixel (x, y).
func (g Grid) At(x, y int) uint32 {
	return g.Masks[y*g.Size+x]
}

// Set stores mask at pixel (x, y).
func (g Grid) Set(x, y int, mask uint32) {
	g.Masks[y*g.Size+x] = mask
}

// Equal reports whether both grids have the same size and masks.
func (g Grid) Equal(o Grid) bool {
	return g.Size == o.Size && slices.Equal(g.Masks, o.Masks)
}

// Block returns the top-left s x s block in row-major order. Pixels past
// the grid edge read as zero.
func (g Grid) Block(s int) []uint32 {
	out := make([]uint32, 0, s*s)
	for y := 0; y < s; y++ {
		for x := 0; x < s; x++ {
			var m uint32
			if x < g.Size && y < g.Size {
				m = g.At(x, y)
			}
			out = append(out, m)
		}
	}
	return out
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	return Grid{Size: g.Size, Masks: slices.Clone(g.Masks)}
}

// Observation is one hardware probe result.
type Observation struct {
	// Step is the alpha step index in [0, Increments].
	Step int

	// Alpha is Step/Increments.
	Alpha float64

	// Grid holds the coverage mask of every probed pixel.
	Grid Grid
}
