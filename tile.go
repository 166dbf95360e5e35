package a2c

// InferTileSize returns the smallest power-of-two tile size s such that
// every run pattern satisfies pattern[y][x] == pattern[y%s][x%s]. The grid
// size itself is the fallback when no smaller tile repeats.
func InferTileSize(runs []Run, size int) int {
	for s := 1; s < size; s *= 2 {
		if tiles(runs, size, s) {
			Logger().Debug("a2c: tile size found", "patternSize", s)
			return s
		}
	}
	return size
}

func tiles(runs []Run, size, s int) bool {
	for _, r := range runs {
		if !tilesPattern(r.Pattern, size, s) {
			return false
		}
	}
	return true
}

// tilesPattern compares every pixel against its counterpart in the first
// s x s block.
func tilesPattern(g Grid, size, s int) bool {
	for ly := 0; ly < s; ly++ {
		for lx := 0; lx < s; lx++ {
			want := g.At(lx, ly)
			for y := ly; y < size; y += s {
				for x := lx; x < size; x += s {
					if g.At(x, y) != want {
						return false
					}
				}
			}
		}
	}
	return true
}
