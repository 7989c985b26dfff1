package chunk

import (
	"image"

	"github.com/firewraith2/wanimation/palette"
	"github.com/firewraith2/wanimation/tile"
)

// Layer is one extraction surface: the pixels of a single palette group of
// one source image, with claim bookkeeping. An accepted chunk claims every
// tile it spans; later candidates must lie entirely on unclaimed tiles.
type Layer struct {
	grid    *tile.Grid
	group   int
	claimed []bool // per tile, row-major
}

// NewLayer wraps a single-group grid for extraction.
func NewLayer(g *tile.Grid, group int) *Layer {
	return &Layer{
		grid:    g,
		group:   group,
		claimed: make([]bool, g.Width()*g.Height()),
	}
}

// Grid returns the underlying tile grid.
func (l *Layer) Grid() *tile.Grid { return l.grid }

// Group returns the palette group this layer extracts.
func (l *Layer) Group() int { return l.group }

// Unclaimed reports whether every tile of the sz-sized region at tile
// (tx, ty) is still unclaimed.
func (l *Layer) Unclaimed(tx, ty int, sz Size) bool {
	tw, th := sz.W/tile.Size, sz.H/tile.Size
	for y := ty; y < ty+th; y++ {
		for x := tx; x < tx+tw; x++ {
			if l.claimed[y*l.grid.Width()+x] {
				return false
			}
		}
	}
	return true
}

// Claim marks every tile of the sz-sized region at tile (tx, ty) as covered.
func (l *Layer) Claim(tx, ty int, sz Size) {
	tw, th := sz.W/tile.Size, sz.H/tile.Size
	for y := ty; y < ty+th; y++ {
		for x := tx; x < tx+tw; x++ {
			l.claimed[y*l.grid.Width()+x] = true
		}
	}
}

// Candidate evaluates the sz-sized region at tile (tx, ty) and returns its
// chunk if it is acceptable: inside the image, entirely unclaimed, holding
// at least one non-empty tile, and meeting the density rule in every tile
// row and column. Returns nil otherwise.
func (l *Layer) Candidate(tx, ty int, sz Size, minDensity float64) *Chunk {
	tw, th := sz.W/tile.Size, sz.H/tile.Size
	if tx+tw > l.grid.Width() || ty+th > l.grid.Height() {
		return nil
	}
	if !l.Unclaimed(tx, ty, sz) {
		return nil
	}
	r := image.Rect(tx, ty, tx+tw, ty+th)
	filled := false
	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := l.grid.RowDensity(r, y)
		if d > 0 {
			filled = true
		}
		if d < minDensity {
			return nil
		}
	}
	if !filled {
		return nil
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		if l.grid.ColDensity(r, x) < minDensity {
			return nil
		}
	}
	return l.cut(tx, ty, sz)
}

// cut copies the region's pixels as local palette indices with transparent
// pixels normalized to 0.
func (l *Layer) cut(tx, ty int, sz Size) *Chunk {
	c := &Chunk{W: sz.W, H: sz.H, Group: l.group, Pix: make([]uint8, sz.W*sz.H)}
	for y := 0; y < sz.H; y++ {
		for x := 0; x < sz.W; x++ {
			idx := l.grid.Index(tx*tile.Size+x, ty*tile.Size+y)
			if palette.IsTransparent(idx) {
				continue
			}
			c.Pix[y*sz.W+x] = palette.LocalIndex(idx)
		}
	}
	return c
}

// Covered reports whether no non-empty tile remains unclaimed.
func (l *Layer) Covered() bool {
	for ty := 0; ty < l.grid.Height(); ty++ {
		for tx := 0; tx < l.grid.Width(); tx++ {
			if !l.grid.Empty(tx, ty) && !l.claimed[ty*l.grid.Width()+tx] {
				return false
			}
		}
	}
	return true
}

// Cover greedily claims the layer's remaining non-empty tiles, walking the
// enabled sizes in order and scanning tile positions row-major. 8x8 runs as
// an implicit final pass so coverage is always total: a single non-empty
// tile trivially satisfies any density.
func (l *Layer) Cover(sizes []Size, minDensity float64, emit func(tx, ty int, c *Chunk)) {
	pass := func(sz Size) {
		for ty := 0; ty <= l.grid.Height()-sz.H/tile.Size; ty++ {
			for tx := 0; tx <= l.grid.Width()-sz.W/tile.Size; tx++ {
				c := l.Candidate(tx, ty, sz, minDensity)
				if c == nil {
					continue
				}
				l.Claim(tx, ty, sz)
				emit(tx, ty, c)
			}
		}
	}

	fallback := true
	for _, sz := range sizes {
		if sz.W > l.grid.PixelWidth() || sz.H > l.grid.PixelHeight() {
			continue
		}
		pass(sz)
		if sz == (Size{8, 8}) {
			fallback = false
		}
	}
	if fallback {
		pass(Size{8, 8})
	}
}
