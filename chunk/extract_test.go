package chunk

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewraith2/wanimation/tile"
)

func testPalette() color.Palette {
	p := make(color.Palette, 16)
	for i := range p {
		p[i] = color.RGBA{uint8(i * 16), 0, 0, 0xff}
	}
	return p
}

func fillTile(img *image.Paletted, tx, ty int, idx uint8) {
	for y := 0; y < tile.Size; y++ {
		for x := 0; x < tile.Size; x++ {
			img.SetColorIndex(tx*tile.Size+x, ty*tile.Size+y, idx)
		}
	}
}

func layerFor(t *testing.T, img *image.Paletted) *Layer {
	t.Helper()
	g, err := tile.NewGrid(img)
	require.NoError(t, err)
	return NewLayer(g, 0)
}

func TestCandidateDensityRule(t *testing.T) {
	// Only tile (0,0) filled in a 16x16 image: the 16x16 candidate fails
	// the density rule in its second row and column.
	img := image.NewPaletted(image.Rect(0, 0, 16, 16), testPalette())
	fillTile(img, 0, 0, 1)
	l := layerFor(t, img)

	assert.Nil(t, l.Candidate(0, 0, Size{16, 16}, 0.5))
	assert.NotNil(t, l.Candidate(0, 0, Size{8, 8}, 0.5))

	// With density 0 anything holding one non-empty tile passes.
	assert.NotNil(t, l.Candidate(0, 0, Size{16, 16}, 0))
}

func TestCandidateRejectsEmptyAndOutOfBounds(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 16, 16), testPalette())
	fillTile(img, 0, 0, 1)
	l := layerFor(t, img)

	// Entirely empty region.
	assert.Nil(t, l.Candidate(1, 1, Size{8, 8}, 0))
	// Out of bounds.
	assert.Nil(t, l.Candidate(1, 1, Size{16, 16}, 0))
}

func TestCandidateRespectsClaims(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 16, 16), testPalette())
	for ty := 0; ty < 2; ty++ {
		for tx := 0; tx < 2; tx++ {
			fillTile(img, tx, ty, 1)
		}
	}
	l := layerFor(t, img)

	require.NotNil(t, l.Candidate(0, 0, Size{16, 16}, 0.5))
	l.Claim(0, 0, Size{8, 8})
	assert.Nil(t, l.Candidate(0, 0, Size{16, 16}, 0.5))
	assert.False(t, l.Unclaimed(0, 0, Size{16, 16}))
	assert.True(t, l.Unclaimed(1, 0, Size{8, 8}))
}

func TestCutNormalizesToLocalIndices(t *testing.T) {
	p := make(color.Palette, 32)
	for i := range p {
		p[i] = color.RGBA{uint8(i), 0, 0, 0xff}
	}
	img := image.NewPaletted(image.Rect(0, 0, 8, 8), p)
	fillTile(img, 0, 0, 19) // group 1, local index 3

	g, err := tile.NewGrid(img)
	require.NoError(t, err)
	l := NewLayer(g, 1)

	c := l.Candidate(0, 0, Size{8, 8}, 0.5)
	require.NotNil(t, c)
	assert.Equal(t, 1, c.Group)
	for _, px := range c.Pix {
		assert.Equal(t, uint8(3), px)
	}
}

func TestCoverFallsBackTo8x8(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 16, 16), testPalette())
	fillTile(img, 0, 0, 1)
	l := layerFor(t, img)

	var got []Size
	l.Cover([]Size{{16, 16}}, 0.5, func(tx, ty int, c *Chunk) {
		got = append(got, Size{c.W, c.H})
		assert.Equal(t, 0, tx)
		assert.Equal(t, 0, ty)
	})

	assert.Equal(t, []Size{{8, 8}}, got)
	assert.True(t, l.Covered())
}

func TestCoverIsTotalAndDisjoint(t *testing.T) {
	// An L-shaped blob over a 32x32 canvas; whatever chunks come out,
	// every non-empty tile must be covered exactly once.
	img := image.NewPaletted(image.Rect(0, 0, 32, 32), testPalette())
	for ty := 0; ty < 4; ty++ {
		fillTile(img, 0, ty, 2)
	}
	for tx := 0; tx < 4; tx++ {
		fillTile(img, tx, 3, 2)
	}
	l := layerFor(t, img)

	covered := make(map[[2]int]int)
	l.Cover(Sizes, 0.5, func(tx, ty int, c *Chunk) {
		for y := 0; y < c.H/tile.Size; y++ {
			for x := 0; x < c.W/tile.Size; x++ {
				covered[[2]int{tx + x, ty + y}]++
			}
		}
	})

	g := l.Grid()
	for ty := 0; ty < g.Height(); ty++ {
		for tx := 0; tx < g.Width(); tx++ {
			if !g.Empty(tx, ty) {
				assert.Equal(t, 1, covered[[2]int{tx, ty}], "tile (%d,%d)", tx, ty)
			} else {
				assert.LessOrEqual(t, covered[[2]int{tx, ty}], 1)
			}
		}
	}
	assert.True(t, l.Covered())
}

func TestCoverPrefersLargerSizes(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 32, 32), testPalette())
	for ty := 0; ty < 4; ty++ {
		for tx := 0; tx < 4; tx++ {
			fillTile(img, tx, ty, 1)
		}
	}
	l := layerFor(t, img)

	var got []Size
	l.Cover(Sizes, 0.5, func(tx, ty int, c *Chunk) {
		got = append(got, Size{c.W, c.H})
	})
	assert.Equal(t, []Size{{32, 32}}, got)
}
