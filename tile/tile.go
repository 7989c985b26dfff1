/*
Package tile views a paletted image as a grid of 8 by 8 tiles.

A tile is empty when all of its 64 palette indices reference a transparent
color. A non-empty tile belongs to exactly one 16-color palette group; a tile
mixing groups is invalid input.
*/
package tile

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/firewraith2/wanimation/palette"
)

const (
	// Size is the tile edge length in pixels.
	Size = 8

	// Area is the number of pixels in one tile.
	Area = Size * Size
)

var (
	// ErrNotMultipleOf8 reports an image whose dimensions are not tile
	// aligned.
	ErrNotMultipleOf8 = errors.New("tile: image dimensions not a multiple of 8")

	// ErrMultiGroupTile reports a single tile referencing more than one
	// palette group.
	ErrMultiGroupTile = errors.New("tile: tile references multiple palette groups")

	// ErrMultiGroup reports a tile rectangle spanning more than one
	// palette group.
	ErrMultiGroup = errors.New("tile: region references multiple palette groups")
)

// Grid wraps a paletted image whose dimensions are whole tiles. Tile
// emptiness and palette groups are computed once at construction.
type Grid struct {
	img    *image.Paletted
	tw, th int
	groups []int // per tile, row-major; -1 for empty tiles
}

// NewGrid validates the image dimensions and classifies every tile.
func NewGrid(img *image.Paletted) (*Grid, error) {
	b := img.Bounds()
	if b.Dx()%Size != 0 || b.Dy()%Size != 0 {
		return nil, ErrNotMultipleOf8
	}
	g := &Grid{
		img: img,
		tw:  b.Dx() / Size,
		th:  b.Dy() / Size,
	}
	g.groups = make([]int, g.tw*g.th)
	for ty := 0; ty < g.th; ty++ {
		for tx := 0; tx < g.tw; tx++ {
			group, err := classifyTile(img, tx, ty)
			if err != nil {
				return nil, fmt.Errorf("%w at tile (%d, %d)", err, tx, ty)
			}
			g.groups[ty*g.tw+tx] = group
		}
	}
	return g, nil
}

func classifyTile(img *image.Paletted, tx, ty int) (int, error) {
	b := img.Bounds()
	group := -1
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			idx := img.ColorIndexAt(b.Min.X+tx*Size+x, b.Min.Y+ty*Size+y)
			if palette.IsTransparent(idx) {
				continue
			}
			g := palette.GroupOf(idx)
			if group == -1 {
				group = g
			} else if group != g {
				return 0, ErrMultiGroupTile
			}
		}
	}
	return group, nil
}

// Width returns the grid width in tiles.
func (g *Grid) Width() int { return g.tw }

// Height returns the grid height in tiles.
func (g *Grid) Height() int { return g.th }

// PixelWidth returns the image width in pixels.
func (g *Grid) PixelWidth() int { return g.tw * Size }

// PixelHeight returns the image height in pixels.
func (g *Grid) PixelHeight() int { return g.th * Size }

// Empty reports whether the tile at (tx, ty) holds only transparent pixels.
func (g *Grid) Empty(tx, ty int) bool { return g.groups[ty*g.tw+tx] == -1 }

// Group returns the palette group of the tile at (tx, ty), or -1 for an
// empty tile.
func (g *Grid) Group(tx, ty int) int { return g.groups[ty*g.tw+tx] }

// Index returns the palette index at pixel (x, y).
func (g *Grid) Index(x, y int) uint8 {
	b := g.img.Bounds()
	return g.img.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
}

// RowDensity returns the fraction of non-empty tiles in row ty of the tile
// rectangle r.
func (g *Grid) RowDensity(r image.Rectangle, ty int) float64 {
	filled := 0
	for tx := r.Min.X; tx < r.Max.X; tx++ {
		if !g.Empty(tx, ty) {
			filled++
		}
	}
	return float64(filled) / float64(r.Dx())
}

// ColDensity returns the fraction of non-empty tiles in column tx of the
// tile rectangle r.
func (g *Grid) ColDensity(r image.Rectangle, tx int) float64 {
	filled := 0
	for ty := r.Min.Y; ty < r.Max.Y; ty++ {
		if !g.Empty(tx, ty) {
			filled++
		}
	}
	return float64(filled) / float64(r.Dy())
}

// RectGroup returns the single palette group used by the non-empty tiles of
// the tile rectangle r, -1 if all tiles are empty, or ErrMultiGroup.
func (g *Grid) RectGroup(r image.Rectangle) (int, error) {
	group := -1
	for ty := r.Min.Y; ty < r.Max.Y; ty++ {
		for tx := r.Min.X; tx < r.Max.X; tx++ {
			tg := g.Group(tx, ty)
			if tg == -1 {
				continue
			}
			if group == -1 {
				group = tg
			} else if group != tg {
				return 0, ErrMultiGroup
			}
		}
	}
	return group, nil
}

// GroupsUsed returns the sorted palette groups referenced by non-empty
// tiles.
func (g *Grid) GroupsUsed() []int {
	seen := make(map[int]struct{})
	var out []int
	for _, tg := range g.groups {
		if tg == -1 {
			continue
		}
		if _, ok := seen[tg]; !ok {
			seen[tg] = struct{}{}
			out = append(out, tg)
		}
	}
	sort.Ints(out)
	return out
}
