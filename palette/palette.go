/*
Package palette implements the shared indexed palette model used by both
conversion directions.

A palette is an ordered sequence of 24-bit RGB colors divided into groups of
16. Index 0 of each group is transparent; the first group's transparent color
is the canonical transparent color for the whole sprite.
*/
package palette

import (
	"errors"
	"fmt"
	"image/color"
)

const (
	// GroupSize is the number of colors in one palette group.
	GroupSize = 16

	// MaxGroups is the hard limit of groups in the general WAN case.
	MaxGroups = 16

	// MaxColors is the largest palette any input image may carry.
	MaxColors = GroupSize * MaxGroups
)

var errTooManyColors = errors.New("palette: more than 256 colors")

// Palette is a global sprite palette. The color sequence is preserved
// exactly as read; it is never reordered.
type Palette struct {
	colors []color.RGBA
}

// New builds a palette from RGB triples, padding the tail with black so the
// length is a whole number of groups.
func New(colors []color.RGBA) (*Palette, error) {
	if len(colors) > MaxColors {
		return nil, errTooManyColors
	}
	dup := make([]color.RGBA, len(colors))
	copy(dup, colors)
	for len(dup)%GroupSize != 0 {
		dup = append(dup, color.RGBA{A: 0xff})
	}
	return &Palette{colors: dup}, nil
}

// FromImagePalette converts an embedded image palette, dropping alpha. PNG
// decoders hand transparent entries back as zero-alpha NRGBA; their RGB
// values are kept rather than lost to premultiplication.
func FromImagePalette(p color.Palette) (*Palette, error) {
	colors := make([]color.RGBA, len(p))
	for i, c := range p {
		switch v := c.(type) {
		case color.NRGBA:
			colors[i] = color.RGBA{v.R, v.G, v.B, 0xff}
		case color.RGBA:
			colors[i] = color.RGBA{v.R, v.G, v.B, 0xff}
		default:
			r, g, b, _ := c.RGBA()
			colors[i] = color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 0xff}
		}
	}
	return New(colors)
}

// Len returns the number of colors, always a multiple of GroupSize.
func (p *Palette) Len() int { return len(p.colors) }

// Groups returns the number of 16-color groups.
func (p *Palette) Groups() int { return len(p.colors) / GroupSize }

// Color returns the color at global index i.
func (p *Palette) Color(i int) color.RGBA { return p.colors[i] }

// GroupOf returns the palette group a global color index belongs to.
func GroupOf(i uint8) int { return int(i) / GroupSize }

// LocalIndex returns the index of a color within its group.
func LocalIndex(i uint8) uint8 { return i % GroupSize }

// IsTransparent reports whether a global color index references the
// transparent slot of its group.
func IsTransparent(i uint8) bool { return LocalIndex(i) == 0 }

// Equal reports whether two palettes carry the same color sequence.
func (p *Palette) Equal(other *Palette) bool {
	if len(p.colors) != len(other.colors) {
		return false
	}
	for i, c := range p.colors {
		o := other.colors[i]
		if c.R != o.R || c.G != o.G || c.B != o.B {
			return false
		}
	}
	return true
}

// ColorPalette returns the palette in the form expected by image.Paletted.
// The canonical transparent slot keeps zero alpha so encoders emit it as
// transparent.
func (p *Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p.colors))
	for i, c := range p.colors {
		if i == 0 {
			out[i] = color.NRGBA{c.R, c.G, c.B, 0}
			continue
		}
		out[i] = c
	}
	return out
}

// String describes the palette for log output.
func (p *Palette) String() string {
	return fmt.Sprintf("%d colors in %d groups", p.Len(), p.Groups())
}
