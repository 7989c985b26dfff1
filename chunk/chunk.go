/*
Package chunk implements the reusable tile-aligned bitmap model shared by
both conversion directions: the twelve hardware chunk resolutions, content
hashing, the per-run chunk pool, and the greedy extraction scanner.
*/
package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/firewraith2/wanimation/tile"
)

// Size is an allowed chunk dimension in pixels.
type Size struct {
	W, H int
}

// Sizes lists the twelve hardware chunk resolutions in scan order:
// descending area; on equal area, longer edge first, then wider before
// taller.
var Sizes = []Size{
	{64, 64},
	{64, 32},
	{32, 64},
	{32, 32},
	{32, 16},
	{16, 32},
	{32, 8},
	{8, 32},
	{16, 16},
	{16, 8},
	{8, 16},
	{8, 8},
}

// Valid reports whether s is one of the hardware resolutions.
func (s Size) Valid() bool {
	for _, v := range Sizes {
		if v == s {
			return true
		}
	}
	return false
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// Chunk is a rectangular tile-aligned bitmap belonging to a single palette
// group. Pix holds local palette indices (0-15) row-major; transparent
// pixels are normalized to 0.
type Chunk struct {
	W, H  int
	Group int
	Pix   []uint8
}

// Tiles returns the chunk footprint in tiles.
func (c *Chunk) Tiles() int { return (c.W / tile.Size) * (c.H / tile.Size) }

// Cost returns the VRAM cost in tile units: the tile count rounded up to a
// whole number of 4-tile memory blocks.
func (c *Chunk) Cost() int { return (c.Tiles() + 3) &^ 3 }

// Hash identifies a chunk's canonical content. Chunks with equal hashes are
// only considered identical after a byte comparison.
type Hash = xxh3.Uint128

// Hash returns the 128-bit content hash over (width, height, group, pixels).
func (c *Chunk) Hash() Hash {
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(c.W))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(c.H))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(c.Group))
	h := xxh3.New()
	h.Write(hdr[:])
	h.Write(c.Pix)
	return h.Sum128()
}

// Equal reports whether two chunks have bytewise identical canonical forms.
func (c *Chunk) Equal(other *Chunk) bool {
	return c.W == other.W && c.H == other.H && c.Group == other.Group &&
		bytes.Equal(c.Pix, other.Pix)
}

// Empty reports whether every pixel is transparent.
func (c *Chunk) Empty() bool {
	for _, p := range c.Pix {
		if p != 0 {
			return false
		}
	}
	return true
}

// Transparent returns an all-transparent chunk of size s in group 0.
func Transparent(s Size) *Chunk {
	return &Chunk{W: s.W, H: s.H, Group: 0, Pix: make([]uint8, s.W*s.H)}
}
