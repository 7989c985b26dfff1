package wanimation

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/firewraith2/wanimation/tile"
)

func testStudio() *Studio {
	return New(log.New(io.Discard, "", 0), false)
}

func testPalette(groups int) color.Palette {
	p := make(color.Palette, groups*16)
	for i := range p {
		p[i] = color.RGBA{uint8(i), uint8(i * 3), uint8(255 - i), 0xff}
	}
	return p
}

func newFrameImage(w, h, groups int) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, w, h), testPalette(groups))
}

func fillTile(img *image.Paletted, tx, ty int, idx uint8) {
	for y := 0; y < tile.Size; y++ {
		for x := 0; x < tile.Size; x++ {
			img.SetColorIndex(tx*tile.Size+x, ty*tile.Size+y, idx)
		}
	}
}

func fillAll(img *image.Paletted, idx uint8) {
	b := img.Bounds()
	for ty := 0; ty < b.Dy()/tile.Size; ty++ {
		for tx := 0; tx < b.Dx()/tile.Size; tx++ {
			fillTile(img, tx, ty, idx)
		}
	}
}

// fillPattern paints every pixel with a varied non-transparent group 0
// index, 1+(x+3y) mod 15. Tiles whose offsets x+3y coincide repeat: tile
// (3, ty) equals tile (0, ty+1).
func fillPattern(img *image.Paletted) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			img.SetColorIndex(x, y, uint8(1+(x+3*y)%15))
		}
	}
}

func writePNGFile(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func writeFramePNG(t *testing.T, dir string, frame, layer int, img image.Image) {
	t.Helper()
	writePNGFile(t, filepath.Join(dir, fmt.Sprintf("Frame-%d-Layer-%d.png", frame, layer)), img)
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	require.Equal(t, kind, werr.Kind)
}
