package wanimation

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/lucasb-eyer/go-colorful"
)

// writeAnnotated writes a debug copy of every input layer with each chunk
// placement outlined, one distinct hue per chunk id, so a bad density or
// dedup setting can be seen at a glance.
func (s *Studio) writeAnnotated(in *inputSet, obj *object, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	colors := make([]color.RGBA, obj.pool.Len())
	for i := range colors {
		hue := 360 * float64(i) / float64(len(colors))
		r, g, b := colorful.Hsl(hue, 0.9, 0.5).RGB255()
		colors[i] = color.RGBA{r, g, b, 0xff}
	}

	for _, f := range in.files {
		b := f.img.Bounds()
		rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), f.img, b.Min, draw.Src)

		for _, c := range obj.frames[in.frameIndex[f.frame]] {
			if c.Layer != f.layer {
				continue
			}
			ch := obj.pool.Chunk(c.ChunkID)
			outlineRect(rgba, image.Rect(c.X, c.Y, c.X+ch.W, c.Y+ch.H), colors[c.ChunkID])
		}

		q := quantize.MedianCutQuantizer{}
		pm := image.NewPaletted(rgba.Bounds(), q.Quantize(make(color.Palette, 0, 256), rgba))
		draw.Draw(pm, pm.Bounds(), rgba, rgba.Bounds().Min, draw.Src)

		name := strings.TrimSuffix(f.name, filepath.Ext(f.name)) + "-annotated.png"
		if err := writePNG(filepath.Join(dir, name), pm); err != nil {
			return err
		}
	}

	s.logger.Printf("annotated images written to %s", dir)
	return nil
}

func outlineRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}
