package wanimation

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/firewraith2/wanimation/palette"
	"github.com/firewraith2/wanimation/wanxml"
)

// writeObject writes the object folder layout. Everything goes into a
// temporary sibling directory first and is renamed into place on success,
// so a cancelled or failed run leaves no partial output folder behind.
func (s *Studio) writeObject(obj *object, outDir string) error {
	parent := filepath.Dir(outDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, ".wanimation-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err := writePaletteFile(filepath.Join(tmp, "palette.pal"), obj.pal); err != nil {
		return err
	}
	if err := writeChunkImages(filepath.Join(tmp, "imgs"), obj); err != nil {
		return err
	}
	if err := writeFramesXML(filepath.Join(tmp, "frames.xml"), obj); err != nil {
		return err
	}
	if err := writeAnimationsXML(filepath.Join(tmp, "animations.xml"), obj); err != nil {
		return err
	}
	cfg := obj.cfg.resolved()
	cfg.Animations = obj.anims
	if err := cfg.Save(filepath.Join(tmp, "config.json")); err != nil {
		return err
	}

	if err := os.RemoveAll(outDir); err != nil {
		return err
	}
	return os.Rename(tmp, outDir)
}

func writePaletteFile(path string, pal *palette.Palette) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := palette.Encode(f, pal); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeChunkImages writes one indexed PNG per distinct chunk, named by its
// zero-padded id. The pixels are local palette indices; the embedded
// palette is the global one.
func writeChunkImages(dir string, obj *object) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	cp := obj.pal.ColorPalette()
	for id, c := range obj.pool.Chunks() {
		img := image.NewPaletted(image.Rect(0, 0, c.W, c.H), cp)
		copy(img.Pix, c.Pix)
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%04d.png", id)))
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func writeFramesXML(path string, obj *object) error {
	ox, oy := obj.frameOrigin()
	doc := &wanxml.FrameDoc{}
	for _, cels := range obj.frames {
		frame := wanxml.Frame{}
		for _, c := range cels {
			frame.Cels = append(frame.Cels, wanxml.Cel{
				Img: c.ChunkID,
				X:   ox + c.X,
				Y:   oy + c.Y,
				Pal: c.Group,
			})
		}
		doc.Frames = append(doc.Frames, frame)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wanxml.EncodeFrames(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeAnimationsXML(path string, obj *object) error {
	doc := &wanxml.AnimDoc{}
	for _, anim := range obj.anims {
		a := wanxml.Anim{}
		for _, ref := range anim.Frames {
			a.Frames = append(a.Frames, wanxml.AnimFrame{
				ID:       frameIndexOf(obj.frameNums, ref.Frame),
				Duration: ref.Duration,
			})
		}
		doc.Anims = append(doc.Anims, a)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wanxml.EncodeAnims(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
