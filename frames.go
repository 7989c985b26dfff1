package wanimation

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/firewraith2/wanimation/palette"
	"github.com/firewraith2/wanimation/tile"
	"github.com/firewraith2/wanimation/wanxml"
)

// canvasMargin is the pixel border added around the cel bounding box when
// reverse-rendering; it keeps the engine-center alignment meaningful for
// sprites the forward tool never produced.
const canvasMargin = 8

// loadedChunk is a chunk image read back from imgs/NNNN.png. Pixels are
// normalized to local palette indices.
type loadedChunk struct {
	w, h int
	pix  []uint8
	mask []bool
}

// GenerateFrames runs the reverse pipeline: it parses an object folder,
// assigns every cel a layer under the overlap policy, and renders
// Frame-<f>-Layer-<l>.png images plus a config.json carrying the animation
// structure.
func (s *Studio) GenerateFrames(inputDir, outputDir string, policy OverlapPolicy) error {
	pal, err := readPaletteFile(filepath.Join(inputDir, "palette.pal"))
	if err != nil {
		return err
	}

	frameDoc, err := readFramesXML(filepath.Join(inputDir, "frames.xml"))
	if err != nil {
		return err
	}
	animDoc, err := readAnimationsXML(filepath.Join(inputDir, "animations.xml"))
	if err != nil {
		return err
	}

	chunks, err := loadChunkImages(filepath.Join(inputDir, "imgs"), frameDoc)
	if err != nil {
		return err
	}

	parent := filepath.Dir(outputDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, ".wanimation-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err := s.renderFrames(tmp, frameDoc, chunks, pal, policy); err != nil {
		return err
	}
	if err := writeReverseConfig(filepath.Join(tmp, "config.json"), animDoc); err != nil {
		return err
	}

	if err := os.RemoveAll(outputDir); err != nil {
		return err
	}
	if err := os.Rename(tmp, outputDir); err != nil {
		return err
	}

	s.logger.Printf("frames written to %s: %d frames, %d chunks, palette with %s",
		outputDir, len(frameDoc.Frames), len(chunks), pal)
	return nil
}

func readPaletteFile(path string) (*palette.Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindMissingFile, path, "%v", err)
	}
	defer f.Close()
	pal, err := palette.Decode(f)
	if err != nil {
		return nil, newError(KindInvalidConfig, path, "%v", err)
	}
	return pal, nil
}

func wrapXMLError(path string, err error) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return newError(KindXMLParse, path, "line %d: %s", syn.Line, syn.Msg)
	}
	return newError(KindXMLParse, path, "%v", err)
}

func readFramesXML(path string) (*wanxml.FrameDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindMissingFile, path, "%v", err)
	}
	defer f.Close()
	doc, err := wanxml.DecodeFrames(f)
	if err != nil {
		return nil, wrapXMLError(path, err)
	}
	return doc, nil
}

func readAnimationsXML(path string) (*wanxml.AnimDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindMissingFile, path, "%v", err)
	}
	defer f.Close()
	doc, err := wanxml.DecodeAnims(f)
	if err != nil {
		return nil, wrapXMLError(path, err)
	}
	return doc, nil
}

// loadChunkImages reads every chunk the frame document references.
func loadChunkImages(dir string, doc *wanxml.FrameDoc) (map[int]*loadedChunk, error) {
	chunks := make(map[int]*loadedChunk)
	for _, frame := range doc.Frames {
		for _, c := range frame.Cels {
			if _, ok := chunks[c.Img]; ok {
				continue
			}
			path := filepath.Join(dir, fmt.Sprintf("%04d.png", c.Img))
			lc, err := loadChunkImage(path)
			if err != nil {
				return nil, err
			}
			chunks[c.Img] = lc
		}
	}
	return chunks, nil
}

func loadChunkImage(path string) (*loadedChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindMissingFile, path, "%v", err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return nil, newError(KindWrongPixelFormat, path, "%v", err)
	}
	pm, ok := img.(*image.Paletted)
	if !ok {
		return nil, newError(KindWrongPixelFormat, path, "not an indexed image")
	}
	b := pm.Bounds()
	if b.Dx()%tile.Size != 0 || b.Dy()%tile.Size != 0 {
		return nil, newError(KindNotMultipleOf8, path, "size %dx%d", b.Dx(), b.Dy())
	}

	lc := &loadedChunk{
		w:    b.Dx(),
		h:    b.Dy(),
		pix:  make([]uint8, b.Dx()*b.Dy()),
		mask: make([]bool, b.Dx()*b.Dy()),
	}
	for y := 0; y < lc.h; y++ {
		for x := 0; x < lc.w; x++ {
			local := palette.LocalIndex(pm.ColorIndexAt(b.Min.X+x, b.Min.Y+y))
			lc.pix[y*lc.w+x] = local
			lc.mask[y*lc.w+x] = local != 0
		}
	}
	return lc, nil
}

// renderFrames paints each frame's cels onto per-layer canvases and writes
// the layer PNGs. The canvas is the global cel bounding box plus a fixed
// margin, rounded up to whole tiles, shared by every frame.
func (s *Studio) renderFrames(outDir string, doc *wanxml.FrameDoc, chunks map[int]*loadedChunk, pal *palette.Palette, policy OverlapPolicy) error {
	originX, originY, width, height := celBounds(doc, chunks)
	cp := pal.ColorPalette()

	for fi, frame := range doc.Frames {
		cels := make([]placedCel, len(frame.Cels))
		for i, c := range frame.Cels {
			lc := chunks[c.Img]
			cels[i] = placedCel{x: c.X, y: c.Y, w: lc.w, h: lc.h, pal: c.Pal, mask: lc.mask}
		}
		layerOf := assignLayers(policy, cels)

		layerCount := 1
		for _, li := range layerOf {
			if li+1 > layerCount {
				layerCount = li + 1
			}
		}
		canvases := make([]*image.Paletted, layerCount)
		for li := range canvases {
			canvases[li] = image.NewPaletted(image.Rect(0, 0, width, height), cp)
		}

		for i, c := range frame.Cels {
			paintCel(canvases[layerOf[i]], chunks[c.Img], c.X-originX, c.Y-originY, c.Pal)
		}

		for li, canvas := range canvases {
			path := filepath.Join(outDir, fmt.Sprintf("Frame-%d-Layer-%d.png", fi, li))
			if err := writePNG(path, canvas); err != nil {
				return err
			}
		}
	}
	return nil
}

// celBounds computes the shared canvas: the bounding box over every cel of
// every frame, a margin on all sides, tile-aligned.
func celBounds(doc *wanxml.FrameDoc, chunks map[int]*loadedChunk) (originX, originY, width, height int) {
	minX, minY := 0, 0
	maxX, maxY := tile.Size, tile.Size
	first := true
	for _, frame := range doc.Frames {
		for _, c := range frame.Cels {
			lc := chunks[c.Img]
			if first {
				minX, minY = c.X, c.Y
				maxX, maxY = c.X+lc.w, c.Y+lc.h
				first = false
				continue
			}
			minX = min(minX, c.X)
			minY = min(minY, c.Y)
			maxX = max(maxX, c.X+lc.w)
			maxY = max(maxY, c.Y+lc.h)
		}
	}
	originX = minX - canvasMargin
	originY = minY - canvasMargin
	width = roundUpTile(maxX-minX) + 2*canvasMargin
	height = roundUpTile(maxY-minY) + 2*canvasMargin
	return originX, originY, width, height
}

func roundUpTile(v int) int {
	return (v + tile.Size - 1) &^ (tile.Size - 1)
}

// paintCel copies a chunk onto a canvas: non-transparent pixels overwrite,
// transparent pixels are skipped. Local indices are mapped into the cel's
// palette group.
func paintCel(canvas *image.Paletted, lc *loadedChunk, dx, dy, pal int) {
	for y := 0; y < lc.h; y++ {
		for x := 0; x < lc.w; x++ {
			local := lc.pix[y*lc.w+x]
			if local == 0 {
				continue
			}
			canvas.SetColorIndex(dx+x, dy+y, uint8(pal*palette.GroupSize)+local)
		}
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeReverseConfig records the animation structure with default generator
// settings so the rendered folder can feed a later forward run. Frame
// references use the dense frame numbering the renderer just emitted.
func writeReverseConfig(path string, doc *wanxml.AnimDoc) error {
	defaultCfg := DefaultConfig()
	cfg := defaultCfg.resolved()
	for _, anim := range doc.Anims {
		a := Animation{}
		for _, f := range anim.Frames {
			a.Frames = append(a.Frames, FrameRef{Frame: f.ID, Duration: f.Duration})
		}
		cfg.Animations = append(cfg.Animations, a)
	}
	return cfg.Save(path)
}
