package wanimation

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/firewraith2/wanimation/chunk"
	"github.com/firewraith2/wanimation/palette"
	"github.com/firewraith2/wanimation/tile"
)

var frameLayerName = regexp.MustCompile(`(?i)^frame-([0-9]+)-layer-([0-9]+)$`)

// sourceFile is one input PNG as read from disk.
type sourceFile struct {
	frame, layer int
	name         string
	img          *image.Paletted
}

// sourceLayer is one single-group extraction surface. Multi-group files are
// split into one surface per group with the other groups' pixels cleared.
type sourceLayer struct {
	frame, layer, group int
	name                string
	ext                 *chunk.Layer
}

// inputSet is a validated frame folder.
type inputSet struct {
	dir           string
	pal           *palette.Palette
	width, height int
	frameNums     []int
	frameIndex    map[int]int
	files         []*sourceFile
	layers        []*sourceLayer
}

// frameLayerIndices returns the indices into layers belonging to one frame.
func (in *inputSet) frameLayerIndices(frame int) []int {
	var out []int
	for i, l := range in.layers {
		if l.frame == frame {
			out = append(out, i)
		}
	}
	return out
}

// cel is a chunk placement within a frame canvas.
type cel struct {
	ChunkID int
	X, Y    int // pixel origin, multiples of 8
	Layer   int
	Group   int
}

// object is the in-memory result of one forward run.
type object struct {
	cfg           Config
	pal           *palette.Palette
	pool          *chunk.Pool
	frameNums     []int
	frames        [][]cel
	frameMemory   []int
	anims         []Animation
	width, height int
}

// GenerateObject runs the forward pipeline: it decomposes the frame images
// in inputDir into a chunk pool and writes the object folder to outputDir.
func (s *Studio) GenerateObject(inputDir, outputDir string, cfg Config) error {
	if err := cfg.Validate(inputDir); err != nil {
		return err
	}

	in, err := s.loadFrames(inputDir, cfg.Kind)
	if err != nil {
		return err
	}

	obj, err := s.buildObject(in, cfg)
	if err != nil {
		return err
	}

	if s.debug {
		if err := s.writeAnnotated(in, obj, filepath.Join(inputDir, "DEBUG")); err != nil {
			return err
		}
	}

	if err := s.writeObject(obj, outputDir); err != nil {
		return err
	}

	s.summarize(obj, outputDir)
	return nil
}

// loadFrames validates the folder per the input contract: every PNG named
// Frame-<f>-Layer-<l>.png, indexed, identical tile-aligned dimensions, one
// shared palette within the kind's group budget.
func (s *Studio) loadFrames(dir string, kind SpriteKind) (*inputSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newError(KindMissingFile, dir, "%v", err)
	}

	in := &inputSet{dir: dir, frameIndex: make(map[int]int)}
	seen := make(map[[2]int]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		m := frameLayerName.FindStringSubmatch(base)
		if m == nil {
			return nil, newError(KindInvalidFilename, path, "expected Frame-<f>-Layer-<l>.png")
		}
		frame, _ := strconv.Atoi(m[1])
		layer, _ := strconv.Atoi(m[2])
		if prev, ok := seen[[2]int{frame, layer}]; ok {
			return nil, newError(KindInvalidFilename, path, "duplicates frame %d layer %d (%s)", frame, layer, prev)
		}
		seen[[2]int{frame, layer}] = entry.Name()

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

		pal, err := palette.FromImagePalette(pm.Palette)
		if err != nil {
			return nil, newError(KindWrongPixelFormat, path, "%v", err)
		}
		if pal.Groups() > kind.MaxGroups() {
			return nil, newError(KindWrongPixelFormat, path,
				"uses %d colors, %s sprites allow %d", pal.Len(), kind, kind.MaxGroups()*palette.GroupSize)
		}
		if in.pal == nil {
			in.pal = pal
		} else if !in.pal.Equal(pal) {
			return nil, newError(KindPaletteMismatch, path, "palette differs from other images")
		}

		b := pm.Bounds()
		if in.width == 0 && in.height == 0 {
			if b.Dx()%tile.Size != 0 || b.Dy()%tile.Size != 0 {
				return nil, newError(KindNotMultipleOf8, path, "size %dx%d", b.Dx(), b.Dy())
			}
			in.width, in.height = b.Dx(), b.Dy()
		} else if b.Dx() != in.width || b.Dy() != in.height {
			return nil, newError(KindDimensionMismatch, path,
				"size %dx%d, expected %dx%d", b.Dx(), b.Dy(), in.width, in.height)
		}

		in.files = append(in.files, &sourceFile{frame: frame, layer: layer, name: entry.Name(), img: pm})
	}

	if len(in.files) == 0 {
		return nil, newError(KindMissingFile, dir, "no frame images found")
	}

	sort.Slice(in.files, func(i, j int) bool {
		if in.files[i].frame != in.files[j].frame {
			return in.files[i].frame < in.files[j].frame
		}
		return in.files[i].layer < in.files[j].layer
	})

	for _, f := range in.files {
		if _, ok := in.frameIndex[f.frame]; !ok {
			in.frameIndex[f.frame] = 0 // reassigned below once all frames are known
			in.frameNums = append(in.frameNums, f.frame)
		}
		layers, err := splitLayers(f)
		if err != nil {
			path := filepath.Join(dir, f.name)
			if errors.Is(err, tile.ErrMultiGroupTile) {
				return nil, newError(KindMultiGroupTile, path, "%v", err)
			}
			if errors.Is(err, tile.ErrNotMultipleOf8) {
				return nil, newError(KindNotMultipleOf8, path, "%v", err)
			}
			return nil, newError(KindWrongPixelFormat, path, "%v", err)
		}
		in.layers = append(in.layers, layers...)
	}

	sort.Ints(in.frameNums)
	for i, f := range in.frameNums {
		in.frameIndex[f] = i
	}

	return in, nil
}

// splitLayers turns one source file into its single-group extraction
// surfaces. A file whose tiles span several palette groups yields one
// derived surface per group, with every other group's pixels cleared to
// transparent (the Single-Cel Frame Mode split). Empty files yield none.
func splitLayers(f *sourceFile) ([]*sourceLayer, error) {
	grid, err := tile.NewGrid(f.img)
	if err != nil {
		return nil, err
	}

	groups := grid.GroupsUsed()
	if len(groups) == 0 {
		return nil, nil
	}
	if len(groups) == 1 {
		return []*sourceLayer{{
			frame: f.frame, layer: f.layer, group: groups[0],
			name: f.name,
			ext:  chunk.NewLayer(grid, groups[0]),
		}}, nil
	}

	var out []*sourceLayer
	b := f.img.Bounds()
	for _, g := range groups {
		derived := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), f.img.Palette)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				idx := f.img.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
				if !palette.IsTransparent(idx) && palette.GroupOf(idx) == g {
					derived.SetColorIndex(x, y, idx)
				}
			}
		}
		dg, err := tile.NewGrid(derived)
		if err != nil {
			return nil, err
		}
		out = append(out, &sourceLayer{
			frame: f.frame, layer: f.layer, group: g,
			name: f.name,
			ext:  chunk.NewLayer(dg, g),
		})
	}
	return out, nil
}

// buildObject runs the dedup scans and the greedy cover, then composes the
// per-frame cel lists.
func (s *Studio) buildObject(in *inputSet, cfg Config) (*object, error) {
	anims, err := resolveAnimations(in, &cfg)
	if err != nil {
		return nil, err
	}

	obj := &object{
		cfg:       cfg,
		pal:       in.pal,
		pool:      chunk.NewPool(),
		frameNums: in.frameNums,
		frames:    make([][]cel, len(in.frameNums)),
		anims:     anims,
		width:     in.width,
		height:    in.height,
	}

	addCel := func(layerIdx, tx, ty, id int) {
		l := in.layers[layerIdx]
		fi := in.frameIndex[l.frame]
		obj.frames[fi] = append(obj.frames[fi], cel{
			ChunkID: id,
			X:       tx * tile.Size,
			Y:       ty * tile.Size,
			Layer:   l.layer,
			Group:   l.group,
		})
	}

	s.scanRepeated(in, &cfg, obj.pool, addCel)

	sizes := cfg.Sizes()
	for li, l := range in.layers {
		li := li
		l.ext.Cover(sizes, cfg.MinDensity, func(tx, ty int, c *chunk.Chunk) {
			id, _ := obj.pool.Add(c)
			addCel(li, tx, ty, id)
		})
	}

	// Frames whose layers are all transparent still need one cel so the
	// frame renders.
	for fi := range obj.frames {
		if len(obj.frames[fi]) == 0 {
			id, _ := obj.pool.Add(chunk.Transparent(chunk.Size{W: 8, H: 8}))
			obj.frames[fi] = append(obj.frames[fi], cel{ChunkID: id})
		}
	}

	compose(obj)
	return obj, nil
}

// resolveAnimations validates the configured animations against the
// available frames, defaulting to a single animation over every frame.
func resolveAnimations(in *inputSet, cfg *Config) ([]Animation, error) {
	if len(cfg.Animations) == 0 {
		anim := Animation{}
		for _, f := range in.frameNums {
			anim.Frames = append(anim.Frames, FrameRef{Frame: f, Duration: DefaultDuration})
		}
		return []Animation{anim}, nil
	}
	for i, anim := range cfg.Animations {
		for _, ref := range anim.Frames {
			if _, ok := in.frameIndex[ref.Frame]; !ok {
				return nil, newError(KindInvalidConfig, in.dir,
					"animation %d references frame %d, which has no images", i, ref.Frame)
			}
		}
	}
	return cfg.Animations, nil
}

// compose orders each frame's cels and computes the memory accounting.
func compose(obj *object) {
	obj.frameMemory = make([]int, len(obj.frames))
	for fi, cels := range obj.frames {
		sort.SliceStable(cels, func(i, j int) bool {
			a, b := cels[i], cels[j]
			if a.Layer != b.Layer {
				return a.Layer < b.Layer
			}
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			if a.X != b.X {
				return a.X < b.X
			}
			if a.Group != b.Group {
				return a.Group < b.Group
			}
			return a.ChunkID < b.ChunkID
		})
		obj.frameMemory[fi] = frameMemory(obj.pool, cels)
	}
}

// frameMemory sums the VRAM cost over a frame's distinct chunks: duplicates
// within the frame are uploaded once.
func frameMemory(pool *chunk.Pool, cels []cel) int {
	seen := make(map[int]struct{}, len(cels))
	total := 0
	for _, c := range cels {
		if _, ok := seen[c.ChunkID]; ok {
			continue
		}
		seen[c.ChunkID] = struct{}{}
		total += pool.Chunk(c.ChunkID).Cost()
	}
	return total
}

// animationMemory returns the largest frame memory an animation touches.
func (obj *object) animationMemory(anim Animation) int {
	max := 0
	for _, ref := range anim.Frames {
		if m := obj.frameMemory[frameIndexOf(obj.frameNums, ref.Frame)]; m > max {
			max = m
		}
	}
	return max
}

func frameIndexOf(frameNums []int, frame int) int {
	for i, f := range frameNums {
		if f == frame {
			return i
		}
	}
	return 0
}

// Largest figures observed in unmodified game objects; exceeding them is
// worth a note even below the hard limits. Memory is in tile units.
const (
	baseGameMemory       = 0x8A * 4
	baseGameCelsPerFrame = 80
)

// summarize reports the run through the logger, including the engine limit
// warnings.
func (s *Studio) summarize(obj *object, outputDir string) {
	totalBytes := 0
	for _, c := range obj.pool.Chunks() {
		totalBytes += len(c.Pix)
	}
	s.logger.Printf("object written to %s: %s chunks (%s of pixels), palette with %s",
		outputDir,
		humanize.Comma(int64(obj.pool.Len())),
		humanize.Bytes(uint64(totalBytes)),
		obj.pal)

	for fi, cels := range obj.frames {
		s.logger.Printf("Frame-%d: %d cels, memory %d", obj.frameNums[fi], len(cels), obj.frameMemory[fi])
		if len(cels) > MaxCelsPerFrame {
			s.logger.Printf("[WARNING] ChunkLimitExceeded: Frame-%d uses %d cels, engine limit is %d",
				obj.frameNums[fi], len(cels), MaxCelsPerFrame)
		} else if len(cels) > baseGameCelsPerFrame {
			s.logger.Printf("Frame-%d uses %d cels; base-game frames stay within %d",
				obj.frameNums[fi], len(cels), baseGameCelsPerFrame)
		}
	}

	for i, anim := range obj.anims {
		mem := obj.animationMemory(anim)
		if mem > obj.cfg.MemoryBudget {
			s.logger.Printf("[WARNING] MemoryLimitExceeded: animation %d peaks at %d tile units, budget is %d",
				i, mem, obj.cfg.MemoryBudget)
		} else if mem > baseGameMemory {
			s.logger.Printf("animation %d peaks at %d tile units; base-game objects stay within %d",
				i, mem, baseGameMemory)
		}
	}
}

// engine actor center; every cel offset is expressed relative to it.
const (
	centerX = 256
	centerY = 512
)

// frameOrigin returns the serialized coordinate of the frame canvas
// top-left: the displace translation maps the chosen alignment point to the
// actor center.
func (obj *object) frameOrigin() (int, int) {
	return centerX + obj.cfg.DisplaceSprite[0] - obj.width/2,
		centerY + obj.cfg.DisplaceSprite[1] - obj.height/2
}
