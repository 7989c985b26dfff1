package wanimation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/firewraith2/wanimation/chunk"
)

const (
	// MaxAnimations is the largest animation count an object may carry.
	MaxAnimations = 8

	// MaxCelsPerFrame is the engine's per-frame render limit.
	MaxCelsPerFrame = 108

	// DefaultMemoryBudget is the engine's per-animation VRAM budget for
	// objects, in tile units.
	DefaultMemoryBudget = 0x3C0

	// DefaultDuration is the tick count used for frames of the implicit
	// animation when none is configured.
	DefaultDuration = 10
)

// SpriteKind selects the sprite flavor. It only parameterizes the palette
// group budget.
type SpriteKind int

const (
	Object SpriteKind = iota
	Effect
)

// MaxGroups returns the palette group budget of the kind.
func (k SpriteKind) MaxGroups() int {
	if k == Effect {
		return 3
	}
	return 12
}

func (k SpriteKind) String() string {
	if k == Effect {
		return "effect"
	}
	return "object"
}

// ParseSpriteKind parses "object" or "effect".
func ParseSpriteKind(s string) (SpriteKind, error) {
	switch s {
	case "object":
		return Object, nil
	case "effect":
		return Effect, nil
	}
	return 0, fmt.Errorf("unknown sprite kind %q", s)
}

// FrameRef is one animation step: a frame (by its filename integer) shown
// for a duration in 1/60 s ticks.
type FrameRef struct {
	Frame    int `json:"frame"`
	Duration int `json:"duration"`
}

// Animation is an ordered frame sequence.
type Animation struct {
	Frames []FrameRef `json:"frames"`
}

// Config carries the generator settings and animation structure. The JSON
// form round-trips through the object folder's config.json.
type Config struct {
	MinDensity     float64     `json:"min_density"`
	DisplaceSprite [2]int      `json:"displace_sprite"`
	IntraScan      bool        `json:"intra_scan"`
	InterScan      bool        `json:"inter_scan"`
	ScanChunkSizes [][2]int    `json:"scan_chunk_sizes"`
	Animations     []Animation `json:"animations"`

	// Not part of the serialized schema.
	Kind         SpriteKind `json:"-"`
	MemoryBudget int        `json:"-"`
}

// DefaultConfig returns the settings used when a folder carries no
// config.json: density 0.5, both dedup scans on, all chunk sizes enabled.
func DefaultConfig() Config {
	return Config{
		MinDensity:   0.5,
		IntraScan:    true,
		InterScan:    true,
		MemoryBudget: DefaultMemoryBudget,
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults; a present file only overrides the fields it sets.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, newError(KindInvalidConfig, path, "%v", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, newError(KindInvalidConfig, path, "%v", err)
	}
	if err := cfg.Validate(path); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings against the schema limits. path is only used
// for error reporting.
func (c *Config) Validate(path string) error {
	if c.MinDensity < 0 || c.MinDensity > 1 {
		return newError(KindInvalidConfig, path, "min_density %v outside 0..1", c.MinDensity)
	}
	if len(c.Animations) > MaxAnimations {
		return newError(KindTooManyAnimations, path, "%d animations, maximum is %d", len(c.Animations), MaxAnimations)
	}
	for i, anim := range c.Animations {
		if len(anim.Frames) == 0 {
			return newError(KindInvalidConfig, path, "animation %d has no frames", i)
		}
		for _, ref := range anim.Frames {
			if ref.Frame < 0 {
				return newError(KindInvalidConfig, path, "animation %d references negative frame %d", i, ref.Frame)
			}
			if ref.Duration < 1 {
				return newError(KindInvalidConfig, path, "animation %d: duration %d below 1 tick", i, ref.Duration)
			}
		}
	}
	for _, s := range c.ScanChunkSizes {
		if !(chunk.Size{W: s[0], H: s[1]}).Valid() {
			return newError(KindInvalidConfig, path, "chunk size %dx%d is not an allowed resolution", s[0], s[1])
		}
	}
	if c.MemoryBudget <= 0 {
		c.MemoryBudget = DefaultMemoryBudget
	}
	return nil
}

// Sizes resolves scan_chunk_sizes into canonical scan order. A nil list
// means every size; an explicitly empty list enables only 8x8.
func (c *Config) Sizes() []chunk.Size {
	if c.ScanChunkSizes == nil {
		return chunk.Sizes
	}
	if len(c.ScanChunkSizes) == 0 {
		return []chunk.Size{{W: 8, H: 8}}
	}
	enabled := make(map[chunk.Size]bool, len(c.ScanChunkSizes))
	for _, s := range c.ScanChunkSizes {
		enabled[chunk.Size{W: s[0], H: s[1]}] = true
	}
	var out []chunk.Size
	for _, s := range chunk.Sizes {
		if enabled[s] {
			out = append(out, s)
		}
	}
	return out
}

// resolved returns a copy with scan_chunk_sizes made explicit, suitable for
// serializing into the output config.json.
func (c *Config) resolved() Config {
	dup := *c
	sizes := c.Sizes()
	dup.ScanChunkSizes = make([][2]int, len(sizes))
	for i, s := range sizes {
		dup.ScanChunkSizes[i] = [2]int{s.W, s.H}
	}
	return dup
}

// Save writes the config as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
