package wanimation

import "fmt"

// OverlapPolicy selects when two cels may not share a layer during the
// reverse conversion.
type OverlapPolicy string

const (
	// OverlapChunk conflicts cels whose bounding rectangles intersect
	// with differing palette groups.
	OverlapChunk OverlapPolicy = "chunk"

	// OverlapPixel conflicts cels sharing a non-transparent pixel
	// position with differing palette groups.
	OverlapPixel OverlapPolicy = "pixel"

	// OverlapPalette conflicts any two cels with differing palette
	// groups.
	OverlapPalette OverlapPolicy = "palette"

	// OverlapNone never conflicts; everything lands on one layer.
	OverlapNone OverlapPolicy = "none"
)

// ParseOverlapPolicy parses a policy name.
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch p := OverlapPolicy(s); p {
	case OverlapChunk, OverlapPixel, OverlapPalette, OverlapNone:
		return p, nil
	}
	return "", fmt.Errorf("unknown overlap policy %q", s)
}

// placedCel is the view of a cel the resolver needs: position, palette
// group, and the non-transparent pixel mask (row-major, w*h).
type placedCel struct {
	x, y, w, h int
	pal        int
	mask       []bool
}

func rectsIntersect(a, b placedCel) bool {
	return a.x < b.x+b.w && b.x < a.x+a.w && a.y < b.y+b.h && b.y < a.y+a.h
}

func pixelsIntersect(a, b placedCel) bool {
	x0, x1 := max(a.x, b.x), min(a.x+a.w, b.x+b.w)
	y0, y1 := max(a.y, b.y), min(a.y+a.h, b.y+b.h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if a.mask[(y-a.y)*a.w+(x-a.x)] && b.mask[(y-b.y)*b.w+(x-b.x)] {
				return true
			}
		}
	}
	return false
}

func conflict(policy OverlapPolicy, a, b placedCel) bool {
	switch policy {
	case OverlapPalette:
		return a.pal != b.pal
	case OverlapChunk:
		return a.pal != b.pal && rectsIntersect(a, b)
	case OverlapPixel:
		return a.pal != b.pal && pixelsIntersect(a, b)
	}
	return false
}

// assignLayers gives each cel a layer so that no two cels on one layer
// conflict under the policy. First-fit in input order: each cel lands on
// the lowest-numbered conflict-free layer, opening a new one if needed.
// First-fit is part of the observable behavior; outputs must stay
// byte-identical across runs.
func assignLayers(policy OverlapPolicy, cels []placedCel) []int {
	out := make([]int, len(cels))
	var layers [][]int
	for i, c := range cels {
		placed := false
		for li, members := range layers {
			ok := true
			for _, j := range members {
				if conflict(policy, cels[j], c) {
					ok = false
					break
				}
			}
			if ok {
				layers[li] = append(layers[li], i)
				out[i] = li
				placed = true
				break
			}
		}
		if !placed {
			layers = append(layers, []int{i})
			out[i] = len(layers) - 1
		}
	}
	return out
}
