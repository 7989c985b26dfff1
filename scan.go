package wanimation

import (
	"github.com/firewraith2/wanimation/chunk"
	"github.com/firewraith2/wanimation/tile"
)

// tracked is a candidate occurrence remembered by a repeated-chunk scan. It
// claims nothing until a second occurrence matches it.
type tracked struct {
	li, tx, ty int
	c          *chunk.Chunk
}

// scanRepeated runs the intra-frame and inter-frame repeated-chunk scans.
// They walk the enabled sizes largest first, ahead of the greedy cover, so
// regions that repeat at a smaller size are claimed before a bigger chunk
// can absorb them. Larger sizes win because their memory density is higher.
func (s *Studio) scanRepeated(in *inputSet, cfg *Config, pool *chunk.Pool, addCel func(li, tx, ty, id int)) {
	sizes := cfg.Sizes()

	if cfg.IntraScan {
		for _, frame := range in.frameNums {
			idxs := in.frameLayerIndices(frame)
			for _, sz := range sizes {
				scanMatches(in, idxs, sz, cfg.MinDensity, pool, addCel, false)
			}
		}
	}

	if cfg.InterScan {
		all := make([]int, len(in.layers))
		for i := range in.layers {
			all[i] = i
		}
		for _, sz := range sizes {
			scanMatches(in, all, sz, cfg.MinDensity, pool, addCel, true)
		}
	}
}

// scanMatches sweeps the given layers for repeated chunks of one size. The
// first occurrence of a bitmap is only tracked; when a second occurrence
// matches it (byte-identical, not overlapping the first), both become cels
// of one pooled chunk. With usePool set the sweep also dedups against
// chunks already registered by earlier sweeps (the inter-frame mode).
func scanMatches(in *inputSet, layerIdxs []int, sz chunk.Size, minDensity float64, pool *chunk.Pool, addCel func(li, tx, ty, id int), usePool bool) {
	tracking := make(map[chunk.Hash][]tracked)

	for _, li := range layerIdxs {
		l := in.layers[li].ext
		grid := l.Grid()
		tw, th := sz.W/tile.Size, sz.H/tile.Size

		for ty := 0; ty <= grid.Height()-th; ty++ {
			for tx := 0; tx <= grid.Width()-tw; tx++ {
				cand := l.Candidate(tx, ty, sz, minDensity)
				if cand == nil {
					continue
				}

				if usePool {
					if id, ok := pool.Lookup(cand); ok {
						l.Claim(tx, ty, sz)
						addCel(li, tx, ty, id)
						continue
					}
				}

				h := cand.Hash()
				matched := false
				for _, t := range tracking[h] {
					if !t.c.Equal(cand) {
						continue
					}
					if t.li == li && regionsOverlap(t.tx, t.ty, tx, ty, sz) {
						continue
					}

					ol := in.layers[t.li].ext
					id, ok := pool.Lookup(cand)
					if !ok {
						// First materialization: the tracked
						// occurrence becomes the chunk.
						if !ol.Unclaimed(t.tx, t.ty, sz) {
							continue
						}
						id, _ = pool.Add(t.c)
						ol.Claim(t.tx, t.ty, sz)
						addCel(t.li, t.tx, t.ty, id)
					} else if ol.Unclaimed(t.tx, t.ty, sz) {
						ol.Claim(t.tx, t.ty, sz)
						addCel(t.li, t.tx, t.ty, id)
					}

					l.Claim(tx, ty, sz)
					addCel(li, tx, ty, id)
					matched = true
					break
				}

				if !matched {
					tracking[h] = append(tracking[h], tracked{li: li, tx: tx, ty: ty, c: cand})
				}
			}
		}
	}
}

func regionsOverlap(ax, ay, bx, by int, sz chunk.Size) bool {
	tw, th := sz.W/tile.Size, sz.H/tile.Size
	return ax < bx+tw && bx < ax+tw && ay < by+th && by < ay+th
}
