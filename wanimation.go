/*
Package wanimation converts 2D animated sprites between layered frame images
(Frame-<f>-Layer-<l>.png sharing one global palette) and the tile-chunked
object representation used by the engine (palette.pal, imgs/NNNN.png,
frames.xml, animations.xml, config.json).
*/
package wanimation

import "log"

// Studio drives conversions. All warnings and the conversion summary go
// through the logger; pass a discarding logger to silence them.
type Studio struct {
	logger *log.Logger
	debug  bool
}

// New returns a Studio. With debug enabled, the forward pipeline also writes
// annotated copies of every input layer showing the chunk placements.
func New(logger *log.Logger, debug bool) *Studio {
	return &Studio{
		logger: logger,
		debug:  debug,
	}
}
