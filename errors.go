package wanimation

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindInvalidFilename reports an input PNG not matching
	// Frame-<f>-Layer-<l>.png.
	KindInvalidFilename Kind = "InvalidFilename"

	// KindPaletteMismatch reports input images with differing palettes.
	KindPaletteMismatch Kind = "PaletteMismatch"

	// KindWrongPixelFormat reports a non-indexed image or one exceeding
	// the palette budget.
	KindWrongPixelFormat Kind = "WrongPixelFormat"

	// KindDimensionMismatch reports input images of differing sizes.
	KindDimensionMismatch Kind = "DimensionMismatch"

	// KindNotMultipleOf8 reports image dimensions that are not tile
	// aligned.
	KindNotMultipleOf8 Kind = "NotMultipleOf8"

	// KindMultiGroupTile reports a single 8x8 tile referencing two
	// palette groups.
	KindMultiGroupTile Kind = "MultiGroupTile"

	// KindTooManyAnimations reports a config with more than 8 animations.
	KindTooManyAnimations Kind = "TooManyAnimations"

	// KindInvalidConfig reports any other config.json validation failure.
	KindInvalidConfig Kind = "InvalidConfig"

	// KindMissingFile reports a required object-folder file that is
	// absent.
	KindMissingFile Kind = "MissingFile"

	// KindXMLParse reports a malformed XML document.
	KindXMLParse Kind = "XMLParseError"
)

// Error is a fatal pipeline failure. The CLI writes it to stderr as a single
// JSON line so callers can parse the kind, path, and message.
type Error struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path"`
	Msg  string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
}

// JSON returns the machine-readable form written to stderr.
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func newError(kind Kind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}
