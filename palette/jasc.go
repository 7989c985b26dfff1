package palette

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strings"
)

const (
	jascMagic   = "JASC-PAL"
	jascVersion = "0100"
)

// Encode writes p to w in the JASC-PAL text format: the magic and version
// lines, the color count, then one "R G B" line per color.
func Encode(w io.Writer, p *Palette) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "%s\r\n%s\r\n%d\r\n", jascMagic, jascVersion, p.Len())
	for _, c := range p.colors {
		fmt.Fprintf(b, "%d %d %d\r\n", c.R, c.G, c.B)
	}
	return b.Flush()
}

// Decode reads a JASC-PAL palette from r.
func Decode(r io.Reader) (*Palette, error) {
	s := bufio.NewScanner(r)

	line := func() (string, error) {
		if !s.Scan() {
			if err := s.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(s.Text()), nil
	}

	magic, err := line()
	if err != nil {
		return nil, err
	}
	if magic != jascMagic {
		return nil, fmt.Errorf("palette: bad magic %q", magic)
	}
	version, err := line()
	if err != nil {
		return nil, err
	}
	if version != jascVersion {
		return nil, fmt.Errorf("palette: unsupported version %q", version)
	}
	countLine, err := line()
	if err != nil {
		return nil, err
	}
	var count int
	if _, err := fmt.Sscanf(countLine, "%d", &count); err != nil {
		return nil, fmt.Errorf("palette: bad color count %q", countLine)
	}
	if count < 1 || count > MaxColors {
		return nil, fmt.Errorf("palette: color count %d out of range", count)
	}

	colors := make([]color.RGBA, count)
	for i := 0; i < count; i++ {
		entry, err := line()
		if err != nil {
			return nil, err
		}
		var cr, cg, cb int
		if _, err := fmt.Sscanf(entry, "%d %d %d", &cr, &cg, &cb); err != nil {
			return nil, fmt.Errorf("palette: bad color entry %q", entry)
		}
		if cr < 0 || cr > 255 || cg < 0 || cg > 255 || cb < 0 || cb > 255 {
			return nil, fmt.Errorf("palette: color entry %q out of range", entry)
		}
		colors[i] = color.RGBA{uint8(cr), uint8(cg), uint8(cb), 0xff}
	}

	return New(colors)
}
