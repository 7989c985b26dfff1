package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/firewraith2/wanimation"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newStudio(c *cli.Context) *wanimation.Studio {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return wanimation.New(logger, c.Bool("debug"))
}

// exit writes the machine-readable error line to stderr and maps every
// failure to status 1.
func exit(err error) error {
	if err == nil {
		return nil
	}
	var werr *wanimation.Error
	if !errors.As(err, &werr) {
		werr = &wanimation.Error{Kind: wanimation.Kind("Internal"), Msg: err.Error()}
	}
	fmt.Fprintln(os.Stderr, werr.JSON())
	return cli.Exit("", 1)
}

func parseDisplace(s string) ([2]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]int{}, fmt.Errorf("displace %q: expected dx,dy", s)
	}
	var out [2]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("displace %q: %v", s, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseSizes(s string) ([][2]int, error) {
	if strings.TrimSpace(s) == "" {
		return [][2]int{}, nil
	}
	var out [][2]int
	for _, part := range strings.Split(s, ",") {
		var w, h int
		if _, err := fmt.Sscanf(strings.ToLower(strings.TrimSpace(part)), "%dx%d", &w, &h); err != nil {
			return nil, fmt.Errorf("chunk size %q: expected WxH", part)
		}
		out = append(out, [2]int{w, h})
	}
	return out, nil
}

// objectConfig builds the forward settings: the folder's config.json under
// any explicitly set flags.
func objectConfig(c *cli.Context, dir string) (wanimation.Config, error) {
	cfg, err := wanimation.LoadConfig(filepath.Join(dir, "config.json"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("density") {
		cfg.MinDensity = c.Float64("density")
	}
	if c.IsSet("displace") {
		d, err := parseDisplace(c.String("displace"))
		if err != nil {
			return cfg, err
		}
		cfg.DisplaceSprite = d
	}
	if c.IsSet("no-intra") {
		cfg.IntraScan = false
	}
	if c.IsSet("no-inter") {
		cfg.InterScan = false
	}
	if c.IsSet("sizes") {
		sizes, err := parseSizes(c.String("sizes"))
		if err != nil {
			return cfg, err
		}
		cfg.ScanChunkSizes = sizes
	}
	kind, err := wanimation.ParseSpriteKind(c.String("kind"))
	if err != nil {
		return cfg, err
	}
	cfg.Kind = kind
	cfg.MemoryBudget = c.Int("budget")
	return cfg, cfg.Validate(dir)
}

func main() {
	app := cli.NewApp()

	app.Name = "wanimation"
	app.Usage = "convert sprites between frame images and chunked objects"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "write annotated chunk overlays next to the input",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "object",
			Usage:     "Decompose Frame-<f>-Layer-<l>.png images into a chunked object folder",
			ArgsUsage: "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output folder (default: DIRECTORY/object)",
				},
				&cli.Float64Flag{
					Name:  "density",
					Value: 0.5,
					Usage: "minimum non-empty tile fraction per chunk row and column",
				},
				&cli.StringFlag{
					Name:  "displace",
					Value: "0,0",
					Usage: "dx,dy translation aligning the sprite on the actor center",
				},
				&cli.BoolFlag{
					Name:  "no-intra",
					Usage: "skip the intra-frame repeated chunk scan",
				},
				&cli.BoolFlag{
					Name:  "no-inter",
					Usage: "skip the inter-frame repeated chunk scan",
				},
				&cli.StringFlag{
					Name:  "sizes",
					Usage: "chunk sizes to scan, e.g. 32x32,16x16,8x8",
				},
				&cli.StringFlag{
					Name:  "kind",
					Value: "object",
					Usage: "sprite kind: object or effect",
				},
				&cli.IntFlag{
					Name:  "budget",
					Value: wanimation.DefaultMemoryBudget,
					Usage: "per-animation memory budget in tile units",
				},
				&cli.BoolFlag{
					Name:  "bulk",
					Usage: "convert every subfolder of DIRECTORY instead",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				dir := c.Args().First()
				s := newStudio(c)

				if c.Bool("bulk") {
					cfg := wanimation.DefaultConfig()
					kind, err := wanimation.ParseSpriteKind(c.String("kind"))
					if err != nil {
						return exit(err)
					}
					cfg.Kind = kind
					cfg.MemoryBudget = c.Int("budget")
					return exit(s.ConvertAll(dir, cfg))
				}

				cfg, err := objectConfig(c, dir)
				if err != nil {
					return exit(err)
				}
				out := c.String("output")
				if out == "" {
					out = filepath.Join(dir, "object")
				}
				return exit(s.GenerateObject(dir, out, cfg))
			},
		},
		{
			Name:      "frames",
			Usage:     "Assemble an object folder back into layered frame images",
			ArgsUsage: "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output folder (default: DIRECTORY/frames)",
				},
				&cli.StringFlag{
					Name:  "overlap",
					Value: "none",
					Usage: "overlap policy: chunk, pixel, palette, or none",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				dir := c.Args().First()
				policy, err := wanimation.ParseOverlapPolicy(c.String("overlap"))
				if err != nil {
					return exit(err)
				}
				out := c.String("output")
				if out == "" {
					out = filepath.Join(dir, "frames")
				}
				return exit(newStudio(c).GenerateFrames(dir, out, policy))
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
