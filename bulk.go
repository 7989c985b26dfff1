package wanimation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
)

const bulkWorkers = 4

// listSpriteFolders returns the immediate subdirectories of dir, sorted,
// skipping hidden entries and the well-known output folder names.
func listSpriteFolders(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Skip hidden directories, otherwise we end up fighting with things like Spotlight, etc.
		if name[0] == '.' {
			continue
		}
		switch name {
		case "object", "frames", "DEBUG":
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Studio) feedFolders(ctx context.Context, folders []string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, folder := range folders {
			select {
			case out <- folder:
			case <-ctx.Done():
				errc <- errors.New("bulk conversion cancelled")
				return
			}
		}
	}()
	return out, errc
}

// folderWorker converts folders from in until the channel drains. A failing
// folder is logged and reported on failures; it never aborts the pipeline.
func (s *Studio) folderWorker(ctx context.Context, in <-chan string, failures chan<- string, bar *progressbar.ProgressBar, base Config) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for folder := range in {
			if ctx.Err() != nil {
				errc <- ctx.Err()
				return
			}

			cfg, err := LoadConfig(filepath.Join(folder, "config.json"))
			if err == nil {
				cfg.Kind = base.Kind
				cfg.MemoryBudget = base.MemoryBudget
				err = s.GenerateObject(folder, filepath.Join(folder, "object"), cfg)
			}
			if err != nil {
				s.logger.Printf("[ERROR] %s: %v", folder, err)
				failures <- folder
			}
			bar.Add(1)
		}
	}()
	return errc
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// ConvertAll runs the forward pipeline over every immediate subfolder of
// dir, a fixed pool of workers wide. Folders share no mutable state; each
// uses its own config.json when present and the default settings
// otherwise. Only the sprite kind and memory budget are taken from base.
// Failed folders are logged and skipped.
func (s *Studio) ConvertAll(dir string, base Config) error {
	folders, err := listSpriteFolders(dir)
	if err != nil {
		return err
	}
	if len(folders) == 0 {
		return newError(KindMissingFile, dir, "no sprite folders found")
	}

	bar := progressbar.Default(int64(len(folders)), "converting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var errcList []<-chan error

	in, errc := s.feedFolders(ctx, folders)
	errcList = append(errcList, errc)

	failures := make(chan string, len(folders))
	for i := 0; i < bulkWorkers; i++ {
		errcList = append(errcList, s.folderWorker(ctx, in, failures, bar, base))
	}

	if err := waitForPipeline(errcList...); err != nil {
		return err
	}
	close(failures)

	failed := 0
	for range failures {
		failed++
	}
	s.logger.Printf("converted %d of %d folders (%d failed)", len(folders)-failed, len(folders), failed)
	return nil
}
