package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// Options controls document discovery.
type Options struct {
	IncludeExts []string // defaults to constants.AllowedExtensions
	SkipHidden  bool
	Logger      *slog.Logger
}

// Discover expands inputs into document paths, keeping input order. Plain files are taken
// as given; directories are walked in lexical order and filtered by extension.
func Discover(ctx context.Context, inputs []string, opts Options) ([]string, DirStats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exts := extSet(opts.IncludeExts)

	var (
		paths []string
		stats DirStats
	)
	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return paths, stats, err
		}
		st, err := os.Stat(in)
		if err != nil || !st.IsDir() {
			// missing files are left to acquisition, which skips them
			stats.Scanned++
			stats.Matched++
			paths = append(paths, in)
			continue
		}

		found, dirStats, err := walkDirectory(ctx, in, exts, opts.SkipHidden, logger)
		stats.Scanned += dirStats.Scanned
		stats.Matched += dirStats.Matched
		stats.Failed += dirStats.Failed
		paths = append(paths, found...)
		if err != nil {
			return paths, stats, err
		}
	}
	return paths, stats, nil
}

func walkDirectory(ctx context.Context, root string, exts map[string]struct{}, skipHidden bool, logger *slog.Logger) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var found []string
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("ingest.walk.error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := exts[normalize(filepath.Ext(path))]; !ok {
			return nil
		}
		stats.Matched++
		found = append(found, path)
		return nil
	})
	if err != nil {
		return found, stats, fmt.Errorf("walk %s: %w", root, err)
	}
	logger.Debug("ingest.walk.done", "root", root, "matched", stats.Matched, "scanned", stats.Scanned)
	return found, stats, nil
}
