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

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
)

// Walker reads from the local filesystem.
type Walker struct {
	IncludeHidden bool
	Exclude       ExcludeSet
	logger        *slog.Logger
}

func NewWalker(includeHidden bool, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{IncludeHidden: includeHidden, logger: logger}
}

// WithExclude skips the given files on every walk.
func (w *Walker) WithExclude(paths ...string) *Walker {
	w.Exclude = NewExcludeSet(paths...)
	return w
}

// Walk visits root depth-first in lexical order. Every regular file is returned,
// whatever its extension; a file whose hash cannot be computed is still listed
// (with an empty hash) so it gets an outcome row downstream.
func (w *Walker) Walk(ctx context.Context, root string) ([]entity.SourceFile, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, fmt.Errorf("%w: root path is required", common.ErrInvalidInput)
	}

	var files []entity.SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			w.logger.Warn("ingest.walk.error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if path != root && !w.IncludeHidden && IsHidden(path) {
			stats.Hidden++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if w.Exclude.Contains(path) {
			stats.Excluded++
			return nil
		}
		stats.Matched++

		sf := entity.SourceFile{
			Path: path,
			Ext:  constants.NormalizeExt(filepath.Ext(path)),
		}
		if info, err := d.Info(); err == nil {
			sf.Size = info.Size()
			sf.ModTime = info.ModTime().UTC()
		}
		hash, err := HashFile(path)
		if err != nil {
			w.logger.Warn("ingest.hash.failed", "path", path, "error", err)
			stats.Failed++
		} else {
			sf.ContentHash = hash
			stats.Hashed++
		}
		files = append(files, sf)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return files, stats, err
		}
		return files, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	w.logger.Info("ingest.walk.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"hidden", stats.Hidden,
		"excluded", stats.Excluded,
		"failed", stats.Failed)
	return files, stats, nil
}

// Describe builds a SourceFile for a single path, used by watch mode.
func Describe(path string) (entity.SourceFile, error) {
	sf := entity.SourceFile{Path: path, Ext: constants.NormalizeExt(filepath.Ext(path))}
	info, err := os.Stat(path)
	if err != nil {
		return sf, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return sf, fmt.Errorf("%w: %s is not a regular file", common.ErrInvalidInput, path)
	}
	sf.Size = info.Size()
	sf.ModTime = info.ModTime().UTC()
	hash, err := HashFile(path)
	if err != nil {
		return sf, err
	}
	sf.ContentHash = hash
	return sf, nil
}
