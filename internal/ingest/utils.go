package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// ExcludeSet is a set of files never reported by Walk or the watcher, used
// for the run's own outputs when they sit under the input root.
type ExcludeSet map[string]struct{}

// NewExcludeSet keys each non-empty path by its absolute, cleaned form.
func NewExcludeSet(paths ...string) ExcludeSet {
	s := ExcludeSet{}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		s[absPath(p)] = struct{}{}
	}
	return s
}

// Contains reports whether path names an excluded file.
func (s ExcludeSet) Contains(path string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[absPath(path)]
	return ok
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// HashFile returns the hex SHA-256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
