package ingest

import (
	"context"

	"github.com/joseph-ayodele/docsort/internal/entity"
)

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned  uint32
	Matched  uint32
	Hidden   uint32
	Excluded uint32
	Hashed   uint32
	Failed   uint32
}

// Lister is the behavior the pipeline depends on.
type Lister interface {
	// Walk lists all regular files under root in lexical order.
	Walk(ctx context.Context, root string) ([]entity.SourceFile, DirStats, error)
}
