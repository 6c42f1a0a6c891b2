package pipeline

import (
	"context"
	"time"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/entity"
)

// TextExtractor produces readable text for a file or an error meaning "no text".
type TextExtractor interface {
	Extract(ctx context.Context, path string) (entity.ExtractedText, error)
}

// DocumentClassifier never fails; UNKNOWN is a valid answer.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) constants.DocumentType
}

// FieldExtractor returns the consensus field record for a classified document.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string, dt constants.DocumentType) (entity.FieldRecord, error)
}

// RequiredFields exposes the per-type required subsets used for completeness.
type RequiredFields interface {
	RequiredFieldNames(dt constants.DocumentType) []string
}

// Sink receives the per-file outputs.
type Sink interface {
	LogOutcome(o entity.FileOutcome) error
	WriteRecord(filePath string, dt constants.DocumentType, rec entity.FieldRecord) error
}

// Ledger remembers what earlier runs already handled. Optional.
type Ledger interface {
	Seen(ctx context.Context, path, contentHash string) (bool, error)
	Record(ctx context.Context, o entity.FileOutcome, contentHash, runID string, at time.Time) error
	StartRun(ctx context.Context, id string, at time.Time) error
	FinishRun(ctx context.Context, id string, at time.Time, processed, skipped int) error
}
