package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
)

// NewRunID returns a fresh batch identifier.
func NewRunID() string { return uuid.NewString() }

// Run processes files strictly one after another and summarizes the batch.
// A failing file never stops the batch; only context cancellation does.
func (p *Processor) Run(ctx context.Context, runID string, files []entity.SourceFile) entity.Summary {
	if runID == "" {
		runID = NewRunID()
	}
	ctx = common.WithRunID(ctx, runID)
	log := common.LoggerFromContext(ctx, p.Logger)

	ctx, span := p.tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	sum := entity.Summary{RunID: runID, StartedAt: p.now()}
	if p.deps.Ledger != nil {
		if err := p.deps.Ledger.StartRun(ctx, runID, sum.StartedAt); err != nil {
			log.Warn("pipeline.ledger.start_failed", "error", err)
		}
	}
	log.Info("pipeline.run.start", "files", len(files), "resume", p.cfg.Resume)

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			log.Warn("pipeline.run.cancelled", "remaining", len(files)-i, "error", err)
			break
		}
		o, err := p.ProcessFile(ctx, f)
		tally(&sum, f.Path, o, err)
	}

	sum.FinishedAt = p.now()
	if p.deps.Ledger != nil {
		if err := p.deps.Ledger.FinishRun(ctx, runID, sum.FinishedAt, sum.ProcessedCount(), sum.SkippedCount()); err != nil {
			log.Warn("pipeline.ledger.finish_failed", "error", err)
		}
	}
	span.SetAttributes(
		attribute.Int("run.processed", sum.ProcessedCount()),
		attribute.Int("run.skipped", sum.SkippedCount()),
	)
	log.Info("pipeline.run.done",
		"complete", sum.Complete,
		"incomplete", sum.Incomplete,
		"skipped", sum.Skipped,
		"elapsed_ms", sum.Elapsed().Milliseconds())
	return sum
}

// WriteSummary renders the end-of-run summary for humans.
func WriteSummary(w io.Writer, s entity.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "======== SUMMARY (run %s) ========\n", s.RunID)
	fmt.Fprintf(&b, "Processed: %d (complete %d, incomplete %d)\n", s.ProcessedCount(), len(s.Complete), len(s.Incomplete))
	for _, p := range s.Complete {
		fmt.Fprintf(&b, "  [complete]   %s\n", p)
	}
	for _, p := range s.Incomplete {
		fmt.Fprintf(&b, "  [incomplete] %s\n", p)
	}
	fmt.Fprintf(&b, "Skipped: %d\n", s.SkippedCount())
	for _, f := range s.Skipped {
		fmt.Fprintf(&b, "  [%s] %s\n", f.Reason, f.Path)
	}
	fmt.Fprintf(&b, "Elapsed: %s\n", s.Elapsed().Round(time.Millisecond))
	b.WriteString("======== END ========\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// tally puts a per-file result into its summary bucket.
func tally(s *entity.Summary, path string, o entity.FileOutcome, err error) {
	switch {
	case errors.Is(err, ErrResumed):
		s.Skipped = append(s.Skipped, entity.SkippedFile{Path: path, Reason: entity.SkipResumed})
	case err != nil:
		s.Skipped = append(s.Skipped, entity.SkippedFile{Path: path, Reason: entity.SkipFailed})
	case !o.Readable:
		s.Skipped = append(s.Skipped, entity.SkippedFile{Path: path, Reason: entity.SkipUnreadable})
	case o.Classification == constants.Unknown:
		s.Skipped = append(s.Skipped, entity.SkippedFile{Path: path, Reason: entity.SkipUnknown})
	case o.Completed:
		s.Complete = append(s.Complete, path)
	default:
		s.Incomplete = append(s.Incomplete, path)
	}
}
