package fields

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
	"github.com/joseph-ayodele/docsort/internal/llm"
	"github.com/joseph-ayodele/docsort/internal/schema"
)

// Aggregator runs repeated structured-extraction attempts and reduces them by consensus.
type Aggregator struct {
	gen      llm.Generator
	registry *schema.Registry
	model    string
	attempts int
	logger   *slog.Logger
}

func NewAggregator(gen llm.Generator, registry *schema.Registry, model string, attempts int, logger *slog.Logger) *Aggregator {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{gen: gen, registry: registry, model: model, attempts: attempts, logger: logger}
}

// Attempts returns the configured number of extraction attempts.
func (a *Aggregator) Attempts() int { return a.attempts }

// ExtractFields returns the consensus record for text. It only fails for document
// types without a field group; model failures just contribute empty attempts.
func (a *Aggregator) ExtractFields(ctx context.Context, text string, dt constants.DocumentType) (entity.FieldRecord, error) {
	attempts, err := a.Collect(ctx, text, dt)
	if err != nil {
		return nil, err
	}
	record := Reduce(attempts)
	common.LoggerFromContext(ctx, a.logger).Info("fields.extract.done",
		"doc_type", dt, "attempts", len(attempts), "fields", len(record))
	return record, nil
}

// Collect runs every attempt and returns the individual results without reducing them.
func (a *Aggregator) Collect(ctx context.Context, text string, dt constants.DocumentType) ([]entity.FieldRecord, error) {
	if !dt.IsExtractable() || !a.registry.Has(dt) {
		return nil, fmt.Errorf("%w: no field schema for document type %q", common.ErrInvalidInput, dt)
	}
	log := common.LoggerFromContext(ctx, a.logger)
	defs := a.registry.Fields(dt)
	format := a.registry.FormatSchema(dt)
	prompt := buildPrompt(text, dt, defs)

	log.Info("fields.extract.start", "doc_type", dt, "attempts", a.attempts, "fields", len(defs))
	out := make([]entity.FieldRecord, 0, a.attempts)
	for i := range a.attempts {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		start := time.Now()
		rec, err := a.attempt(ctx, prompt, format)
		if err != nil {
			log.Error("fields.extract.attempt_failed", "doc_type", dt, "attempt", i+1, "error", err)
			rec = entity.FieldRecord{}
		}
		log.Debug("fields.extract.attempt", "doc_type", dt, "attempt", i+1,
			"fields", len(rec), "elapsed_ms", time.Since(start).Milliseconds())
		out = append(out, rec)
	}
	return out, nil
}

func (a *Aggregator) attempt(ctx context.Context, prompt string, format map[string]any) (entity.FieldRecord, error) {
	if a.gen == nil {
		return nil, fmt.Errorf("%w: no generator configured", common.ErrInference)
	}
	resp, err := a.gen.Generate(ctx, llm.GenerateRequest{Model: a.model, Prompt: prompt, Format: format})
	if err != nil {
		return nil, err
	}
	obj, err := llm.DecodeObject(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInference, err)
	}
	// Type mismatches are logged only.
	if data, mErr := json.Marshal(obj); mErr == nil {
		if vErr := llm.ValidateJSONAgainstSchema(format, data); vErr != nil {
			common.LoggerFromContext(ctx, a.logger).Warn("fields.extract.schema_mismatch", "error", vErr)
		}
	}
	return entity.FieldRecord(llm.NormalizeValues(obj)), nil
}
