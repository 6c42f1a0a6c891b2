package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/llm"
	"github.com/joseph-ayodele/docsort/internal/schema"
)

// Decision sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Result is a classification together with how it was reached.
type Result struct {
	DocType constants.DocumentType `json:"doc_type"`
	Source  string                 `json:"source"`
	// ModelValue is the raw doc_type returned by the model, if any.
	ModelValue string `json:"model_value,omitempty"`
	// ModelErr is set when the model call or its output was unusable.
	ModelErr error `json:"-"`
}

// Classifier assigns a document type, asking the model first.
type Classifier struct {
	gen    llm.Generator
	model  string
	logger *slog.Logger
}

func NewClassifier(gen llm.Generator, model string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{gen: gen, model: model, logger: logger}
}

// Classify never fails: any model problem, including a model answer of UNKNOWN,
// is resolved by the keyword fallback.
func (c *Classifier) Classify(ctx context.Context, text string) constants.DocumentType {
	return c.Decide(ctx, text).DocType
}

// Decide is Classify with the decision details exposed.
func (c *Classifier) Decide(ctx context.Context, text string) Result {
	log := common.LoggerFromContext(ctx, c.logger)

	value, err := c.ask(ctx, text)
	if err == nil {
		if dt, ok := constants.ParseDocumentType(value); ok && dt.IsExtractable() {
			log.Info("classify.decided", "doc_type", dt, "source", SourceModel)
			return Result{DocType: dt, Source: SourceModel, ModelValue: value}
		}
		err = fmt.Errorf("%w: unusable doc_type %q", common.ErrInference, value)
	}

	dt := Fallback(text)
	log.Warn("classify.fallback", "doc_type", dt, "source", SourceFallback, "model_value", value, "reason", err)
	return Result{DocType: dt, Source: SourceFallback, ModelValue: value, ModelErr: err}
}

func (c *Classifier) ask(ctx context.Context, text string) (string, error) {
	if c.gen == nil {
		return "", fmt.Errorf("%w: no generator configured", common.ErrInference)
	}
	resp, err := c.gen.Generate(ctx, llm.GenerateRequest{
		Model:  c.model,
		Prompt: buildPrompt(text),
		Format: schema.ClassificationFormat(),
	})
	if err != nil {
		return "", err
	}
	obj, err := llm.DecodeObject(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInference, err)
	}
	raw, ok := obj["doc_type"]
	if !ok {
		return "", fmt.Errorf("%w: response has no doc_type", common.ErrInference)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: doc_type is %T, not a string", common.ErrInference, raw)
	}
	return s, nil
}
