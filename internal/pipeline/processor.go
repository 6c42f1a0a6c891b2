package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
	"github.com/joseph-ayodele/docsort/internal/extract"
)

const tracerName = "github.com/joseph-ayodele/docsort/internal/pipeline"

// ErrResumed marks a file skipped because the ledger already holds it unchanged.
var ErrResumed = errors.New("already processed")

type Config struct {
	PDFMinTextRatio float64 // density gate for PDFs, default 0.01
	Resume          bool    // skip files the ledger has seen with the same hash
}

// Deps are the collaborators of a Processor. Ledger may be nil.
type Deps struct {
	Extractor  TextExtractor
	Classifier DocumentClassifier
	Fields     FieldExtractor
	Schema     RequiredFields
	Sink       Sink
	Ledger     Ledger
}

// Processor sequences extraction, classification, field extraction and reporting
// for one file at a time.
type Processor struct {
	Logger *slog.Logger
	cfg    Config
	deps   Deps
	tracer trace.Tracer
	now    func() time.Time
}

func NewProcessor(logger *slog.Logger, cfg Config, deps Deps) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Extractor == nil || deps.Classifier == nil || deps.Fields == nil || deps.Schema == nil || deps.Sink == nil {
		return nil, fmt.Errorf("%w: processor is missing a collaborator", common.ErrInvalidInput)
	}
	if cfg.PDFMinTextRatio <= 0 {
		cfg.PDFMinTextRatio = extract.DefaultPDFMinTextRatio
	}
	return &Processor{
		Logger: logger,
		cfg:    cfg,
		deps:   deps,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}, nil
}

// ProcessFile runs one file through the pipeline and returns its outcome.
// Unreadable and UNKNOWN files get an outcome row but no structured row.
// The returned error is file-scoped: reporter I/O failures, or ErrResumed.
func (p *Processor) ProcessFile(ctx context.Context, file entity.SourceFile) (entity.FileOutcome, error) {
	ctx = common.WithFilePath(ctx, file.Path)
	log := common.LoggerFromContext(ctx, p.Logger)

	ctx, span := p.tracer.Start(ctx, "pipeline.ProcessFile",
		trace.WithAttributes(
			attribute.String("file.path", file.Path),
			attribute.String("file.ext", file.Ext),
			attribute.Int64("file.size", file.Size),
		))
	defer span.End()

	if skip, err := p.alreadyHandled(ctx, file); err != nil {
		log.Warn("pipeline.resume.lookup_failed", "error", err)
	} else if skip {
		log.Info("pipeline.file.resumed", "hash", file.ContentHash)
		span.SetAttributes(attribute.Bool("file.resumed", true))
		return entity.FileOutcome{FilePath: file.Path}, ErrResumed
	}

	start := time.Now()
	log.Info("pipeline.file.start")

	outcome, err := p.process(ctx, file)
	span.SetAttributes(
		attribute.Bool("outcome.readable", outcome.Readable),
		attribute.String("outcome.classification", string(outcome.Classification)),
		attribute.Bool("outcome.completed", outcome.Completed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("pipeline.file.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return outcome, err
	}

	if p.deps.Ledger != nil {
		if err := p.deps.Ledger.Record(ctx, outcome, file.ContentHash, common.RunIDFromContext(ctx), p.now()); err != nil {
			log.Warn("pipeline.ledger.record_failed", "error", err)
		}
	}
	log.Info("pipeline.file.done",
		"readable", outcome.Readable,
		"classification", outcome.Classification,
		"completed", outcome.Completed,
		"elapsed_ms", time.Since(start).Milliseconds())
	return outcome, nil
}

func (p *Processor) alreadyHandled(ctx context.Context, file entity.SourceFile) (bool, error) {
	if !p.cfg.Resume || p.deps.Ledger == nil || file.ContentHash == "" {
		return false, nil
	}
	return p.deps.Ledger.Seen(ctx, file.Path, file.ContentHash)
}

func (p *Processor) process(ctx context.Context, file entity.SourceFile) (entity.FileOutcome, error) {
	log := common.LoggerFromContext(ctx, p.Logger)

	// 1) text
	text, ok := p.readableText(ctx, file.Path)
	if !ok {
		log.Warn("pipeline.file.unreadable")
		o := entity.Unreadable(file.Path)
		return o, p.logOutcome(o)
	}

	// 2) classification
	dt := p.classify(ctx, text)
	if dt == constants.Unknown {
		log.Warn("pipeline.file.unknown")
		o := entity.FileOutcome{FilePath: file.Path, Readable: true, Classification: constants.Unknown}
		return o, p.logOutcome(o)
	}

	// 3) fields + completeness
	o := entity.FileOutcome{FilePath: file.Path, Readable: true, Classification: dt}
	rec, err := p.extractFields(ctx, text, dt)
	if err != nil {
		return o, err
	}
	complete, missing := rec.Complete(p.deps.Schema.RequiredFieldNames(dt))
	if !complete {
		log.Warn("pipeline.fields.missing", "doc_type", dt, "missing", missing)
	}
	o.Completed = complete

	// 4) outputs
	if err := p.deps.Sink.WriteRecord(file.Path, dt, rec); err != nil {
		return o, fmt.Errorf("write record: %w", err)
	}
	return o, p.logOutcome(o)
}

// readableText applies the extractor and, for PDFs, the page density gate.
func (p *Processor) readableText(ctx context.Context, path string) (string, bool) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract")
	defer span.End()

	res, err := p.deps.Extractor.Extract(ctx, path)
	if err != nil {
		span.RecordError(err)
		return "", false
	}
	span.SetAttributes(
		attribute.String("extract.format", res.Format),
		attribute.String("extract.method", res.Method),
		attribute.Int("extract.pages", res.Pages),
	)
	if res.Text == "" {
		return "", false
	}
	if res.Format == constants.FormatPDF && res.Pages > 0 {
		chars := utf8.RuneCountInString(res.Text)
		if !extract.IsDensePDF(chars, res.Pages, p.cfg.PDFMinTextRatio) {
			common.LoggerFromContext(ctx, p.Logger).Warn("pipeline.pdf.sparse",
				"chars", chars,
				"pages", res.Pages,
				"density", extract.PDFDensity(chars, res.Pages),
				"min", p.cfg.PDFMinTextRatio)
			span.SetAttributes(attribute.Bool("extract.sparse_pdf", true))
			return "", false
		}
	}
	return res.Text, true
}

func (p *Processor) classify(ctx context.Context, text string) constants.DocumentType {
	ctx, span := p.tracer.Start(ctx, "pipeline.classify")
	defer span.End()
	dt := p.deps.Classifier.Classify(ctx, text)
	span.SetAttributes(attribute.String("classify.doc_type", string(dt)))
	return dt
}

func (p *Processor) extractFields(ctx context.Context, text string, dt constants.DocumentType) (entity.FieldRecord, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.fields")
	defer span.End()
	rec, err := p.deps.Fields.ExtractFields(ctx, text, dt)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("extract fields: %w", err)
	}
	span.SetAttributes(attribute.Int("fields.count", len(rec)))
	return rec, nil
}

func (p *Processor) logOutcome(o entity.FileOutcome) error {
	if err := p.deps.Sink.LogOutcome(o); err != nil {
		return fmt.Errorf("log outcome: %w", err)
	}
	return nil
}
