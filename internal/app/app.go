package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docsort/internal/archive"
	"github.com/joseph-ayodele/docsort/internal/classify"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
	"github.com/joseph-ayodele/docsort/internal/extract"
	"github.com/joseph-ayodele/docsort/internal/fields"
	"github.com/joseph-ayodele/docsort/internal/ingest"
	"github.com/joseph-ayodele/docsort/internal/llm"
	"github.com/joseph-ayodele/docsort/internal/llm/ollama"
	"github.com/joseph-ayodele/docsort/internal/pipeline"
	"github.com/joseph-ayodele/docsort/internal/report"
	"github.com/joseph-ayodele/docsort/internal/schema"
	"github.com/joseph-ayodele/docsort/internal/state"
)

// App holds every wired component of a docsort process.
type App struct {
	Config     *common.Config
	Logger     *slog.Logger
	Registry   *schema.Registry
	Generator  llm.Generator
	Extractor  *extract.Extractor
	Classifier *classify.Classifier
	Fields     *fields.Aggregator
	Reporter   *report.Reporter
	Walker     *ingest.Walker
	Ledger     *state.Store // nil when disabled
	Processor  *pipeline.Processor
}

// Option customizes Build.
type Option func(*options)

type options struct {
	gen llm.Generator
}

// WithGenerator replaces the Ollama client, e.g. with a test double.
func WithGenerator(g llm.Generator) Option {
	return func(o *options) { o.gen = g }
}

// Build validates cfg and wires the pipeline. The field schema is loaded here; a
// missing or malformed schema is a configuration error.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return nil, common.ConfigError(fmt.Sprintf("load field schema %q", cfg.Schema.Path), err)
	}
	logger.Info("schema.loaded", "path", cfg.Schema.Path)

	gen := o.gen
	if gen == nil {
		gen = ollama.NewClient(ollama.Config{
			BaseURL:           cfg.LLM.BaseURL,
			Timeout:           cfg.LLM.Timeout,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
			MaxPromptChars:    cfg.LLM.MaxPromptChars,
		}, logger)
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Registry:  reg,
		Generator: gen,
		Extractor: extract.NewExtractor(extract.Config{
			Pdftotext:         cfg.Extract.Pdftotext,
			MinPrintableRatio: cfg.Extract.MinPrintableRatio,
			MaxFileBytes:      cfg.Extract.MaxFileBytes,
		}, logger),
		Classifier: classify.NewClassifier(gen, cfg.LLM.ClassifierModel(), logger),
		Fields:     fields.NewAggregator(gen, reg, cfg.LLM.Model, cfg.Fields.Attempts, logger),
		Walker:     ingest.NewWalker(cfg.Input.IncludeHidden, logger),
	}

	a.Reporter, err = report.NewReporter(report.Config{
		OutputDir:      cfg.Report.OutputDir,
		OutcomeLog:     cfg.Report.OutcomeLog,
		LicenseTable:   cfg.Report.LicenseTable,
		AgreementTable: cfg.Report.AgreementTable,
	}, reg, logger)
	if err != nil {
		return nil, err
	}
	a.Walker.WithExclude(a.ownOutputs()...)

	if cfg.State.DSN != "" {
		st, err := state.Open(ctx, state.Config{DSN: cfg.State.DSN, DialTimeout: cfg.State.DialTimeout}, logger)
		switch {
		case err == nil:
			a.Ledger = st
		case cfg.State.Resume:
			return nil, common.ConfigError("resume requested but the state ledger is unavailable", err)
		default:
			logger.Warn("state.db.unavailable", "error", err)
		}
	}

	deps := pipeline.Deps{
		Extractor:  a.Extractor,
		Classifier: a.Classifier,
		Fields:     a.Fields,
		Schema:     reg,
		Sink:       a.Reporter,
	}
	if a.Ledger != nil {
		deps.Ledger = a.Ledger
	}
	a.Processor, err = pipeline.NewProcessor(logger, pipeline.Config{
		PDFMinTextRatio: cfg.Extract.PDFMinTextRatio,
		Resume:          cfg.State.Resume,
	}, deps)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// ownOutputs lists every file the run writes, so an output directory nested
// under the input directory is never fed back into the pipeline.
func (a *App) ownOutputs() []string {
	out := append(a.Reporter.Paths(), a.Config.Report.XLSXPath, a.Config.Log.File)
	return append(out, state.LocalFiles(a.Config.State.DSN)...)
}

// RunBatch walks the input directory and processes every file.
func (a *App) RunBatch(ctx context.Context, runID string) (entity.Summary, error) {
	files, stats, err := a.Walker.Walk(ctx, a.Config.Input.Dir)
	if err != nil {
		return entity.Summary{}, fmt.Errorf("list input files: %w", err)
	}
	a.Logger.Info("app.batch.files", "dir", a.Config.Input.Dir, "files", len(files), "hidden_skipped", stats.Hidden, "excluded", stats.Excluded)
	return a.Processor.Run(ctx, runID, files), nil
}

// ExportXLSX writes the review workbook when an XLSX path is configured.
func (a *App) ExportXLSX(ctx context.Context) (string, error) {
	path := a.Config.Report.XLSXPath
	if path == "" {
		return "", nil
	}
	counts, err := a.Reporter.ExportXLSX(ctx, path)
	if err != nil {
		return "", err
	}
	a.Logger.Info("app.xlsx.written", "path", path, "rows", counts)
	return path, nil
}

// Archive uploads the run artifacts when an archive endpoint is configured.
// Failures are logged only.
func (a *App) Archive(ctx context.Context, runID string, extra ...string) {
	cfg := a.Config.Archive
	if cfg.Endpoint == "" {
		return
	}
	arch, err := archive.NewArchiver(archive.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Prefix:    cfg.Prefix,
		UseSSL:    cfg.UseSSL,
	}, a.Logger)
	if err != nil {
		a.Logger.Error("archive.init_failed", "error", err)
		return
	}
	paths := append(a.Reporter.Paths(), extra...)
	if _, err := arch.Upload(ctx, runID, paths); err != nil {
		a.Logger.Error("archive.upload_failed", "run_id", runID, "error", err)
	}
}

// Close releases the ledger connection.
func (a *App) Close() error {
	if a.Ledger == nil {
		return nil
	}
	return a.Ledger.Close()
}
