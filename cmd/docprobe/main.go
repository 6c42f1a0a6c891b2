package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/docsort/internal/classify"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
	"github.com/joseph-ayodele/docsort/internal/extract"
	"github.com/joseph-ayodele/docsort/internal/fields"
	"github.com/joseph-ayodele/docsort/internal/llm/ollama"
	"github.com/joseph-ayodele/docsort/internal/schema"
)

type attemptReport struct {
	Attempt        int                  `json:"attempt"`
	Classification classify.Result      `json:"classification"`
	Attempts       []entity.FieldRecord `json:"attempts,omitempty"`
	Consensus      entity.FieldRecord   `json:"consensus,omitempty"`
	Complete       bool                 `json:"complete"`
	Missing        []string             `json:"missing,omitempty"`
	ElapsedMS      int64                `json:"elapsed_ms"`
}

type probeReport struct {
	File   string          `json:"file"`
	Format string          `json:"format"`
	Method string          `json:"method"`
	Pages  int             `json:"pages,omitempty"`
	Chars  int             `json:"chars"`
	Runs   []attemptReport `json:"runs"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	times := flag.Int("times", 3, "how many times to classify and extract")
	flag.Parse()
	if flag.NArg() != 1 || *times < 1 {
		logger.Error("usage: docprobe [-config file] [-times N] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	reg, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		logger.Error("load field schema", "path", cfg.Schema.Path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	ex := extract.NewExtractor(extract.Config{
		Pdftotext:         cfg.Extract.Pdftotext,
		MinPrintableRatio: cfg.Extract.MinPrintableRatio,
		MaxFileBytes:      cfg.Extract.MaxFileBytes,
	}, logger)
	text, err := ex.Extract(ctx, path)
	if err != nil {
		logger.Error("extract", "file", path, "error", err)
		os.Exit(1)
	}

	gen := ollama.NewClient(ollama.Config{
		BaseURL:           cfg.LLM.BaseURL,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		MaxPromptChars:    cfg.LLM.MaxPromptChars,
	}, logger)
	cls := classify.NewClassifier(gen, cfg.LLM.ClassifierModel(), logger)
	agg := fields.NewAggregator(gen, reg, cfg.LLM.Model, cfg.Fields.Attempts, logger)

	rep := probeReport{
		File:   path,
		Format: text.Format,
		Method: text.Method,
		Pages:  text.Pages,
		Chars:  len([]rune(text.Text)),
	}
	for i := 1; i <= *times; i++ {
		start := time.Now()
		r := attemptReport{Attempt: i, Classification: cls.Decide(ctx, text.Text)}
		if r.Classification.DocType.IsExtractable() {
			attempts, err := agg.Collect(ctx, text.Text, r.Classification.DocType)
			if err != nil {
				logger.Error("extract fields", "attempt", i, "error", err)
			}
			r.Attempts = attempts
			r.Consensus = fields.Reduce(attempts)
			r.Complete, r.Missing = r.Consensus.Complete(reg.RequiredFieldNames(r.Classification.DocType))
		}
		r.ElapsedMS = time.Since(start).Milliseconds()
		rep.Runs = append(rep.Runs, r)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
