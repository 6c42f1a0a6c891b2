package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/docsort/internal/app"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to a YAML config file (optional)")
		dir        = flag.String("dir", "", "input directory to process")
		out        = flag.String("out", "", "directory for the outcome log and tables")
		fieldsPath = flag.String("fields", "", "path to the field schema JSON")
		attempts   = flag.Int("attempts", 0, "field extraction attempts per document")
		resume     = flag.Bool("resume", false, "skip files already handled with the same content")
		watch      = flag.Bool("watch", false, "keep running and process new or changed files")
		xlsx       = flag.String("xlsx", "", "also write a review workbook to this path")
		hidden     = flag.Bool("hidden", true, "include hidden files and directories")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}

	// flags override config only when given
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Input.Dir = *dir
		case "out":
			cfg.Report.OutputDir = *out
		case "fields":
			cfg.Schema.Path = *fieldsPath
		case "attempts":
			cfg.Fields.Attempts = *attempts
		case "resume":
			cfg.State.Resume = *resume
		case "watch":
			cfg.Input.Watch = *watch
		case "xlsx":
			cfg.Report.XLSXPath = *xlsx
		case "hidden":
			cfg.Input.IncludeHidden = *hidden
		}
	})

	logger, closeLog, err := common.NewLogger(cfg.Log)
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		printError("Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close failed", "error", err)
		}
	}()

	runID := pipeline.NewRunID()
	logger.Info("docsort.start",
		"run_id", runID,
		"dir", cfg.Input.Dir,
		"out", cfg.Report.OutputDir,
		"model", cfg.LLM.Model,
		"attempts", cfg.Fields.Attempts,
		"resume", cfg.State.Resume)

	sum, err := a.RunBatch(ctx, runID)
	if err != nil {
		logger.Error("batch failed", "error", err)
		printError("Error: %v\n", err)
		return 1
	}
	if err := pipeline.WriteSummary(os.Stdout, sum); err != nil {
		logger.Warn("print summary failed", "error", err)
	}

	xlsxPath, err := a.ExportXLSX(ctx)
	if err != nil {
		logger.Error("xlsx export failed", "error", err)
	}

	if cfg.Input.Watch {
		logger.Info("docsort.watch", "dir", cfg.Input.Dir)
		if err := a.Watch(ctx, runID); err != nil {
			logger.Error("watch failed", "error", err)
		}
		if p, err := a.ExportXLSX(context.Background()); err == nil && p != "" {
			xlsxPath = p
		}
	}

	a.Archive(context.Background(), runID, xlsxPath, cfg.Log.File)
	logger.Info("docsort.done", "run_id", runID)
	return 0
}
