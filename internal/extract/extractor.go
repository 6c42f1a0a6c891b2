package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
)

type Config struct {
	Pdftotext         string  // binary name or absolute path; if empty -> "pdftotext"
	MinPrintableRatio float64 // readability gate threshold, default 0.5
	MaxFileBytes      int64   // 0 = no limit
}

// Extractor turns a file into plain text, choosing a strategy by extension.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.MinPrintableRatio <= 0 {
		cfg.MinPrintableRatio = DefaultMinPrintableRatio
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner replaces the command runner used for PDFs.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

type rawText struct {
	text   string
	pages  int
	method string
}

// Extract returns readable text for path. Every failure, including a parser panic,
// comes back as an error wrapping common.ErrUnreadable.
func (e *Extractor) Extract(ctx context.Context, path string) (res entity.ExtractedText, err error) {
	start := time.Now()
	format := constants.MapExtToFormat(filepath.Ext(path))
	log := common.LoggerFromContext(ctx, e.logger).With("path", path, "format", format)

	defer func() {
		if r := recover(); r != nil {
			err = unreadable(format, fmt.Errorf("parser panic: %v", r))
			res = entity.ExtractedText{Path: path, Format: format}
		}
		if err != nil {
			log.Warn("extract.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		}
	}()

	raw, err := e.extractRaw(ctx, path, format)
	if err != nil {
		return entity.ExtractedText{Path: path, Format: format}, unreadable(format, err)
	}

	text := Normalize(raw.text)
	if text == "" {
		return entity.ExtractedText{Path: path, Format: format, Method: raw.method},
			unreadable(format, errors.New("no text extracted"))
	}
	if !IsReadable(text, e.cfg.MinPrintableRatio) {
		return entity.ExtractedText{Path: path, Format: format, Method: raw.method},
			unreadable(format, errors.New("text failed readability gate"))
	}

	log.Info("extract.ok",
		"method", raw.method,
		"pages", raw.pages,
		"runes", utf8.RuneCountInString(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return entity.ExtractedText{
		Path:   path,
		Format: format,
		Method: raw.method,
		Text:   text,
		Pages:  raw.pages,
	}, nil
}

// unreadable tags err with CodeUnreadable; errors.Is(err, common.ErrUnreadable) holds.
func unreadable(format string, err error) error {
	return common.NewAppError(common.CodeUnreadable, format+" extraction", fmt.Errorf("%w: %w", common.ErrUnreadable, err))
}

func (e *Extractor) extractRaw(ctx context.Context, path, format string) (rawText, error) {
	st, err := os.Stat(path)
	if err != nil {
		return rawText{}, err
	}
	if st.IsDir() {
		return rawText{}, fmt.Errorf("%s is a directory", path)
	}
	if e.cfg.MaxFileBytes > 0 && st.Size() > e.cfg.MaxFileBytes {
		return rawText{}, fmt.Errorf("file is %d bytes, limit is %d", st.Size(), e.cfg.MaxFileBytes)
	}

	if format == constants.FormatPDF {
		return e.pdfToText(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rawText{}, err
	}
	switch format {
	case constants.FormatDOCX:
		return docxText(data)
	case constants.FormatEML:
		return emlText(data)
	case constants.FormatMSG:
		return msgText(data)
	case constants.FormatRTF:
		return rtfText(data)
	default:
		text, enc := decodeText(data)
		return rawText{text: text, method: "plaintext/" + strings.ToLower(enc)}, nil
	}
}
