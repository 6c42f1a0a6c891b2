package extract

import (
	"context"
	"fmt"
	"strings"
)

func (e *Extractor) pdfToText(ctx context.Context, path string) (rawText, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return rawText{}, fmt.Errorf("pdftotext: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	text := string(out)
	// pdftotext ends every page, blank ones included, with a form feed.
	pages := strings.Count(text, "\f")
	if pages < 1 {
		pages = 1
	}
	body := strings.TrimRight(text, "\f\n")
	return rawText{
		text:   strings.ReplaceAll(body, "\f", "\n"),
		pages:  pages,
		method: "pdftotext",
	}, nil
}
