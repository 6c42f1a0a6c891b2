package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
)

// Workbook sheet names.
const (
	SheetOutcomes   = "Outcomes"
	SheetLicenses   = "Licenses"
	SheetAgreements = "Agreements"
)

const maxColWidth = 60

// ExportXLSX writes a review workbook with one sheet per table to path and returns
// the number of data rows written per sheet. Missing tables produce sheets with
// only a header row.
func (r *Reporter) ExportXLSX(ctx context.Context, path string) (map[string]int, error) {
	start := time.Now()

	type source struct {
		sheet  string
		path   string
		delim  rune
		header []string
	}
	sources := []source{
		{SheetOutcomes, r.OutcomeLogPath(), constants.OutcomeDelimiter, OutcomeHeader},
		{SheetLicenses, r.TablePath(constants.License), constants.TableDelimiter, r.TableHeader(constants.License)},
		{SheetAgreements, r.TablePath(constants.Agreement), constants.TableDelimiter, r.TableHeader(constants.Agreement)},
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	counts := make(map[string]int, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := r.readTable(src.path, src.delim)
		if err != nil {
			return nil, common.NewAppError(common.CodeReport, "read "+src.path, err)
		}
		if len(rows) == 0 {
			rows = [][]string{src.header}
		}

		if i == 0 {
			if err := f.SetSheetName("Sheet1", src.sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(src.sheet); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", src.sheet, err)
		}
		if err := writeSheet(f, src.sheet, rows); err != nil {
			return nil, err
		}
		counts[src.sheet] = len(rows) - 1
	}
	f.SetActiveSheet(0)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create xlsx dir: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return nil, common.NewAppError(common.CodeReport, "xlsx write", err)
	}

	r.logger.Info("report.xlsx.ok",
		"path", path,
		"outcomes", counts[SheetOutcomes],
		"licenses", counts[SheetLicenses],
		"agreements", counts[SheetAgreements],
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return counts, nil
}

func (r *Reporter) readTable(path string, delim rune) ([][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fh, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	cr := csv.NewReader(fh)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func writeSheet(f *excelize.File, sheet string, rows [][]string) error {
	widths := map[int]int{}
	for ri, row := range rows {
		for ci, v := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
			if n := len([]rune(v)); n > widths[ci] {
				widths[ci] = n
			}
		}
	}
	for ci, w := range widths {
		col, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return err
		}
		_ = f.SetColWidth(sheet, col, col, float64(min(max(w+2, 10), maxColWidth)))
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
