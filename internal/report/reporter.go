package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
	"github.com/joseph-ayodele/docsort/internal/schema"
)

// OutcomeHeader is the column set of the outcome log.
var OutcomeHeader = []string{"file", "readable", "classification", "completed"}

type Config struct {
	OutputDir      string
	OutcomeLog     string
	LicenseTable   string
	AgreementTable string
}

// Reporter appends rows to the outcome log and the per-type structured tables.
// Files are only ever appended to; a header is written when a file is new or empty.
// A Reporter is safe for concurrent use.
type Reporter struct {
	cfg      Config
	registry *schema.Registry
	mu       sync.Mutex
	logger   *slog.Logger
}

func NewReporter(cfg Config, registry *schema.Registry, logger *slog.Logger) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.OutcomeLog == "" {
		cfg.OutcomeLog = constants.OutcomeLogFile
	}
	if cfg.LicenseTable == "" {
		cfg.LicenseTable = constants.LicenseTableFile
	}
	if cfg.AgreementTable == "" {
		cfg.AgreementTable = constants.AgreementTableFile
	}
	if registry == nil {
		return nil, common.ConfigError("reporter needs a field schema registry", nil)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, common.NewAppError(common.CodeReport, "create output dir", err)
	}
	return &Reporter{cfg: cfg, registry: registry, logger: logger}, nil
}

// OutcomeLogPath is the location of the outcome log.
func (r *Reporter) OutcomeLogPath() string {
	return r.resolve(r.cfg.OutcomeLog)
}

// TablePath is the structured table for dt, or "" for types without one.
func (r *Reporter) TablePath(dt constants.DocumentType) string {
	switch dt {
	case constants.License:
		return r.resolve(r.cfg.LicenseTable)
	case constants.Agreement:
		return r.resolve(r.cfg.AgreementTable)
	}
	return ""
}

// Paths lists every file the reporter writes.
func (r *Reporter) Paths() []string {
	return []string{r.OutcomeLogPath(), r.TablePath(constants.License), r.TablePath(constants.Agreement)}
}

func (r *Reporter) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.cfg.OutputDir, name)
}

// LogOutcome appends one row to the outcome log.
func (r *Reporter) LogOutcome(o entity.FileOutcome) error {
	class := o.Classification
	if class == "" {
		class = constants.Unknown
	}
	row := []string{o.FilePath, constants.YesNo(o.Readable), string(class), constants.YesNo(o.Completed)}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := appendRow(r.OutcomeLogPath(), constants.OutcomeDelimiter, OutcomeHeader, row); err != nil {
		return common.NewAppError(common.CodeReport, "append outcome log", err)
	}
	r.logger.Debug("report.outcome.appended", "file", o.FilePath, "readable", o.Readable,
		"classification", class, "completed", o.Completed)
	return nil
}

// TableHeader is "file" followed by the field names of dt in definition order.
func (r *Reporter) TableHeader(dt constants.DocumentType) []string {
	return append([]string{"file"}, r.registry.FieldNames(dt)...)
}

// WriteRecord appends rec to the structured table for dt. The file column holds
// the base name of filePath; unset fields are empty and unknown keys are dropped.
func (r *Reporter) WriteRecord(filePath string, dt constants.DocumentType, rec entity.FieldRecord) error {
	path := r.TablePath(dt)
	if path == "" {
		return fmt.Errorf("%w: no structured table for document type %q", common.ErrInvalidInput, dt)
	}
	header := r.TableHeader(dt)
	row := make([]string, len(header))
	row[0] = filepath.Base(filePath)
	for i, name := range header[1:] {
		row[i+1] = rec[name]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := appendRow(path, constants.TableDelimiter, header, row); err != nil {
		return common.NewAppError(common.CodeReport, fmt.Sprintf("append %s table", dt), err)
	}
	r.logger.Debug("report.record.appended", "file", filePath, "doc_type", dt, "table", path)
	return nil
}

func appendRow(path string, delim rune, header, row []string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Comma = delim
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
