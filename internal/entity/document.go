package entity

import (
	"time"

	"github.com/joseph-ayodele/docsort/constants"
)

// ExtractedText is the result of running a file through the text extractor.
type ExtractedText struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Method string `json:"method"`
	Text   string `json:"text"`
	Pages  int    `json:"pages,omitempty"`
}

// SourceFile is a regular file discovered under the input root.
type SourceFile struct {
	Path        string    `json:"path"`
	Ext         string    `json:"ext"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	ContentHash string    `json:"content_hash,omitempty"`
}

// FileOutcome is one row of the outcome log.
type FileOutcome struct {
	FilePath       string                 `json:"file"`
	Readable       bool                   `json:"readable"`
	Classification constants.DocumentType `json:"classification"`
	Completed      bool                   `json:"completed"`
}

// Unreadable builds the outcome recorded for a file that produced no usable text.
func Unreadable(path string) FileOutcome {
	return FileOutcome{FilePath: path, Classification: constants.Unknown}
}
