package constants

import "strings"

// DocumentType is the coarse category assigned to a processed file.
type DocumentType string

const (
	Agreement DocumentType = "AGREEMENT"
	License   DocumentType = "LICENSE"
	Unknown   DocumentType = "UNKNOWN"
)

var allDocumentTypes = []DocumentType{Agreement, License, Unknown}

// ExtractableTypes are the document types that carry a field schema.
var ExtractableTypes = []DocumentType{License, Agreement}

// ParseDocumentType accepts exact values only; model output such as "agreement"
// or " LICENSE" is not trusted.
func ParseDocumentType(s string) (DocumentType, bool) {
	for _, dt := range allDocumentTypes {
		if s == string(dt) {
			return dt, true
		}
	}
	return Unknown, false
}

// Canonicalize is the lenient variant used for user input (CLI flags, config).
func Canonicalize(input string) (DocumentType, bool) {
	return ParseDocumentType(strings.ToUpper(strings.TrimSpace(input)))
}

// IsExtractable reports whether fields are extracted for dt.
func (dt DocumentType) IsExtractable() bool {
	return dt == License || dt == Agreement
}
