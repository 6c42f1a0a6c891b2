package constants

import "strings"

// Formats handled by the text extractor. Anything unrecognized is FormatText via the
// generic fallback.
const (
	FormatPDF  = "PDF"
	FormatTXT  = "TXT"
	FormatDOCX = "DOCX"
	FormatEML  = "EML"
	FormatMSG  = "MSG"
	FormatRTF  = "RTF"
	FormatText = "TEXT"
)

var extToFormat = map[string]string{
	"pdf":  FormatPDF,
	"txt":  FormatTXT,
	"docx": FormatDOCX,
	"eml":  FormatEML,
	"msg":  FormatMSG,
	"rtf":  FormatRTF,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps an extension (with or without dot) to its extractor format.
func MapExtToFormat(ext string) string {
	if f, ok := extToFormat[NormalizeExt(ext)]; ok {
		return f
	}
	return FormatText
}

// IsRecognizedExt reports whether ext has a dedicated extractor.
func IsRecognizedExt(ext string) bool {
	_, ok := extToFormat[NormalizeExt(ext)]
	return ok
}
