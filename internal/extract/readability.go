package extract

import "unicode/utf8"

// Readability defaults.
const (
	DefaultMinPrintableRatio = 0.5
	DefaultPDFMinTextRatio   = 0.01
	MinReadableRunes         = 5
)

// IsReadable reports whether text looks like document content rather than decoded
// binary: at least MinReadableRunes runes, of which at least minRatio are printable
// ASCII (letters, digits, punctuation or whitespace).
func IsReadable(text string, minRatio float64) bool {
	total := utf8.RuneCountInString(text)
	if total < MinReadableRunes {
		return false
	}
	printable := 0
	for _, r := range text {
		if isPrintableASCII(r) {
			printable++
		}
	}
	return float64(printable)/float64(total) >= minRatio
}

func isPrintableASCII(r rune) bool {
	switch {
	case r >= 0x20 && r < 0x7f:
		return true
	case r == '\t', r == '\n', r == '\r', r == '\v', r == '\f':
		return true
	}
	return false
}

// PDFDensity is characters per thousand-character page.
func PDFDensity(chars, pages int) float64 {
	if pages <= 0 {
		return 0
	}
	return float64(chars) / float64(pages*1000)
}

// IsDensePDF reports whether a PDF carries enough text to count as machine-readable.
func IsDensePDF(chars, pages int, minRatio float64) bool {
	return PDFDensity(chars, pages) > minRatio
}
