package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize unifies line endings, composes to NFC and trims surrounding whitespace.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = lineEndings.Replace(s)
	s = norm.NFC.String(s)
	return strings.TrimSpace(s)
}
