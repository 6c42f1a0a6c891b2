package classify

import (
	"strings"

	"github.com/joseph-ayodele/docsort/constants"
)

type keywordRule struct {
	docType  constants.DocumentType
	keywords []string
}

// Checked in order; the first category with any match wins.
var keywordRules = []keywordRule{
	{constants.License, []string{"invoice", "payment", "license purchase", "subscription"}},
	{constants.Agreement, []string{"contract", "agreement", "terms and conditions", "service level agreement"}},
}

// Fallback classifies text by case-insensitive keyword search. LICENSE keywords
// take precedence over AGREEMENT keywords; no match yields UNKNOWN.
func Fallback(text string) constants.DocumentType {
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.docType
			}
		}
	}
	return constants.Unknown
}
