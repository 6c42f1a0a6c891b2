package classify

import "strings"

func buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze the following document and determine if the doc_type is an AGREEMENT or a LICENSE.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- If the document mentions terms like 'invoice', 'payment', 'license purchase', or 'subscription', classify it as LICENSE.\n")
	b.WriteString("- If the document discusses terms like 'contract', 'agreement', 'terms and conditions', or 'service level agreement', classify it as AGREEMENT.\n")
	b.WriteString("- If uncertain, classify it as UNKNOWN.\n\n")
	b.WriteString("Document Text:\n")
	b.WriteString(text)
	b.WriteString("\n\nYour response must be either 'AGREEMENT', 'LICENSE', or 'UNKNOWN'.\n")
	return b.String()
}
