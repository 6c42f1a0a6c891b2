package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime"
)

// emlText renders an RFC 5322 message as its subject line followed by every
// inline text/plain part. Messages without one fall back to enmime's text
// body, which is the HTML part down-converted to text.
func emlText(data []byte) (rawText, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return rawText{}, fmt.Errorf("parse eml: %w", err)
	}

	var chunks []string
	if subj := env.GetHeader("Subject"); subj != "" {
		chunks = append(chunks, "Subject: "+subj)
	}
	body := plainParts(env.Root, nil)
	if len(body) == 0 {
		body = []string{env.Text}
	}
	chunks = append(chunks, body...)

	var kept []string
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	return rawText{text: strings.Join(kept, "\n"), method: "enmime"}, nil
}

// plainParts collects decoded text/plain leaves in document order.
func plainParts(p *enmime.Part, out []string) []string {
	for ; p != nil; p = p.NextSibling {
		if p.FirstChild != nil {
			out = plainParts(p.FirstChild, out)
			continue
		}
		if strings.EqualFold(p.ContentType, "text/plain") && !strings.EqualFold(p.Disposition, "attachment") {
			out = append(out, string(p.Content))
		}
	}
	return out
}
