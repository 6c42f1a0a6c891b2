package fields

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/schema"
)

func buildPrompt(text string, dt constants.DocumentType, defs []schema.FieldDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract structured %s details from the following document and return them in JSON format.\n\n", dt)
	b.WriteString("Document text:\n")
	b.WriteString(text)
	b.WriteString("\n\nRequired fields:\n")
	for _, d := range defs {
		fmt.Fprintf(&b, "- %s: %s (Example: %s)\n", d.Name, d.Description, d.Example)
	}
	b.WriteString("\nEnsure the JSON contains all listed fields, even if empty.")
	return b.String()
}
