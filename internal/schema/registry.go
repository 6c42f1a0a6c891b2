package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
)

//go:embed source.schema.json
var sourceSchemaJSON []byte

const sourceSchemaURL = "docsort://fields.schema.json"

// FieldDefinition describes one field to extract for a document type.
type FieldDefinition struct {
	Name        string `json:"field_name"`
	Description string `json:"description"`
	Example     string `json:"example"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
}

type rawField struct {
	Name        string          `json:"field_name"`
	Description string          `json:"description"`
	Example     json.RawMessage `json:"example"`
	Type        string          `json:"type"`
	Required    bool            `json:"required"`
}

type rawSource struct {
	LicenseFields   []rawField `json:"license_fields"`
	AgreementFields []rawField `json:"agreement_fields"`
}

// Registry is the immutable catalog of field definitions per document type.
// It is safe for concurrent use.
type Registry struct {
	groups map[constants.DocumentType][]FieldDefinition
}

// Load reads and validates the field schema source at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ConfigError(fmt.Sprintf("field schema %q not found", path), err)
		}
		return nil, common.ConfigError(fmt.Sprintf("read field schema %q", path), err)
	}
	return Parse(data)
}

// Parse builds a registry from the raw schema source.
func Parse(data []byte) (*Registry, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, common.ConfigError("field schema is not valid JSON", err)
	}
	sch, err := compileSourceSchema()
	if err != nil {
		return nil, common.ConfigError("compile field schema meta-schema", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, common.ConfigError("field schema does not match expected shape", err)
	}

	var src rawSource
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, common.ConfigError("decode field schema", err)
	}

	reg := &Registry{groups: make(map[constants.DocumentType][]FieldDefinition, 2)}
	for dt, group := range map[constants.DocumentType][]rawField{
		constants.License:   src.LicenseFields,
		constants.Agreement: src.AgreementFields,
	} {
		defs, err := buildGroup(dt, group)
		if err != nil {
			return nil, err
		}
		reg.groups[dt] = defs
	}
	return reg, nil
}

func compileSourceSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(sourceSchemaURL, bytes.NewReader(sourceSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(sourceSchemaURL)
}

func buildGroup(dt constants.DocumentType, group []rawField) ([]FieldDefinition, error) {
	seen := make(map[string]struct{}, len(group))
	defs := make([]FieldDefinition, 0, len(group))
	for i, f := range group {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, common.ConfigError(fmt.Sprintf("%s field #%d has an empty field_name", dt, i), nil)
		}
		if _, dup := seen[name]; dup {
			return nil, common.ConfigError(fmt.Sprintf("%s field %q is defined more than once", dt, name), nil)
		}
		seen[name] = struct{}{}

		typ := f.Type
		if typ == "" {
			typ = "string"
		}
		defs = append(defs, FieldDefinition{
			Name:        name,
			Description: f.Description,
			Example:     exampleString(f.Example),
			Type:        typ,
			Required:    f.Required,
		})
	}
	return defs, nil
}

// Examples may be written as any JSON value; prompts only need their text.
func exampleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Fields returns a copy of the ordered definitions for dt; nil for UNKNOWN.
func (r *Registry) Fields(dt constants.DocumentType) []FieldDefinition {
	return slices.Clone(r.groups[dt])
}

// FieldNames returns field names for dt in definition order.
func (r *Registry) FieldNames(dt constants.DocumentType) []string {
	defs := r.groups[dt]
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// RequiredFieldNames returns the names of required fields for dt in definition order.
func (r *Registry) RequiredFieldNames(dt constants.DocumentType) []string {
	var names []string
	for _, d := range r.groups[dt] {
		if d.Required {
			names = append(names, d.Name)
		}
	}
	return names
}

// Has reports whether dt has a field group.
func (r *Registry) Has(dt constants.DocumentType) bool {
	_, ok := r.groups[dt]
	return ok
}

// FormatSchema returns the JSON-schema object sent as the structured-output hint
// for field extraction.
func (r *Registry) FormatSchema(dt constants.DocumentType) map[string]any {
	defs := r.groups[dt]
	props := make(map[string]any, len(defs))
	required := make([]string, 0, len(defs))
	for _, d := range defs {
		props[d.Name] = map[string]any{"type": d.Type}
		if d.Required {
			required = append(required, d.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ClassificationFormat is the structured-output hint for classification.
func ClassificationFormat() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"doc_type": map[string]any{"type": "string"},
		},
		"required": []string{"doc_type"},
	}
}
