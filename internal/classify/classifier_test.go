package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/llm"
)

func fixed(resp string, err error) llm.Generator {
	return llm.GeneratorFunc(func(context.Context, llm.GenerateRequest) (string, error) {
		return resp, err
	})
}

func TestFallback(t *testing.T) {
	cases := []struct {
		text string
		want constants.DocumentType
	}{
		{"Please pay the attached INVOICE", constants.License},
		{"Master Services Contract", constants.Agreement},
		{"Terms and Conditions apply", constants.Agreement},
		{"This Service Level Agreement covers the subscription fee", constants.License},
		{"Meeting notes from Tuesday", constants.Unknown},
		{"", constants.Unknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Fallback(tc.text), tc.text)
	}
}

func TestFallbackProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("case insensitive", prop.ForAll(
		func(s string) bool {
			return Fallback(s) == Fallback(strings.ToUpper(s)) && Fallback(s) == Fallback(strings.ToLower(s))
		},
		gen.OneGenOf(gen.AlphaString(), gen.OneConstOf("Invoice", "CONTRACT", "Subscription agreement", "plain")),
	))

	properties.Property("license keyword always wins", prop.ForAll(
		func(prefix, suffix string) bool {
			return Fallback(prefix+" agreement payment "+suffix) == constants.License
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestClassifyUsesModelAnswer(t *testing.T) {
	var req llm.GenerateRequest
	gen := llm.GeneratorFunc(func(_ context.Context, r llm.GenerateRequest) (string, error) {
		req = r
		return `{"doc_type":"AGREEMENT"}`, nil
	})
	c := NewClassifier(gen, "phi4", nil)

	res := c.Decide(context.Background(), "pay this invoice")
	assert.Equal(t, constants.Agreement, res.DocType)
	assert.Equal(t, SourceModel, res.Source)
	assert.NoError(t, res.ModelErr)

	assert.Equal(t, "phi4", req.Model)
	assert.Contains(t, req.Prompt, "pay this invoice")
	require.True(t, llm.HasProperties(req.Format))
}

func TestClassifyFallsBack(t *testing.T) {
	text := "This Service Level Agreement ... subscription fee"
	cases := map[string]llm.Generator{
		"call_error":    fixed("", errors.New("connection refused")),
		"not_json":      fixed("LICENSE", nil),
		"model_unknown": fixed(`{"doc_type":"UNKNOWN"}`, nil),
		"lowercase":     fixed(`{"doc_type":"agreement"}`, nil),
		"missing_key":   fixed(`{"type":"AGREEMENT"}`, nil),
		"wrong_type":    fixed(`{"doc_type":1}`, nil),
		"nil_generator": nil,
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			res := NewClassifier(gen, "m", nil).Decide(context.Background(), text)
			assert.Equal(t, constants.License, res.DocType)
			assert.Equal(t, SourceFallback, res.Source)
			assert.Error(t, res.ModelErr)
		})
	}
}

func TestClassifyModelUnknownWithoutKeywords(t *testing.T) {
	c := NewClassifier(fixed(`{"doc_type":"UNKNOWN"}`, nil), "m", nil)
	assert.Equal(t, constants.Unknown, c.Classify(context.Background(), "holiday photos"))
}
