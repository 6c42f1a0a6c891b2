package llm

import "context"

// GenerateRequest is a single non-streaming completion request.
type GenerateRequest struct {
	Model  string
	Prompt string
	// Format is a JSON-schema object constraining the response. It is only sent
	// when it declares at least one property.
	Format map[string]any
}

// Generator is the opaque inference capability: prompt in, response text out.
// Implementations must treat every failure (transport, status, decoding) as an
// error wrapping common.ErrInference.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}

// HasProperties reports whether format declares any property.
func HasProperties(format map[string]any) bool {
	if format == nil {
		return false
	}
	props, ok := format["properties"].(map[string]any)
	return ok && len(props) > 0
}
