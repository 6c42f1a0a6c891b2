package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/llm"
)

type generateBody struct {
	Model  string         `json:"model"`
	Prompt string         `json:"prompt"`
	Stream bool           `json:"stream"`
	Format map[string]any `json:"format,omitempty"`
}

type generateResponse struct {
	Model    string  `json:"model"`
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string  `json:"error"`
}

var _ llm.Generator = (*Client)(nil)

// Generate implements llm.Generator against POST /api/generate.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, c.logger)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", common.ErrInference, err)
		}
	}

	prompt := req.Prompt
	if c.cfg.MaxPromptChars > 0 {
		if r := []rune(prompt); len(r) > c.cfg.MaxPromptChars {
			log.Warn("ollama.prompt.truncated", "runes", len(r), "max", c.cfg.MaxPromptChars)
			prompt = string(r[:c.cfg.MaxPromptChars])
		}
	}

	body := generateBody{Model: req.Model, Prompt: prompt, Stream: false}
	if llm.HasProperties(req.Format) {
		body.Format = req.Format
	}

	raw, _, err := llm.PostJSON(ctx, c.http, c.cfg.BaseURL+"/api/generate", body, log)
	if err != nil {
		log.Error("ollama.generate.http_error", "model", req.Model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Error("ollama.generate.decode_error", "model", req.Model, "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("%w: decode ollama response: %w", common.ErrInference, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", common.ErrInference, out.Error)
	}
	if out.Response == nil {
		return "", fmt.Errorf("%w: ollama response has no \"response\" field", common.ErrInference)
	}

	log.Debug("ollama.generate.ok",
		"model", req.Model,
		"structured", body.Format != nil,
		"response_len", len(*out.Response),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return *out.Response, nil
}
