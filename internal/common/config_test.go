package common

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Input.Dir)
	assert.True(t, cfg.Input.IncludeHidden)
	assert.Equal(t, "fields.json", cfg.Schema.Path)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, "mistral", cfg.LLM.ClassifierModel())
	assert.Equal(t, 5*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.Fields.Attempts)
	assert.Equal(t, 0.5, cfg.Extract.MinPrintableRatio)
	assert.Equal(t, 0.01, cfg.Extract.PDFMinTextRatio)
	assert.False(t, cfg.State.Resume)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsort.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  dir: /srv/inbox
llm:
  model: llama3
  classify_model: phi3
  timeout: 90s
fields:
  attempts: 3
log:
  format: text
`), 0o644))

	t.Setenv("OLLAMA_MODEL", "qwen2")
	t.Setenv("FIELD_ATTEMPTS", "5")
	t.Setenv("RESUME", "true")
	t.Setenv("OLLAMA_RPS", "not-a-number")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/inbox", cfg.Input.Dir)
	assert.Equal(t, "qwen2", cfg.LLM.Model)
	assert.Equal(t, "phi3", cfg.LLM.ClassifierModel())
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 5, cfg.Fields.Attempts)
	assert.True(t, cfg.State.Resume)
	assert.Zero(t, cfg.LLM.RequestsPerSecond, "unparsable env values are ignored")
	assert.Equal(t, "text", cfg.Log.Format)
	// untouched defaults survive a partial file
	assert.Equal(t, "fields.json", cfg.Schema.Path)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("input: [unclosed"), 0o644))
	_, err = LoadConfig(bad)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fields.Attempts = 0
	cfg.Extract.MinPrintableRatio = 1.5
	cfg.Log.Level = "verbose"
	cfg.Archive.Endpoint = "localhost:9000"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.True(t, errors.Is(err, ErrValidation))
	for _, field := range []string{"fields.attempts", "extract.min_printable_ratio", "log.level", "archive.bucket"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestNewLogger_TeesIntoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "processing.log")
	logger, closeLog, err := NewLogger(LogConfig{Level: "warn", Format: "json", File: path})
	require.NoError(t, err)

	logger.Info("pipeline.file.start", "file", "a.txt")
	logger.Warn("pipeline.file.unreadable", "file", "b.bin")
	require.NoError(t, closeLog())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.NotContains(t, out, "pipeline.file.start")
	assert.Contains(t, out, `"msg":"pipeline.file.unreadable"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNewLogger_KeepsStdoutClean(t *testing.T) {
	dir := t.TempDir()
	stdout, err := os.Create(filepath.Join(dir, "stdout"))
	require.NoError(t, err)
	stderr, err := os.Create(filepath.Join(dir, "stderr"))
	require.NoError(t, err)
	origOut, origErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = stdout, stderr
	t.Cleanup(func() {
		os.Stdout, os.Stderr = origOut, origErr
		_ = stdout.Close()
		_ = stderr.Close()
	})

	logger, closeLog, err := NewLogger(LogConfig{Level: "info", Format: "text"})
	require.NoError(t, err)
	logger.Info("pipeline.run.done", "processed", 3)
	require.NoError(t, closeLog())

	out, err := os.ReadFile(stdout.Name())
	require.NoError(t, err)
	assert.Empty(t, out)
	errOut, err := os.ReadFile(stderr.Name())
	require.NoError(t, err)
	assert.Contains(t, string(errOut), "msg=pipeline.run.done")
}

func TestLoggerFromContext(t *testing.T) {
	var b strings.Builder
	base := slog.New(slog.NewTextHandler(&b, nil))
	ctx := WithFilePath(WithRunID(t.Context(), "run-9"), "/d/a.txt")

	LoggerFromContext(ctx, base).Info("x")
	assert.Contains(t, b.String(), "run_id=run-9")
	assert.Contains(t, b.String(), "file=/d/a.txt")
	assert.Equal(t, "run-9", RunIDFromContext(ctx))
}
