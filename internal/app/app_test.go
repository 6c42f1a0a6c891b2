package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
	"github.com/joseph-ayodele/docsort/internal/llm"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.Input.Dir = t.TempDir()
	cfg.Schema.Path = filepath.Join("..", "schema", "testdata", "fields.json")
	cfg.Report.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.State.DSN = filepath.Join(t.TempDir(), "state.db")
	cfg.Log.File = ""
	return cfg
}

func agreementModel() llm.Generator {
	return llm.GeneratorFunc(func(_ context.Context, req llm.GenerateRequest) (string, error) {
		props, _ := req.Format["properties"].(map[string]any)
		if _, ok := props["doc_type"]; ok {
			return `{"doc_type":"AGREEMENT"}`, nil
		}
		return `{"party_a":"Alpha AG","party_b":"Beta Ltd","start_date":"2024-01-01","auto_renewal":true}`, nil
	})
}

func TestBuild_MissingSchemaIsConfigError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schema.Path = filepath.Join(t.TempDir(), "nope.json")

	_, err := Build(context.Background(), cfg, nil, WithGenerator(agreementModel()))
	require.Error(t, err)
	assert.True(t, common.IsConfigError(err))
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fields.Attempts = 0

	_, err := Build(context.Background(), cfg, nil)
	assert.True(t, common.IsConfigError(err))
}

func TestRunBatch_ResumeAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	doc := filepath.Join(cfg.Input.Dir, "msa.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Master services contract between Alpha AG and Beta Ltd."), 0o644))

	a, err := Build(context.Background(), cfg, nil, WithGenerator(agreementModel()))
	require.NoError(t, err)
	require.NotNil(t, a.Ledger)

	sum, err := a.RunBatch(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{doc}, sum.Complete)
	require.NoError(t, a.Close())

	cfg.State.Resume = true
	a, err = Build(context.Background(), cfg, nil, WithGenerator(agreementModel()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	sum, err = a.RunBatch(context.Background(), "run-2")
	require.NoError(t, err)
	assert.Equal(t, []string{doc}, sum.SkippedBy(entity.SkipResumed))

	b, err := os.ReadFile(a.Reporter.TablePath(constants.Agreement))
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, []string{
		"file;party_a;party_b;start_date;auto_renewal",
		"msa.txt;Alpha AG;Beta Ltd;2024-01-01;true",
	}, rows)

	run, err := a.Ledger.GetRun(context.Background(), "run-2")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Skipped)
}

func TestExportXLSXAndArchiveDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.State.DSN = ""
	cfg.Report.XLSXPath = filepath.Join(cfg.Report.OutputDir, "review.xlsx")

	a, err := Build(context.Background(), cfg, nil, WithGenerator(agreementModel()))
	require.NoError(t, err)
	assert.Nil(t, a.Ledger)

	_, err = a.RunBatch(context.Background(), "")
	require.NoError(t, err)

	path, err := a.ExportXLSX(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, path)

	// no endpoint: nothing happens
	a.Archive(context.Background(), "r", path)
	assert.NoError(t, a.Close())
}

func TestRunBatch_OutputsInsideInputAreNotReprocessed(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(cfg.Input.Dir, "out")
	cfg.Report.OutputDir = out
	cfg.Report.XLSXPath = filepath.Join(out, "review.xlsx")
	cfg.State.DSN = filepath.Join(out, "state.db")
	cfg.Log.File = filepath.Join(out, "processing.log")
	doc := filepath.Join(cfg.Input.Dir, "msa.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Master services contract between Alpha AG and Beta Ltd."), 0o644))
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(cfg.Log.File, []byte("{}\n"), 0o644))

	a, err := Build(context.Background(), cfg, nil, WithGenerator(agreementModel()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	for _, runID := range []string{"run-1", "run-2"} {
		sum, err := a.RunBatch(context.Background(), runID)
		require.NoError(t, err)
		assert.Equal(t, []string{doc}, sum.Complete, runID)
		assert.Zero(t, len(sum.Skipped), runID)
		_, err = a.ExportXLSX(context.Background())
		require.NoError(t, err)
	}

	b, err := os.ReadFile(a.Reporter.OutcomeLogPath())
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, rows, 3)
	for _, row := range rows[1:] {
		assert.True(t, strings.HasPrefix(row, doc+","), row)
	}
}
