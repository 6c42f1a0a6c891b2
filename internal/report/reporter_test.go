package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
	"github.com/joseph-ayodele/docsort/internal/schema"
)

func newReporter(t *testing.T) (*Reporter, string) {
	t.Helper()
	reg, err := schema.Load(filepath.Join("..", "schema", "testdata", "fields.json"))
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "out")
	rep, err := NewReporter(Config{OutputDir: dir}, reg, nil)
	require.NoError(t, err)
	return rep, dir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestLogOutcome(t *testing.T) {
	rep, dir := newReporter(t)

	require.NoError(t, rep.LogOutcome(entity.FileOutcome{FilePath: "data/a.pdf", Readable: true, Classification: constants.License, Completed: true}))
	require.NoError(t, rep.LogOutcome(entity.Unreadable("data/b, c.txt")))

	assert.Equal(t, filepath.Join(dir, constants.OutcomeLogFile), rep.OutcomeLogPath())
	assert.Equal(t, []string{
		"file,readable,classification,completed",
		"data/a.pdf,YES,LICENSE,YES",
		`"data/b, c.txt",NO,UNKNOWN,NO`,
	}, readLines(t, rep.OutcomeLogPath()))
}

func TestHeaderWrittenOnceAcrossReporters(t *testing.T) {
	rep, dir := newReporter(t)
	require.NoError(t, rep.LogOutcome(entity.Unreadable("a")))

	// A second process appending to the same directory.
	rep2, err := NewReporter(Config{OutputDir: dir}, rep.registry, nil)
	require.NoError(t, err)
	require.NoError(t, rep2.LogOutcome(entity.Unreadable("a")))

	lines := readLines(t, rep.OutcomeLogPath())
	assert.Len(t, lines, 3)
	assert.Equal(t, "file,readable,classification,completed", lines[0])
	assert.Equal(t, lines[1], lines[2], "reprocessing appends history")
}

func TestHeaderWrittenIntoEmptyFile(t *testing.T) {
	rep, _ := newReporter(t)
	require.NoError(t, os.WriteFile(rep.OutcomeLogPath(), nil, 0o644))
	require.NoError(t, rep.LogOutcome(entity.Unreadable("x")))
	assert.Equal(t, OutcomeHeader[0], strings.Split(readLines(t, rep.OutcomeLogPath())[0], ",")[0])
}

func TestWriteRecord(t *testing.T) {
	rep, dir := newReporter(t)

	rec := entity.FieldRecord{"vendor": "Acme; GmbH", "seats": "25", "unexpected": "dropped"}
	require.NoError(t, rep.WriteRecord("/data/in/invoice.pdf", constants.License, rec))

	path := filepath.Join(dir, constants.LicenseTableFile)
	assert.Equal(t, []string{
		"file;vendor;product;seats;invoice_date",
		`invoice.pdf;"Acme; GmbH";;25;`,
	}, readLines(t, path))

	_, err := os.Stat(filepath.Join(dir, constants.AgreementTableFile))
	assert.True(t, os.IsNotExist(err), "agreement table untouched")
}

func TestWriteRecordUnknownType(t *testing.T) {
	rep, dir := newReporter(t)
	err := rep.WriteRecord("a.txt", constants.Unknown, entity.FieldRecord{"x": "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentAppendsKeepRowsIntact(t *testing.T) {
	rep, _ := newReporter(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rep.WriteRecord("c.docx", constants.Agreement, entity.FieldRecord{"party_a": "A", "party_b": "B"}))
		}()
	}
	wg.Wait()

	lines := readLines(t, rep.TablePath(constants.Agreement))
	require.Len(t, lines, 21)
	assert.Equal(t, "file;party_a;party_b;start_date;auto_renewal", lines[0])
	for _, l := range lines[1:] {
		assert.Equal(t, "c.docx;A;B;;", l)
	}
}

func TestExportXLSX(t *testing.T) {
	rep, dir := newReporter(t)
	require.NoError(t, rep.LogOutcome(entity.FileOutcome{FilePath: "a.pdf", Readable: true, Classification: constants.License}))
	require.NoError(t, rep.WriteRecord("a.pdf", constants.License, entity.FieldRecord{"vendor": "Acme"}))

	out := filepath.Join(dir, "review", "docsort.xlsx")
	counts, err := rep.ExportXLSX(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{SheetOutcomes: 1, SheetLicenses: 1, SheetAgreements: 0}, counts)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetOutcomes, SheetLicenses, SheetAgreements}, f.GetSheetList())

	v, err := f.GetCellValue(SheetLicenses, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Acme", v)

	v, err = f.GetCellValue(SheetAgreements, "B1")
	require.NoError(t, err)
	assert.Equal(t, "party_a", v)
}
