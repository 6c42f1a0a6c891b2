package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFieldRecordComplete(t *testing.T) {
	r := FieldRecord{"vendor": "Acme", "amount": " ", "term": "12m"}

	ok, missing := r.Complete([]string{"vendor", "term"})
	assert.True(t, ok)
	assert.Empty(t, missing)

	ok, missing = r.Complete([]string{"vendor", "amount", "start_date"})
	assert.False(t, ok)
	assert.Equal(t, []string{"amount", "start_date"}, missing)

	ok, _ = FieldRecord{}.Complete(nil)
	assert.True(t, ok)
}

func TestSummaryCounts(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Summary{
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Complete:   []string{"a"},
		Incomplete: []string{"b"},
		Skipped: []SkippedFile{
			{Path: "c", Reason: SkipUnreadable},
			{Path: "d", Reason: SkipUnknown},
		},
	}
	assert.Equal(t, []string{"a", "b"}, s.Processed())
	assert.Equal(t, 2, s.ProcessedCount())
	assert.Equal(t, 2, s.SkippedCount())
	assert.Equal(t, []string{"d"}, s.SkippedBy(SkipUnknown))
	assert.Equal(t, 3*time.Second, s.Elapsed())
}
