package fields

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/docsort/internal/entity"
)

func TestReduceMajority(t *testing.T) {
	got := Reduce([]entity.FieldRecord{
		{"a": "1", "b": "2"},
		{"a": "1", "b": "3"},
	})
	assert.Equal(t, entity.FieldRecord{"a": "1"}, got)
}

func TestReduceSingleAttemptKeepsNonEmpty(t *testing.T) {
	got := Reduce([]entity.FieldRecord{{"a": "1", "b": "", "c": "  "}})
	assert.Equal(t, entity.FieldRecord{"a": "1"}, got)
}

func TestReduceTieGoesToFirstSeen(t *testing.T) {
	got := Reduce([]entity.FieldRecord{
		{"a": "x"},
		{"a": "y"},
		{"a": "y"},
		{"a": "x"},
		{},
	})
	assert.Equal(t, entity.FieldRecord{"a": "x"}, got)
}

func TestReduceIgnoresEmptyVotes(t *testing.T) {
	got := Reduce([]entity.FieldRecord{
		{"a": ""},
		{"a": ""},
		{"a": "v"},
	})
	assert.Empty(t, got)
	assert.Empty(t, Reduce(nil))
}

func TestReduceProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	pool := []string{"", "x", "y", "z"}

	properties.Property("kept value appears in at least two attempts", prop.ForAll(
		func(idx []int) bool {
			if len(idx) < 2 {
				return true
			}
			vs := make([]string, len(idx))
			attempts := make([]entity.FieldRecord, len(idx))
			for i, j := range idx {
				vs[i] = pool[j]
				attempts[i] = entity.FieldRecord{"k": pool[j]}
			}
			got, ok := Reduce(attempts)["k"]
			if !ok {
				return true
			}
			n := 0
			for _, v := range vs {
				if v == got {
					n++
				}
			}
			return got != "" && n >= MinAgreement
		},
		gen.SliceOf(gen.IntRange(0, len(pool)-1)),
	))

	properties.Property("identical attempts reproduce the record", prop.ForAll(
		func(v string, n int) bool {
			attempts := make([]entity.FieldRecord, n)
			for i := range attempts {
				attempts[i] = entity.FieldRecord{"k": v}
			}
			got := Reduce(attempts)
			if v == "" {
				return len(got) == 0
			}
			return got["k"] == v
		},
		gen.AlphaString(), gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
