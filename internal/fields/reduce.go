package fields

import (
	"strings"

	"github.com/joseph-ayodele/docsort/internal/entity"
)

// MinAgreement is how many attempts must agree on a value before it is kept.
const MinAgreement = 2

// Reduce merges extraction attempts by per-field majority vote. For every key seen
// in any attempt, the most frequent non-empty value wins (ties go to the value seen
// first) and is kept only if at least MinAgreement attempts produced it. With a
// single attempt there is nothing to vote on, so every non-empty value is kept.
func Reduce(attempts []entity.FieldRecord) entity.FieldRecord {
	out := make(entity.FieldRecord)
	if len(attempts) == 0 {
		return out
	}
	minFreq := MinAgreement
	if len(attempts) == 1 {
		minFreq = 1
	}

	var keys []string
	seenKey := make(map[string]struct{})
	for _, a := range attempts {
		for k := range a {
			if _, ok := seenKey[k]; !ok {
				seenKey[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}

	for _, k := range keys {
		counts := make(map[string]int)
		var order []string
		for _, a := range attempts {
			v := strings.TrimSpace(a[k])
			if v == "" {
				continue
			}
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}
		best, freq := "", 0
		for _, v := range order {
			if counts[v] > freq {
				best, freq = v, counts[v]
			}
		}
		if freq >= minFreq {
			out[k] = best
		}
	}
	return out
}
