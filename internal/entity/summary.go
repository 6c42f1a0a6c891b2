package entity

import "time"

// Reasons a file is counted as skipped.
const (
	SkipUnreadable = "unreadable"
	SkipUnknown    = "unknown"
	SkipResumed    = "resumed"
	SkipFailed     = "failed"
)

// SkippedFile is a file that produced no structured row.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Summary is the end-of-run report.
type Summary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Complete   []string      `json:"complete"`
	Incomplete []string      `json:"incomplete"`
	Skipped    []SkippedFile `json:"skipped"`
}

// Processed returns every file that received a structured row, complete first.
func (s Summary) Processed() []string {
	out := make([]string, 0, len(s.Complete)+len(s.Incomplete))
	out = append(out, s.Complete...)
	return append(out, s.Incomplete...)
}

func (s Summary) ProcessedCount() int { return len(s.Complete) + len(s.Incomplete) }

func (s Summary) SkippedCount() int { return len(s.Skipped) }

func (s Summary) Elapsed() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }

// SkippedBy returns skipped paths with the given reason.
func (s Summary) SkippedBy(reason string) []string {
	var out []string
	for _, f := range s.Skipped {
		if f.Reason == reason {
			out = append(out, f.Path)
		}
	}
	return out
}
