package domain

import "time"

// ItemResult is the outcome of applying one plan entry
type ItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	OldURL  string `json:"oldUrl,omitempty"`
	NewURL  string `json:"newUrl,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RunSummary aggregates the outcome of one batch run. Results keep plan order.
type RunSummary struct {
	RunID         string        `json:"runId"`
	SuccessCount  int           `json:"successCount"`
	ErrorCount    int           `json:"errorCount"`
	SkippedCount  int           `json:"skippedCount"`
	TotalAttempts int           `json:"totalAttempts"`
	Results       []ItemResult  `json:"results"`
	StartedAt     time.Time     `json:"startedAt"`
	Duration      time.Duration `json:"duration"`
}

// Tally recomputes the aggregate counts from Results
func (s *RunSummary) Tally() {
	s.SuccessCount, s.ErrorCount, s.SkippedCount = 0, 0, 0
	for _, r := range s.Results {
		switch {
		case r.Skipped:
			s.SkippedCount++
		case r.Success:
			s.SuccessCount++
		default:
			s.ErrorCount++
		}
	}
	s.TotalAttempts = s.SuccessCount + s.ErrorCount
}

// Failed returns the results that did not succeed and were not skipped
func (s *RunSummary) Failed() []ItemResult {
	var out []ItemResult
	for _, r := range s.Results {
		if !r.Success && !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}
