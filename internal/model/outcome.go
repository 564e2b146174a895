package model

import "time"

// Outcome is the result of one scheduler cycle for one target. Kept only in
// the in-memory recent-history ring buffer; used for reporting, never
// persisted.
type Outcome struct {
	ID          string        `json:"id"`
	URL         string        `json:"url"`
	Success     bool          `json:"success"`
	Changes     []string      `json:"changes,omitempty"`
	Errors      []string      `json:"errors,omitempty"`
	ScoreBefore int           `json:"score_before"`
	ScoreAfter  int           `json:"score_after"`
	Duration    time.Duration `json:"duration"`
	FinishedAt  time.Time     `json:"finished_at"`
}
