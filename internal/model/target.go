package model

import "time"

// Status is the health tier of a monitored target. It drives queue ordering:
// critical targets are always processed before high, high before medium,
// medium before healthy.
type Status string

const (
	StatusCritical Status = "critical"
	StatusHigh     Status = "high"
	StatusMedium   Status = "medium"
	StatusHealthy  Status = "healthy"
)

// Rank returns the ordering position of the status, critical first.
func (s Status) Rank() int {
	switch s {
	case StatusCritical:
		return 0
	case StatusHigh:
		return 1
	case StatusMedium:
		return 2
	default:
		return 3
	}
}

// Target is one URL under ongoing optimization. The URL is canonical
// (normalized): two raw URLs differing only by tracking parameters, fragment
// or trailing slash collapse to one target.
type Target struct {
	URL               string    `json:"url"`
	Title             string    `json:"title,omitempty"`
	Status            Status    `json:"status"`
	Pinned            bool      `json:"pinned"`
	LastChecked       time.Time `json:"last_checked,omitempty"`
	LastContentUpdate time.Time `json:"last_content_update,omitempty"`
	QualityScore      int       `json:"quality_score,omitempty"`
	StalenessScore    int       `json:"staleness_score,omitempty"`
	FactCheckScore    int       `json:"fact_check_score,omitempty"`
}

// QuotaState is the persisted daily counter for the rate-limited search
// dependency.
type QuotaState struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}
