package model

import "time"

// Claim represents a factual assertion extracted from content
type Claim struct {
	Text    string `json:"text"`              // The claim text itself
	Pattern string `json:"pattern,omitempty"` // Which extraction family matched (e.g., "percentage")
}

// ValidationRecord is the outcome of checking one claim against external
// search evidence. Valid is tightly coupled to Confidence: confidence below
// 70 always means invalid.
type ValidationRecord struct {
	Claim      string    `json:"claim"`
	Valid      bool      `json:"valid"`
	Confidence int       `json:"confidence"` // 0-100
	Source     string    `json:"source,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
	Error      string    `json:"error,omitempty"`
}

// ValidationReport aggregates per-claim validation into a publish verdict
type ValidationReport struct {
	TotalClaims     int                `json:"total_claims"`
	ValidatedClaims int                `json:"validated_claims"`
	InvalidClaims   int                `json:"invalid_claims"`
	OverallScore    int                `json:"overall_score"` // mean confidence, 100 when no claims
	CanPublish      bool               `json:"can_publish"`
	CriticalErrors  []string           `json:"critical_errors,omitempty"` // claims with confidence < 50
	Records         []ValidationRecord `json:"records,omitempty"`
}
