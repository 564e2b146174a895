// Package quality combines the base content-quality score, the
// fact-validation score and the staleness complement into one final score
// and a binary may-auto-publish decision.
package quality

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pagemend/pagemend/internal/factcheck"
	"github.com/pagemend/pagemend/internal/model"
	"github.com/pagemend/pagemend/internal/staleness"
)

// BaseResult is the collaborator-supplied on-page quality verdict
type BaseResult struct {
	Score    int
	Blockers []string
	Warnings []string
}

// BaseScorer is the external on-page quality collaborator.
type BaseScorer interface {
	Evaluate(ctx context.Context, content, topic string) (BaseResult, error)
}

// Evaluation is the combined quality verdict for one piece of content
type Evaluation struct {
	BaseScore      int                    `json:"base_score"`
	FactScore      int                    `json:"fact_score"`
	StalenessScore int                    `json:"staleness_score"`
	FinalScore     int                    `json:"final_score"`
	CanPublish     bool                   `json:"can_publish"`
	Blockers       []string               `json:"blockers,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
	FactReport     model.ValidationReport `json:"fact_report"`
	Staleness      *staleness.Score       `json:"staleness,omitempty"`
}

// Weights: base 50%, fact validation 30%, staleness complement 20%. Without
// a last-updated timestamp the staleness share is redistributed across the
// other two so missing data never reads as perfectly fresh.
const (
	weightBase      = 0.50
	weightFact      = 0.30
	weightStaleness = 0.20

	publishFloor = 85
)

// Aggregator combines the three scoring sources
type Aggregator struct {
	base      BaseScorer
	facts     *factcheck.Engine
	staleness *staleness.Model
	log       *slog.Logger
}

// New creates a quality aggregator.
func New(base BaseScorer, facts *factcheck.Engine, st *staleness.Model, log *slog.Logger) *Aggregator {
	return &Aggregator{base: base, facts: facts, staleness: st, log: log}
}

// Evaluate scores content for topic. lastUpdated may be nil when the
// content has no known modification time; url feeds the staleness model.
func (a *Aggregator) Evaluate(ctx context.Context, content, topic string, lastUpdated *time.Time, url string) Evaluation {
	ev := Evaluation{}

	base, err := a.base.Evaluate(ctx, content, topic)
	if err != nil {
		// A broken base scorer blocks publication but not the report.
		a.log.Warn("base quality scorer failed", slog.Any("err", err))
		base = BaseResult{Score: 0, Blockers: []string{fmt.Sprintf("base quality check failed: %v", err)}}
	}
	ev.BaseScore = base.Score
	ev.Blockers = append(ev.Blockers, base.Blockers...)
	ev.Warnings = append(ev.Warnings, base.Warnings...)

	ev.FactReport = a.facts.ValidateContent(ctx, content)
	ev.FactScore = ev.FactReport.OverallScore
	if !ev.FactReport.CanPublish {
		ev.Blockers = append(ev.Blockers, fmt.Sprintf(
			"fact validation failed: %d invalid of %d claims (score %d)",
			ev.FactReport.InvalidClaims, ev.FactReport.TotalClaims, ev.FactReport.OverallScore))
	}
	for _, claim := range ev.FactReport.CriticalErrors {
		ev.Warnings = append(ev.Warnings, "low-confidence claim: "+claim)
	}

	if lastUpdated != nil {
		sc := a.staleness.Score(content, *lastUpdated, topic, url)
		ev.Staleness = &sc
		ev.StalenessScore = sc.Value
		ev.FinalScore = weighted(ev.BaseScore, ev.FactScore, 100-sc.Value)
	} else {
		// Renormalize 50/30 to 62.5/37.5
		total := weightBase + weightFact
		score := (weightBase/total)*float64(ev.BaseScore) + (weightFact/total)*float64(ev.FactScore)
		ev.FinalScore = int(math.Round(score))
	}

	ev.CanPublish = len(ev.Blockers) == 0 && ev.FinalScore >= publishFloor
	return ev
}

func weighted(base, fact, freshness int) int {
	score := weightBase*float64(base) + weightFact*float64(fact) + weightStaleness*float64(freshness)
	return int(math.Round(score))
}
