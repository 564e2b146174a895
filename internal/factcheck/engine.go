package factcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pagemend/pagemend/internal/cache"
	"github.com/pagemend/pagemend/internal/model"
	"github.com/pagemend/pagemend/internal/quota"
	"github.com/pagemend/pagemend/internal/search"
)

// Searcher is the rate-limited verification dependency. A nil Searcher
// means no API key is configured and every claim validates neutrally.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Item, error)
}

// Confidence boundaries. Valid is coupled to validThreshold exactly: a
// claim at 70 is valid, at 69 it is not.
const (
	validThreshold    = 70
	criticalThreshold = 50
	publishThreshold  = 75
	neutralConfidence = 70
	errorConfidence   = 45

	confidenceFloor = 40
	confidenceCeil  = 100

	matchBonus      = 15
	mismatchPenalty = 25
)

// Engine validates extracted claims against search evidence
type Engine struct {
	searcher Searcher
	tracker  *quota.Tracker
	cache    cache.Cache
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// New creates a validation engine. searcher may be nil (verification
// disabled); cache may be nil (caching disabled).
func New(searcher Searcher, tracker *quota.Tracker, c cache.Cache, ttl time.Duration, log *slog.Logger) *Engine {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Engine{
		searcher: searcher,
		tracker:  tracker,
		cache:    c,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// ValidateClaim checks one claim against search evidence. Cache hits bypass
// the network entirely and consume no quota. An unverifiable claim (no key,
// exhausted quota) yields a neutral assume-valid result, never a blocker; a
// failed lookup yields a low-confidence result with the error attached.
func (e *Engine) ValidateClaim(ctx context.Context, claim string) model.ValidationRecord {
	claim = strings.TrimSpace(claim)
	key := cache.Key("claim:" + strings.ToLower(claim))

	if e.cache != nil {
		if data, found := e.cache.Get(key); found {
			var rec model.ValidationRecord
			if err := json.Unmarshal(data, &rec); err == nil {
				return rec
			}
			_ = e.cache.Delete(key)
		}
	}

	if e.searcher == nil {
		return e.neutral(claim, "verification disabled: no search API key configured")
	}

	allowed, remaining := e.tracker.CheckBudget()
	if !allowed {
		e.log.Debug("quota exhausted, returning neutral validation",
			slog.String("claim", truncate(claim, 60)), slog.Int("remaining", remaining))
		return e.neutral(claim, "daily verification quota exhausted")
	}

	e.tracker.Consume(1)
	items, err := e.searcher.Search(ctx, claim+" fact check verify")
	if err != nil {
		// One failed lookup must not abort validation of the other claims.
		e.log.Warn("claim lookup failed", slog.String("claim", truncate(claim, 60)), slog.Any("err", err))
		return model.ValidationRecord{
			Claim:      claim,
			Valid:      false,
			Confidence: errorConfidence,
			CheckedAt:  e.now(),
			Error:      err.Error(),
		}
	}

	rec := e.scoreAgainst(claim, items)

	if e.cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			_ = e.cache.Set(key, data, e.ttl)
		}
	}
	return rec
}

// scoreAgainst compares every claim-number/result-number pair that shares a
// context tag, widening confidence for in-tolerance pairs and narrowing it
// harder for mismatches, then clamps to [40,100].
func (e *Engine) scoreAgainst(claim string, items []search.Item) model.ValidationRecord {
	var evidence strings.Builder
	for _, item := range items {
		evidence.WriteString(item.Title)
		evidence.WriteString(" ")
		evidence.WriteString(item.Snippet)
		evidence.WriteString(" ")
	}

	claimNums := extractNumbers(claim)
	resultNums := extractNumbers(evidence.String())

	confidence := neutralConfidence
	source := ""
	for _, cn := range claimNums {
		for _, rn := range resultNums {
			if cn.Context != rn.Context {
				continue
			}
			if withinTolerance(cn, rn) {
				confidence += matchBonus
				if source == "" && len(items) > 0 {
					source = items[0].Link
				}
			} else {
				confidence -= mismatchPenalty
			}
		}
	}

	if confidence < confidenceFloor {
		confidence = confidenceFloor
	}
	if confidence > confidenceCeil {
		confidence = confidenceCeil
	}

	return model.ValidationRecord{
		Claim:      claim,
		Valid:      confidence >= validThreshold,
		Confidence: confidence,
		Source:     source,
		CheckedAt:  e.now(),
	}
}

// ValidateContent extracts and validates every claim in content and
// aggregates the publish verdict. A document with no extractable claims
// scores 100 and may publish.
func (e *Engine) ValidateContent(ctx context.Context, content string) model.ValidationReport {
	claims := ExtractClaims(content)

	report := model.ValidationReport{TotalClaims: len(claims)}
	if len(claims) == 0 {
		report.OverallScore = 100
		report.CanPublish = true
		return report
	}

	sum := 0
	for _, claim := range claims {
		rec := e.ValidateClaim(ctx, claim)
		report.Records = append(report.Records, rec)
		sum += rec.Confidence

		if rec.Valid {
			report.ValidatedClaims++
		} else {
			report.InvalidClaims++
		}
		if rec.Confidence < criticalThreshold {
			report.CriticalErrors = append(report.CriticalErrors, rec.Claim)
		}
	}

	report.OverallScore = sum / len(claims)
	report.CanPublish = report.InvalidClaims == 0 && report.OverallScore >= publishThreshold
	return report
}

func (e *Engine) neutral(claim, reason string) model.ValidationRecord {
	return model.ValidationRecord{
		Claim:      claim,
		Valid:      true,
		Confidence: neutralConfidence,
		CheckedAt:  e.now(),
		Error:      reason,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
