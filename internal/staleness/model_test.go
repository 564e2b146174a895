package staleness

import (
	"testing"
	"time"
)

func fixedModel(at time.Time) *Model {
	return NewAt(func() time.Time { return at })
}

func TestScore_NoEmbeddedYears(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	m := fixedModel(now)

	sc := m.Score("A guide without any dates in it at all.", now.AddDate(0, 0, -30), "Guide", "https://example.com/guide")

	if sc.Factors.StatisticsAge != 0 {
		t.Errorf("no embedded years must contribute zero statistics age, got %v", sc.Factors.StatisticsAge)
	}
	if sc.Value < 0 || sc.Value > 100 {
		t.Errorf("score out of range: %d", sc.Value)
	}
}

func TestScore_EmptyContent(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	m := fixedModel(now)

	sc := m.Score("", now.AddDate(-2, 0, 0), "Old Page", "https://example.com/old")
	if sc.Factors.ContentAge != 100 {
		t.Errorf("two-year-old content should max the age factor, got %v", sc.Factors.ContentAge)
	}
	if sc.Value == 0 {
		t.Error("empty content still produces an age-driven score")
	}
}

func TestScore_BitcoinScenario(t *testing.T) {
	// 400 days old, title mentions Bitcoin, content cites only 2021.
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	m := fixedModel(now)

	content := "Bitcoin reached its peak in 2021 and miners consolidated."
	sc := m.Score(content, now.AddDate(0, 0, -400), "Bitcoin Mining Guide", "https://example.com/bitcoin")

	if sc.Tier != TierCritical {
		t.Errorf("expected critical tier, got %s (score %d)", sc.Tier, sc.Value)
	}
	if sc.Value < 80 {
		t.Errorf("expected staleness >= 80, got %d", sc.Value)
	}
}

func TestScore_FreshStableContent(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	m := fixedModel(now)

	content := "The fundamentals of arithmetic, updated for 2026."
	sc := m.Score(content, now.AddDate(0, 0, -10), "History of Mathematics Basics", "https://example.com/math")

	if sc.Tier != TierLow {
		t.Errorf("expected low tier, got %s (score %d)", sc.Tier, sc.Value)
	}
	if sc.Tier.Status() != "healthy" {
		t.Errorf("low tier must map to healthy status, got %s", sc.Tier.Status())
	}
}

func TestScore_DecayDateRunway(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	m := fixedModel(now)

	fresh := m.Score("Updated in 2026, fundamentals only.", now.AddDate(0, 0, -5), "Basics", "u")
	stale := m.Score("Written back in 2019 about bitcoin, more than ever.", now.AddDate(0, 0, -500), "Bitcoin", "u")

	freshRunway := fresh.PredictedDecayDate.Sub(now)
	staleRunway := stale.PredictedDecayDate.Sub(now)

	if freshRunway <= staleRunway {
		t.Errorf("fresher content must get a longer runway: fresh=%v stale=%v", freshRunway, staleRunway)
	}
	if staleRunway < 7*24*time.Hour {
		t.Errorf("runway is floored at 7 days, got %v", staleRunway)
	}
}

func TestVolatility_LongestKeywordWins(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	m := fixedModel(now)

	// "cryptocurrency" (95) must win over "crypto" (90)
	got := m.volatilityFactor("Cryptocurrency Outlook", "plain content")
	if got != 95 {
		t.Errorf("expected cryptocurrency score 95, got %v", got)
	}
}

func TestVolatility_NeverAdjustedBothWays(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	m := fixedModel(now)

	base := m.volatilityFactor("Finance Guide", "plain content")
	up := m.volatilityFactor("Finance Guide", "a breakthrough was announced")
	down := m.volatilityFactor("Finance Guide", "the fundamentals and principles")
	both := m.volatilityFactor("Finance Guide", "breakthrough fundamentals")

	if up != base+volatilityDelta {
		t.Errorf("emerging language should add the delta: base=%v up=%v", base, up)
	}
	if down != base-volatilityDelta {
		t.Errorf("stable language should subtract the delta: base=%v down=%v", base, down)
	}
	if both != base {
		t.Errorf("mixed language must leave the base untouched: base=%v both=%v", base, both)
	}
}

func TestTrendFactor(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	m := fixedModel(now)

	cases := []struct {
		content string
		want    float64
	}{
		{"stats from 2026 say", 20},          // cites current year
		{"back in 2020 and 2021", 85},        // only old years
		{"between 2024 and 2025 trends", 50}, // last year present
		{"no dates here", 50},
	}
	for _, tc := range cases {
		if got := m.trendFactor(now, tc.content); got != tc.want {
			t.Errorf("trendFactor(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}

func TestTierThresholds(t *testing.T) {
	cases := []struct {
		value float64
		want  Tier
	}{
		{80, TierCritical},
		{79.9, TierHigh},
		{60, TierHigh},
		{59.9, TierMedium},
		{40, TierMedium},
		{39.9, TierLow},
		{0, TierLow},
	}
	for _, tc := range cases {
		if got := tierFor(tc.value); got != tc.want {
			t.Errorf("tierFor(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
}
