// Package staleness estimates how far a piece of content has decayed in
// relevance since it was last updated. The score is a pure function of the
// content, its age and its topic; no network calls are involved.
package staleness

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pagemend/pagemend/internal/model"
)

// Tier is the action priority derived from the decay score
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// Status maps a decay tier onto the monitored-target status scale.
func (t Tier) Status() model.Status {
	switch t {
	case TierCritical:
		return model.StatusCritical
	case TierHigh:
		return model.StatusHigh
	case TierMedium:
		return model.StatusMedium
	default:
		return model.StatusHealthy
	}
}

// Factors is the transparent per-component breakdown, each on a 0-100 scale
// before weighting.
type Factors struct {
	ContentAge         float64 `json:"content_age"`
	StatisticsAge      float64 `json:"statistics_age"`
	IndustryVolatility float64 `json:"industry_volatility"`
	TrendVelocity      float64 `json:"trend_velocity"`
	Seasonality        float64 `json:"seasonality"`
}

// Score is the complete staleness assessment for one piece of content
type Score struct {
	Value              int       `json:"value"` // 0-100, higher is staler
	PredictedDecayDate time.Time `json:"predicted_decay_date"`
	Factors            Factors   `json:"factors"`
	Tier               Tier      `json:"tier"`
	RecommendedAction  string    `json:"recommended_action"`
	RefreshCycle       string    `json:"refresh_cycle"`
}

// Component weights. ContentAge and volatility dominate; trend and season
// are coarse nudges.
const (
	weightContentAge    = 0.25
	weightStatisticsAge = 0.20
	weightVolatility    = 0.25
	weightTrend         = 0.15
	weightSeasonality   = 0.15
)

// volatilityTable maps topic keywords to a base industry-volatility score.
// The longest matching keyword wins, so "artificial intelligence" beats
// "intelligence" and "crypto" never shadows "cryptocurrency".
var volatilityTable = []struct {
	keyword string
	score   float64
}{
	{"cryptocurrency", 95},
	{"artificial intelligence", 90},
	{"machine learning", 85},
	{"social media", 75},
	{"e-commerce", 70},
	{"real estate", 55},
	{"bitcoin", 90},
	{"crypto", 90},
	{"technology", 70},
	{"marketing", 70},
	{"software", 65},
	{"finance", 65},
	{"fitness", 50},
	{"health", 55},
	{"travel", 55},
	{"education", 45},
	{"history", 20},
	{"seo", 75},
	{"food", 40},
	{"law", 35},
}

const defaultVolatility = 50

var emergingWords = []string{"new", "breakthrough", "latest", "just launched", "announced"}
var stableWords = []string{"fundamentals", "principles", "basics", "history"}

const volatilityDelta = 10

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Model computes staleness scores. The clock is injectable for tests.
type Model struct {
	now func() time.Time
}

// New creates a staleness model using the wall clock.
func New() *Model {
	return &Model{now: time.Now}
}

// NewAt creates a staleness model with a fixed clock, for tests.
func NewAt(now func() time.Time) *Model {
	return &Model{now: now}
}

// Score computes the decay score for content last updated at lastUpdated.
// Empty content and content without embedded years are both fine: the
// missing components simply contribute zero.
func (m *Model) Score(content string, lastUpdated time.Time, title, url string) Score {
	now := m.now()
	lower := strings.ToLower(content)

	f := Factors{
		ContentAge:         m.contentAgeFactor(now, lastUpdated),
		StatisticsAge:      m.statisticsAgeFactor(now, content),
		IndustryVolatility: m.volatilityFactor(title, lower),
		TrendVelocity:      m.trendFactor(now, content),
		Seasonality:        m.seasonalityFactor(now),
	}

	value := weightContentAge*f.ContentAge +
		weightStatisticsAge*f.StatisticsAge +
		weightVolatility*f.IndustryVolatility +
		weightTrend*f.TrendVelocity +
		weightSeasonality*f.Seasonality
	value = clamp(value, 0, 100)

	tier := tierFor(value)
	action, cycle := adviceFor(tier)

	// Low current staleness implies a longer runway before the next
	// mandatory review, floored at one week.
	days := math.Max(7, math.Round((100-value)*3.65))

	return Score{
		Value:              int(math.Round(value)),
		PredictedDecayDate: now.AddDate(0, 0, int(days)),
		Factors:            f,
		Tier:               tier,
		RecommendedAction:  action,
		RefreshCycle:       cycle,
	}
}

// contentAgeFactor scales calendar age linearly, capped at one year.
func (m *Model) contentAgeFactor(now, lastUpdated time.Time) float64 {
	if lastUpdated.IsZero() || lastUpdated.After(now) {
		return 0
	}
	days := now.Sub(lastUpdated).Hours() / 24
	return clamp(days/365*100, 0, 100)
}

// statisticsAgeFactor measures the age of the oldest four-digit year cited
// in the content, capped at two years. No embedded years defaults the
// oldest year to the current year, a zero contribution.
func (m *Model) statisticsAgeFactor(now time.Time, content string) float64 {
	oldest := now.Year()
	for _, match := range yearPattern.FindAllString(content, -1) {
		year, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if year < oldest && year >= 1900 {
			oldest = year
		}
	}

	ageDays := 365 * (now.Year() - oldest)
	if ageDays < 0 {
		ageDays = 0
	}
	return clamp(float64(ageDays)/730*100, 0, 100)
}

// volatilityFactor looks the title up in the keyword table (longest match
// wins) and nudges the base once for emerging or stable language in the
// content, never both.
func (m *Model) volatilityFactor(title, lowerContent string) float64 {
	lowerTitle := strings.ToLower(title)

	base := float64(defaultVolatility)
	bestLen := 0
	for _, entry := range volatilityTable {
		if strings.Contains(lowerTitle, entry.keyword) && len(entry.keyword) > bestLen {
			base = entry.score
			bestLen = len(entry.keyword)
		}
	}

	emerging := containsAny(lowerContent, emergingWords)
	stable := containsAny(lowerContent, stableWords)
	switch {
	case emerging && !stable:
		base += volatilityDelta
	case stable && !emerging:
		base -= volatilityDelta
	}

	return clamp(base, 0, 100)
}

// trendFactor is high when the content cites only years older than last
// year, low when it cites the current year, medium otherwise.
func (m *Model) trendFactor(now time.Time, content string) float64 {
	currentYear := now.Year()

	var years []int
	for _, match := range yearPattern.FindAllString(content, -1) {
		if y, err := strconv.Atoi(match); err == nil {
			years = append(years, y)
		}
	}

	if len(years) == 0 {
		return 50
	}

	citesCurrent := false
	onlyOld := true
	for _, y := range years {
		if y == currentYear {
			citesCurrent = true
		}
		if y >= currentYear-1 {
			onlyOld = false
		}
	}

	switch {
	case citesCurrent:
		return 20
	case onlyOld:
		return 85
	default:
		return 50
	}
}

// seasonalityFactor is high in the two months surrounding year-end and low
// otherwise. A deliberately coarse heuristic, not a forecasting model.
func (m *Model) seasonalityFactor(now time.Time) float64 {
	switch now.Month() {
	case time.December, time.January:
		return 80
	default:
		return 30
	}
}

func tierFor(value float64) Tier {
	switch {
	case value >= 80:
		return TierCritical
	case value >= 60:
		return TierHigh
	case value >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

func adviceFor(tier Tier) (action, cycle string) {
	switch tier {
	case TierCritical:
		return "Full rewrite with current data and sources", "every 30 days"
	case TierHigh:
		return "Refresh statistics, dates and examples", "every 60 days"
	case TierMedium:
		return "Review for accuracy and update the introduction", "every 90 days"
	default:
		return "No action needed", "every 180 days"
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
