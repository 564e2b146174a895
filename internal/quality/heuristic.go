package quality

import (
	"context"
	"fmt"
	"strings"
)

// HeuristicScorer is the built-in base quality collaborator: a coarse
// on-page check used when no external SEO metric source is wired in.
type HeuristicScorer struct {
	MinWords int
}

// NewHeuristicScorer creates the default base scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{MinWords: 300}
}

// Evaluate scores content on length, structure and topic presence.
func (h *HeuristicScorer) Evaluate(_ context.Context, content, topic string) (BaseResult, error) {
	res := BaseResult{Score: 50}
	words := len(strings.Fields(content))
	lower := strings.ToLower(content)

	switch {
	case words == 0:
		res.Score = 0
		res.Blockers = append(res.Blockers, "content is empty")
		return res, nil
	case words < h.MinWords:
		res.Warnings = append(res.Warnings, fmt.Sprintf("thin content: %d words (want >= %d)", words, h.MinWords))
	case words >= 800:
		res.Score += 25
	default:
		res.Score += 15
	}

	if topic != "" && strings.Contains(lower, strings.ToLower(topic)) {
		res.Score += 15
	} else if topic != "" {
		res.Warnings = append(res.Warnings, "topic not mentioned in content")
	}

	if strings.Contains(lower, "<h2") || strings.Contains(content, "\n## ") {
		res.Score += 10
	}

	if res.Score > 100 {
		res.Score = 100
	}
	return res, nil
}
