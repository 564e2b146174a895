// Package factcheck extracts candidate factual claims from content and
// verifies them against external search evidence with tolerance-based
// numeric matching.
package factcheck

import (
	"regexp"
	"strings"
)

// maxClaims caps extraction per document; when more claims match, the most
// recently matched 15 are kept.
const maxClaims = 15

// claimPatterns are the five independent extraction families. Each matches
// a whole sentence-ish span around the trigger.
var claimPatterns = []struct {
	Name string
	Re   *regexp.Regexp
}{
	{"percentage", regexp.MustCompile(`[^.!?\n]*\b\d+(?:\.\d+)?\s*(?:%|percent)\b[^.!?\n]*`)},
	{"dated", regexp.MustCompile(`[^.!?\n]*\b(?:[Ii]n|[Ss]ince|[Bb]y|[Aa]s of)\s+(?:19|20)\d{2}\b[^.!?\n]*`)},
	{"study", regexp.MustCompile(`[^.!?\n]*\b(?:[Ss]tud(?:y|ies)|[Rr]esearch|[Ss]urvey|[Rr]eport)\s+(?:shows?|showed|finds?|found|suggests?|suggested|indicates?|indicated|reveals?|revealed)\b[^.!?\n]*`)},
	{"price", regexp.MustCompile(`[^.!?\n]*[$€£]\s?\d[\d,]*(?:\.\d+)?\s*(?:million|billion|[KkMm])?\b[^.!?\n]*`)},
	{"comparative", regexp.MustCompile(`[^.!?\n]*\b(?:more|less|fewer|higher|lower|faster|slower|cheaper|greater)\s+than\b[^.!?\n]*|[^.!?\n]*\b\d+(?:\.\d+)?\s*(?:times|x)\s+(?:more|less|faster|higher|greater)\b[^.!?\n]*`)},
}

// ExtractClaims mechanically pulls candidate factual claims out of content.
// The five pattern families run independently; the deduplicated union is
// truncated to the last 15 matched. Deterministic for identical input.
func ExtractClaims(content string) []string {
	text := visibleText(content)

	var claims []string
	seen := make(map[string]bool)

	for _, pattern := range claimPatterns {
		for _, match := range pattern.Re.FindAllString(text, -1) {
			claim := strings.TrimSpace(match)
			if len(claim) < 20 || len(claim) > 300 {
				continue
			}
			key := strings.ToLower(claim)
			if seen[key] {
				continue
			}
			seen[key] = true
			claims = append(claims, claim)
		}
	}

	if len(claims) > maxClaims {
		claims = claims[len(claims)-maxClaims:]
	}
	return claims
}
