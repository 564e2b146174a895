package factcheck

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Semantic context tags for extracted numeric tokens. Only numbers sharing
// a tag are ever compared against each other.
const (
	ctxPercentage  = "percentage"
	ctxCurrency    = "currency"
	ctxLargeNumber = "large_number"
	ctxQuantity    = "quantity"
)

type numericToken struct {
	Value   float64
	Context string
}

var numberPattern = regexp.MustCompile(`([$€£])?\s*(\d[\d,]*(?:\.\d+)?)\s*(%|percent\b|million\b|billion\b|[Kk]\b)?`)

// extractNumbers pulls numeric tokens with a semantic context tag out of
// text. Commas are thousands separators; million/billion/K suffixes scale.
func extractNumbers(text string) []numericToken {
	var tokens []numericToken

	for _, m := range numberPattern.FindAllStringSubmatch(text, -1) {
		currency, digits, suffix := m[1], m[2], strings.ToLower(strings.TrimSpace(m[3]))

		value, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
		if err != nil {
			continue
		}

		switch suffix {
		case "million":
			value *= 1_000_000
		case "billion":
			value *= 1_000_000_000
		case "k":
			value *= 1_000
		}

		ctx := ctxQuantity
		switch {
		case suffix == "%" || suffix == "percent":
			ctx = ctxPercentage
		case currency != "":
			ctx = ctxCurrency
		case value >= 1_000_000:
			ctx = ctxLargeNumber
		}

		tokens = append(tokens, numericToken{Value: value, Context: ctx})
	}
	return tokens
}

// withinTolerance reports whether two same-context values agree. Percentages
// compare on an absolute ±5 band; the other contexts proportionally.
func withinTolerance(claim, evidence numericToken) bool {
	if claim.Context != evidence.Context {
		return false
	}
	switch claim.Context {
	case ctxPercentage:
		return math.Abs(claim.Value-evidence.Value) <= 5
	case ctxCurrency:
		return proportionalMatch(claim.Value, evidence.Value, 0.15)
	case ctxLargeNumber:
		return proportionalMatch(claim.Value, evidence.Value, 0.20)
	default:
		return proportionalMatch(claim.Value, evidence.Value, 0.10)
	}
}

func proportionalMatch(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return true
	}
	return math.Abs(a-b)/larger <= tolerance
}
