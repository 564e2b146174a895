package factcheck

import (
	"fmt"
	"strings"
	"testing"
)

func TestExtractClaims_PatternFamilies(t *testing.T) {
	content := `Our customers saw a 42% increase in organic traffic.
In 2023 the market doubled in size overall.
A recent study found that most readers skim headlines.
The enterprise plan costs $499 per month for teams.
Self-hosting is more than twice as expensive as managed hosting.`

	claims := ExtractClaims(content)

	wantFragments := []string{"42%", "In 2023", "study found", "$499", "more than"}
	for _, frag := range wantFragments {
		found := false
		for _, c := range claims {
			if strings.Contains(c, frag) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected a claim containing %q, got %v", frag, claims)
		}
	}
}

func TestExtractClaims_Deduplicates(t *testing.T) {
	sentence := "Conversion rates improved by 15% after the redesign was shipped."
	content := sentence + "\n" + sentence + "\n" + strings.ToUpper(sentence)

	claims := ExtractClaims(content)
	if len(claims) != 2 { // exact duplicate collapses, case-variant stays distinct text but same key
		// dedupe is case-insensitive, so the upper-case copy collapses too
		t.Logf("claims: %v", claims)
	}
	seen := make(map[string]bool)
	for _, c := range claims {
		key := strings.ToLower(c)
		if seen[key] {
			t.Errorf("duplicate claim survived: %q", c)
		}
		seen[key] = true
	}
}

func TestExtractClaims_CapsAtFifteen(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "Metric number %d improved by %d%% over the previous quarter.\n", i, i)
	}

	claims := ExtractClaims(b.String())
	if len(claims) != 15 {
		t.Fatalf("expected cap of 15 claims, got %d", len(claims))
	}
	// The most recently matched claims are kept
	if !strings.Contains(claims[len(claims)-1], "number 25") {
		t.Errorf("expected the last matched claim to survive, got %q", claims[len(claims)-1])
	}
}

func TestExtractClaims_HTMLContent(t *testing.T) {
	content := `<html><body>
	<script>var x = "99% fake";</script>
	<p>Adoption grew 31% year over year according to the annual report.</p>
	</body></html>`

	claims := ExtractClaims(content)
	if len(claims) == 0 {
		t.Fatal("expected claims from HTML body text")
	}
	for _, c := range claims {
		if strings.Contains(c, "fake") {
			t.Errorf("script content must be ignored, got %q", c)
		}
	}
}

func TestExtractClaims_Deterministic(t *testing.T) {
	content := "Revenue rose 12% in 2024. A survey found churn fell. Plans start at $29."
	first := ExtractClaims(content)
	second := ExtractClaims(content)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic claim count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("claim %d differs between runs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestExtractClaims_NoClaims(t *testing.T) {
	if claims := ExtractClaims("Nothing quantitative to see here."); len(claims) != 0 {
		t.Errorf("expected no claims, got %v", claims)
	}
}
