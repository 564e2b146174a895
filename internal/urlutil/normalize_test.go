package urlutil

import "testing"

func TestNormalize_StripsTrackingNoise(t *testing.T) {
	raw := "https://Example.com/blog/post/?utm_source=mail&utm_campaign=x&fbclid=abc#section-2"
	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := "https://example.com/blog/post"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := "https://example.com/a/b/?utm_medium=social&page=2#frag"
	once, err := Normalize(raw)
	if err != nil {
		t.Fatalf("first normalize failed: %v", err)
	}
	twice, err := Normalize(once)
	if err != nil {
		t.Fatalf("second normalize failed: %v", err)
	}
	if once != twice {
		t.Errorf("normalization not idempotent: %q vs %q", once, twice)
	}
}

func TestNormalize_CollapsesVariants(t *testing.T) {
	variants := []string{
		"https://example.com/pricing",
		"https://example.com/pricing/",
		"https://example.com/pricing?utm_source=tw",
		"https://EXAMPLE.com/pricing#features",
	}

	first, err := Normalize(variants[0])
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	for _, v := range variants[1:] {
		got, err := Normalize(v)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", v, err)
		}
		if got != first {
			t.Errorf("expected %q to collapse to %q, got %q", v, first, got)
		}
	}
}

func TestNormalize_KeepsMeaningfulQuery(t *testing.T) {
	got, err := Normalize("https://example.com/search?q=seo&page=3")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got != "https://example.com/search?page=3&q=seo" {
		t.Errorf("meaningful query params must survive, got %q", got)
	}
}

func TestNormalize_AddsScheme(t *testing.T) {
	got, err := Normalize("example.com/post")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got != "https://example.com/post" {
		t.Errorf("expected https scheme added, got %q", got)
	}
}

func TestNormalize_Errors(t *testing.T) {
	for _, raw := range []string{"", "   ", "https://"} {
		if _, err := Normalize(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"https://example.com/blog/ten-seo-tips": "ten-seo-tips",
		"https://example.com/":                  "",
		"https://example.com/a/b/c/":            "c",
	}
	for raw, want := range cases {
		if got := Slug(raw); got != want {
			t.Errorf("Slug(%q) = %q, want %q", raw, got, want)
		}
	}
}
