package llm

import (
	"context"
	"fmt"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Rewrite produces an updated version of the article
	Rewrite(ctx context.Context, req RewriteRequest) (*RewriteResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// RewriteRequest contains the input for a content rewrite
type RewriteRequest struct {
	// URL of the page being refreshed
	URL string

	// Title of the page
	Title string

	// Content is the current article body
	Content string

	// Notes are reviewer findings the rewrite must address (outdated
	// references, claims that failed verification, thin sections)
	Notes []string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// RewriteResponse contains the generated article
type RewriteResponse struct {
	// Content is the rewritten article body
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   60,
		MaxTokens: 4000,
	}
}

const systemPrompt = "You are an experienced editor refreshing published articles. Preserve the author's voice and structure. Never invent statistics, prices, or dates."

// BuildPrompt constructs the default rewrite prompt
func BuildPrompt(req RewriteRequest) string {
	prompt := fmt.Sprintf(`Refresh the following article so it reads as current today.

RULES:
1. Keep the original structure, headings, and overall length.
2. Update outdated years, versions, and references.
3. Do NOT invent new facts, statistics, or prices. If a figure cannot be verified, generalize it ("most providers charge...") instead of replacing it.
4. Return ONLY the updated article body, no commentary.

Title: %s
URL: %s
`, req.Title, req.URL)

	if len(req.Notes) > 0 {
		prompt += "\nReviewer notes to address:\n"
		for i, note := range req.Notes {
			if i >= 10 { // Limit to avoid token bloat
				prompt += fmt.Sprintf("... and %d more notes\n", len(req.Notes)-10)
				break
			}
			prompt += fmt.Sprintf("- %s\n", note)
		}
	}

	prompt += "\nArticle:\n\n" + req.Content

	return prompt
}
