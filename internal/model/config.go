package model

import (
	"fmt"
	"time"
)

// Config is the complete configuration passed by reference through the
// system. Each component reads only its own section; nothing threads an
// open-ended bag of fields.
type Config struct {
	Site      SiteConfig      `yaml:"site" mapstructure:"site"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Quota     QuotaConfig     `yaml:"quota" mapstructure:"quota"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	CMS       CMSConfig       `yaml:"cms" mapstructure:"cms"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
}

// SiteConfig identifies the site under management
type SiteConfig struct {
	RootURL string `yaml:"root_url" mapstructure:"root_url"`
	Topic   string `yaml:"topic" mapstructure:"topic"` // default topic when a page has no title
}

// HTTPConfig controls outbound fetching
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"` // HEAD checks
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// SearchConfig configures the rate-limited verification dependency
type SearchConfig struct {
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	EngineID string        `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	Results  int           `yaml:"results" mapstructure:"results"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// QuotaConfig bounds daily verification spend
type QuotaConfig struct {
	DailyLimit   int `yaml:"daily_limit" mapstructure:"daily_limit"`
	SafetyBuffer int `yaml:"safety_buffer" mapstructure:"safety_buffer"`
}

// SchedulerConfig controls the maintenance run loop
type SchedulerConfig struct {
	Concurrency        int           `yaml:"concurrency" mapstructure:"concurrency"`
	PinnedCooldown     time.Duration `yaml:"pinned_cooldown" mapstructure:"pinned_cooldown"`
	DiscoveredCooldown time.Duration `yaml:"discovered_cooldown" mapstructure:"discovered_cooldown"`
	TargetDelay        time.Duration `yaml:"target_delay" mapstructure:"target_delay"`
	IdleSleep          time.Duration `yaml:"idle_sleep" mapstructure:"idle_sleep"`
	ErrorBackoff       time.Duration `yaml:"error_backoff" mapstructure:"error_backoff"`
	DiscoveryInterval  time.Duration `yaml:"discovery_interval" mapstructure:"discovery_interval"`
	HistorySize        int           `yaml:"history_size" mapstructure:"history_size"`
	RewriteThreshold   int           `yaml:"rewrite_threshold" mapstructure:"rewrite_threshold"`
}

// LLMConfig configures the content generator
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CMSConfig configures the publish target
type CMSConfig struct {
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	Username      string        `yaml:"username" mapstructure:"username"`
	AppPassword   string        `yaml:"app_password" mapstructure:"app_password"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	DefaultStatus string        `yaml:"default_status" mapstructure:"default_status"`
}

// CacheConfig controls the validation cache
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL     time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	ValidationTTL time.Duration `yaml:"validation_ttl" mapstructure:"validation_ttl"`
}

// StoreConfig locates the key-value persistence layer
type StoreConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Topic: "general",
		},
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			ProbeTimeout: 5 * time.Second,
			UserAgent:    "Pagemend/0.1 (+https://github.com/pagemend/pagemend)",
			MaxBodyBytes: 2_000_000,
		},
		Search: SearchConfig{
			BaseURL: "https://www.googleapis.com/customsearch/v1",
			Results: 5,
			Timeout: 10 * time.Second,
		},
		Quota: QuotaConfig{
			DailyLimit:   100,
			SafetyBuffer: 5,
		},
		Scheduler: SchedulerConfig{
			Concurrency:        3,
			PinnedCooldown:     time.Hour,
			DiscoveredCooldown: 24 * time.Hour,
			TargetDelay:        30 * time.Second,
			IdleSleep:          5 * time.Minute,
			ErrorBackoff:       10 * time.Second,
			DiscoveryInterval:  6 * time.Hour,
			HistorySize:        100,
			RewriteThreshold:   85,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   60,
			MaxTokens: 4000,
		},
		CMS: CMSConfig{
			Timeout:       20 * time.Second,
			DefaultStatus: "draft",
		},
		Cache: CacheConfig{
			Enabled:       true,
			MemoryTTL:     time.Hour,
			ValidationTTL: 7 * 24 * time.Hour,
		},
		Store: StoreConfig{},
	}
}

// Validate reports configuration errors that must halt scheduler startup.
func (c *Config) Validate() error {
	if c.Site.RootURL == "" {
		return fmt.Errorf("site.root_url is required")
	}
	switch c.LLM.Provider {
	case "":
		return fmt.Errorf("llm.provider is required (openai or ollama)")
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider openai")
		}
	case "ollama":
		// Local provider, no key required
	default:
		return fmt.Errorf("unknown llm.provider: %s (supported: openai, ollama)", c.LLM.Provider)
	}
	if c.CMS.BaseURL == "" {
		return fmt.Errorf("cms.base_url is required")
	}
	if c.Scheduler.Concurrency <= 0 {
		return fmt.Errorf("scheduler.concurrency must be positive")
	}
	if c.Quota.DailyLimit <= 0 {
		return fmt.Errorf("quota.daily_limit must be positive")
	}
	if c.Quota.SafetyBuffer < 0 || c.Quota.SafetyBuffer >= c.Quota.DailyLimit {
		return fmt.Errorf("quota.safety_buffer must be in [0, daily_limit)")
	}
	return nil
}
