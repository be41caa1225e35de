package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration of the content-acquisition pipeline.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Rendering  RenderingConfig  `yaml:"rendering"`
	Robots     RobotsConfig     `yaml:"robots"`
	Search     SearchConfig     `yaml:"search"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Reasoning  ReasoningConfig  `yaml:"reasoning"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// FetchConfig controls plain HTTP retrieval and its retry policy.
type FetchConfig struct {
	Timeout         Duration        `yaml:"timeout"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes"`
	MaxAttempts     int             `yaml:"max_attempts"`
	RetryBackoff    Duration        `yaml:"retry_backoff"`
	MinContentBytes int             `yaml:"min_content_bytes"`
	ProxyURL        string          `yaml:"proxy_url"`
	PerHostDelay    Duration        `yaml:"per_host_delay"`
	RateLimit       RateLimitConfig `yaml:"rate_limit_per_host"`
}

// RateLimitConfig applies a token bucket per host.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// Enabled reports whether per-host rate limiting is active.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && !r.Window.IsZero()
}

// RenderingConfig controls the headless-browser escalation tier.
type RenderingConfig struct {
	Timeout            Duration `yaml:"timeout"`
	SettleDelay        Duration `yaml:"settle_delay"`
	ConcurrentSessions int      `yaml:"concurrent_sessions"`
	DisableHeadless    bool     `yaml:"disable_headless"`
	MaxBodyBytes       int64    `yaml:"max_body_bytes"`
}

// RobotsConfig configures the opt-in robots.txt politeness agent.
type RobotsConfig struct {
	Respect   bool     `yaml:"respect"`
	UserAgent string   `yaml:"user_agent"`
	Overrides []string `yaml:"overrides"`
	CacheTTL  Duration `yaml:"cache_ttl"`
}

// SearchConfig points at the web-search API used for URL resolution.
type SearchConfig struct {
	Endpoint    string   `yaml:"endpoint"`
	APIKey      string   `yaml:"api_key"`
	MaxResults  int      `yaml:"max_results"`
	Market      string   `yaml:"market"`
	Locale      string   `yaml:"locale"`
	IntentTerms string   `yaml:"intent_terms"`
	Timeout     Duration `yaml:"timeout"`
	RatePerMin  int      `yaml:"rate_per_minute"`
}

// ExtractionConfig points at the structured-extraction API.
type ExtractionConfig struct {
	Endpoint    string   `yaml:"endpoint"`
	APIKey      string   `yaml:"api_key"`
	Timeout     Duration `yaml:"timeout"`
	MaxAttempts int      `yaml:"max_attempts"`
	RatePerMin  int      `yaml:"rate_per_minute"`
}

// ReasoningConfig points at the reasoning service that proposes candidates.
type ReasoningConfig struct {
	Endpoint   string   `yaml:"endpoint"`
	APIKey     string   `yaml:"api_key"`
	Model      string   `yaml:"model"`
	Timeout    Duration `yaml:"timeout"`
	RatePerMin int      `yaml:"rate_per_minute"`
}

// PipelineConfig bounds a single suggestion run.
type PipelineConfig struct {
	MaxSuggestions int `yaml:"max_suggestions"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
		Fetch: FetchConfig{
			Timeout:         DurationFrom(15 * time.Second),
			MaxBodyBytes:    5 * 1024 * 1024,
			MaxAttempts:     3,
			RetryBackoff:    DurationFrom(time.Second),
			MinContentBytes: 2048,
			PerHostDelay:    DurationFrom(250 * time.Millisecond),
		},
		Rendering: RenderingConfig{
			Timeout:            DurationFrom(30 * time.Second),
			SettleDelay:        DurationFrom(2 * time.Second),
			ConcurrentSessions: 2,
			MaxBodyBytes:       5 * 1024 * 1024,
		},
		Robots: RobotsConfig{
			Respect:   false,
			UserAgent: "furniturematch-bot/1.0",
			CacheTTL:  DurationFrom(6 * time.Hour),
		},
		Search: SearchConfig{
			MaxResults:  5,
			Market:      ".de",
			Locale:      "de",
			IntentTerms: "kaufen bestellen",
			Timeout:     DurationFrom(10 * time.Second),
			RatePerMin:  60,
		},
		Extraction: ExtractionConfig{
			Timeout:     DurationFrom(20 * time.Second),
			MaxAttempts: 2,
			RatePerMin:  30,
		},
		Reasoning: ReasoningConfig{
			Model:      "default",
			Timeout:    DurationFrom(45 * time.Second),
			RatePerMin: 10,
		},
		Pipeline: PipelineConfig{
			MaxSuggestions: 5,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the pipeline configuration.
func (c Config) Validate() error {
	if c.Fetch.Timeout.IsZero() {
		return errors.New("fetch.timeout must be set")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0 (got %d)", c.Fetch.MaxAttempts)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	if c.Fetch.MinContentBytes < 0 {
		return fmt.Errorf("fetch.min_content_bytes must be >= 0 (got %d)", c.Fetch.MinContentBytes)
	}
	if rl := c.Fetch.RateLimit; rl.Requests < 0 {
		return fmt.Errorf("fetch.rate_limit_per_host.requests must be >= 0 (got %d)", rl.Requests)
	}
	if c.Rendering.Timeout.IsZero() {
		return errors.New("rendering.timeout must be set")
	}
	if c.Rendering.ConcurrentSessions <= 0 {
		return fmt.Errorf("rendering.concurrent_sessions must be > 0 (got %d)", c.Rendering.ConcurrentSessions)
	}
	if c.Robots.Respect && strings.TrimSpace(c.Robots.UserAgent) == "" {
		return errors.New("robots.user_agent must be set when robots.respect is true")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be > 0 (got %d)", c.Search.MaxResults)
	}
	if c.Extraction.MaxAttempts <= 0 {
		return fmt.Errorf("extraction.max_attempts must be > 0 (got %d)", c.Extraction.MaxAttempts)
	}
	if c.Pipeline.MaxSuggestions <= 0 {
		return fmt.Errorf("pipeline.max_suggestions must be > 0 (got %d)", c.Pipeline.MaxSuggestions)
	}
	return nil
}

func (c *Config) normalise() {
	c.Search.Endpoint = strings.TrimSpace(c.Search.Endpoint)
	c.Extraction.Endpoint = strings.TrimSpace(c.Extraction.Endpoint)
	c.Reasoning.Endpoint = strings.TrimSpace(c.Reasoning.Endpoint)
	c.Robots.UserAgent = strings.TrimSpace(c.Robots.UserAgent)
	c.Search.Market = strings.ToLower(strings.TrimSpace(c.Search.Market))
	if c.Search.Market != "" && !strings.HasPrefix(c.Search.Market, ".") {
		c.Search.Market = "." + c.Search.Market
	}

	if len(c.Robots.Overrides) > 0 {
		unique := make(map[string]struct{}, len(c.Robots.Overrides))
		cleaned := make([]string, 0, len(c.Robots.Overrides))
		for _, raw := range c.Robots.Overrides {
			host := strings.ToLower(strings.TrimSpace(raw))
			if host == "" {
				continue
			}
			if _, exists := unique[host]; exists {
				continue
			}
			unique[host] = struct{}{}
			cleaned = append(cleaned, host)
		}
		c.Robots.Overrides = cleaned
	}
}
