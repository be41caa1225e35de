package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout.Duration)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, 2048, cfg.Fetch.MinContentBytes)
	assert.Equal(t, 2, cfg.Rendering.ConcurrentSessions)
	assert.False(t, cfg.Robots.Respect)
	assert.Equal(t, ".de", cfg.Search.Market)
	assert.Equal(t, "kaufen bestellen", cfg.Search.IntentTerms)
	assert.Equal(t, 5, cfg.Pipeline.MaxSuggestions)
}

func TestLoadFromReaderMergesOverDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
fetch:
  timeout: 5s
  max_attempts: 2
search:
  market: de
robots:
  overrides:
    - WWW.IKEA.COM
    - www.ikea.com
    - ""
`))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout.Duration)
	assert.Equal(t, 2, cfg.Fetch.MaxAttempts)
	// Untouched sections keep their defaults.
	assert.Equal(t, 2048, cfg.Fetch.MinContentBytes)
	assert.Equal(t, 2, cfg.Rendering.ConcurrentSessions)
	// Market is normalised to a dotted, lowercase TLD suffix.
	assert.Equal(t, ".de", cfg.Search.Market)
	// Overrides are lowercased and deduplicated.
	assert.Equal(t, []string{"www.ikea.com"}, cfg.Robots.Overrides)
}

func TestLoadFromReaderNumericSeconds(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("fetch:\n  timeout: 20\n"))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Fetch.Timeout.Duration)
}

func TestLoadFromReaderUnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("fetch:\n  tiemout: 5s\n"))
	assert.Error(t, err)
}

func TestLoadFromReaderBadDuration(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("fetch:\n  timeout: soon\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = Duration{} }},
		{"non-positive attempts", func(c *Config) { c.Fetch.MaxAttempts = 0 }},
		{"non-positive body cap", func(c *Config) { c.Fetch.MaxBodyBytes = 0 }},
		{"negative content floor", func(c *Config) { c.Fetch.MinContentBytes = -1 }},
		{"zero render timeout", func(c *Config) { c.Rendering.Timeout = Duration{} }},
		{"no render sessions", func(c *Config) { c.Rendering.ConcurrentSessions = 0 }},
		{"respect without agent", func(c *Config) { c.Robots.Respect = true; c.Robots.UserAgent = " " }},
		{"no search results", func(c *Config) { c.Search.MaxResults = 0 }},
		{"no extraction attempts", func(c *Config) { c.Extraction.MaxAttempts = 0 }},
		{"no suggestions", func(c *Config) { c.Pipeline.MaxSuggestions = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRateLimitEnabled(t *testing.T) {
	assert.False(t, RateLimitConfig{}.Enabled())
	assert.False(t, RateLimitConfig{Requests: 10}.Enabled())
	assert.True(t, RateLimitConfig{Requests: 10, Window: DurationFrom(time.Minute)}.Enabled())
}
