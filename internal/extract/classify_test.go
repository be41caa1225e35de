package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		attempt Attempt
		blocked bool
		retry   bool
		generic bool
	}{
		{
			name:    "no data at all",
			attempt: Attempt{},
			blocked: true,
			retry:   false,
		},
		{
			name:    "generic title without supporting fields",
			attempt: Attempt{Title: "Amazon.de"},
			blocked: true,
			retry:   false,
			generic: true,
		},
		{
			name:    "generic title case insensitive",
			attempt: Attempt{Title: "  ROBOT CHECK "},
			blocked: true,
			retry:   false,
			generic: true,
		},
		{
			name:    "generic title rescued by description",
			attempt: Attempt{Title: "Product", Description: "Dreisitzer-Sofa mit Bezug Tallmyra"},
			blocked: false,
			retry:   true,
		},
		{
			name:    "block marker in error",
			attempt: Attempt{Err: "upstream returned 403 Forbidden"},
			blocked: true,
			retry:   false,
		},
		{
			name:    "captcha marker in error",
			attempt: Attempt{Err: "page requires CAPTCHA solving"},
			blocked: true,
			retry:   false,
		},
		{
			name:    "transient timeout",
			attempt: Attempt{Err: "context deadline exceeded: request timed out"},
			blocked: false,
			retry:   true,
		},
		{
			name:    "transient connection reset",
			attempt: Attempt{Err: "read tcp: connection reset by peer"},
			blocked: false,
			retry:   true,
		},
		{
			name:    "unknown error is retryable",
			attempt: Attempt{Err: "something odd happened"},
			blocked: false,
			retry:   true,
		},
		{
			name:    "real product data",
			attempt: Attempt{Title: "KIVIK 3er-Sofa", Description: "Bezug Tibbleby", Image: "https://cdn/img.jpg"},
			blocked: false,
			retry:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.attempt)
			assert.Equal(t, tt.blocked, got.IsBlocked, "IsBlocked")
			assert.Equal(t, tt.retry, got.CanRetry, "CanRetry")
			assert.Equal(t, tt.generic, got.IsGenericData, "IsGenericData")
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestClassifyBlockBeatsTransient(t *testing.T) {
	// An error mentioning both a block and a transient marker is a block:
	// retrying a bot wall reproduces the wall.
	got := Classify(Attempt{Err: "rate limit hit, service temporarily unavailable"})
	assert.True(t, got.IsBlocked)
	assert.False(t, got.CanRetry)
}
