package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

type fixedRand struct{ n int }

func (f fixedRand) Intn(n int) int { return f.n % n }

// scriptedGetter replays a fixed sequence of outcomes and records the
// headers of each attempt.
type scriptedGetter struct {
	outcomes []types.FetchOutcome
	headers  []map[string]string
	calls    int
}

func (s *scriptedGetter) Get(_ context.Context, _ string, headers map[string]string) (types.FetchOutcome, error) {
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	s.headers = append(s.headers, copied)

	idx := s.calls
	if idx >= len(s.outcomes) {
		idx = len(s.outcomes) - 1
	}
	s.calls++
	return s.outcomes[idx], nil
}

func okOutcome(size int) types.FetchOutcome {
	return types.FetchOutcome{
		Status:     types.FetchOK,
		StatusCode: 200,
		Body:       strings.Repeat("a", size),
	}
}

func blockedOutcome(code int) types.FetchOutcome {
	return types.FetchOutcome{Status: types.FetchHTTPError, StatusCode: code}
}

func TestFetchWithRetryRecoversFromBlocks(t *testing.T) {
	getter := &scriptedGetter{outcomes: []types.FetchOutcome{
		blockedOutcome(429),
		blockedOutcome(429),
		okOutcome(4096),
	}}
	r := NewRetrying(getter, RetryOptions{
		MaxAttempts:     3,
		Backoff:         time.Millisecond,
		MinContentBytes: 2048,
		Rand:            fixedRand{},
	})

	outcome, err := r.FetchWithRetry(context.Background(), "https://www.example.de/p/kivik-sofa")
	require.NoError(t, err)
	assert.Equal(t, types.FetchOK, outcome.Status)
	assert.True(t, r.Sufficient(outcome))
	assert.Equal(t, 3, getter.calls)
}

func TestFetchWithRetryRotatesUserAgent(t *testing.T) {
	getter := &scriptedGetter{outcomes: []types.FetchOutcome{
		blockedOutcome(403),
		blockedOutcome(403),
		blockedOutcome(403),
	}}
	r := NewRetrying(getter, RetryOptions{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		Rand:        fixedRand{},
	})

	_, err := r.FetchWithRetry(context.Background(), "https://www.example.de/p/kivik-sofa")
	require.NoError(t, err)
	require.Len(t, getter.headers, 3)

	seen := map[string]struct{}{}
	for _, h := range getter.headers {
		ua := h["User-Agent"]
		assert.NotEmpty(t, ua)
		seen[ua] = struct{}{}
	}
	assert.Greater(t, len(seen), 1, "retries must not reuse a single user agent")
}

func TestFetchWithRetryStopsAtMaxAttempts(t *testing.T) {
	getter := &scriptedGetter{outcomes: []types.FetchOutcome{blockedOutcome(429)}}
	r := NewRetrying(getter, RetryOptions{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		Rand:        fixedRand{},
	})

	outcome, err := r.FetchWithRetry(context.Background(), "https://www.example.de/p/kivik-sofa")
	require.NoError(t, err)
	assert.Equal(t, 3, getter.calls)
	assert.Equal(t, types.FetchHTTPError, outcome.Status)
	assert.True(t, outcome.Blocked())
}

func TestFetchWithRetryShortBodyInsufficient(t *testing.T) {
	getter := &scriptedGetter{outcomes: []types.FetchOutcome{okOutcome(100)}}
	r := NewRetrying(getter, RetryOptions{
		MaxAttempts:     2,
		Backoff:         time.Millisecond,
		MinContentBytes: 2048,
		Rand:            fixedRand{},
	})

	outcome, err := r.FetchWithRetry(context.Background(), "https://www.example.de/p/kivik-sofa")
	require.NoError(t, err)
	assert.Equal(t, 2, getter.calls, "an ok-but-thin body must be retried")
	assert.True(t, outcome.OK())
	assert.False(t, r.Sufficient(outcome))
}

func TestFetchWithRetryInvalidURL(t *testing.T) {
	getter := &scriptedGetter{outcomes: []types.FetchOutcome{okOutcome(4096)}}
	r := NewRetrying(getter, RetryOptions{Rand: fixedRand{}})

	for _, raw := range []string{"", "   ", "not-a-url", "/relative/path"} {
		_, err := r.FetchWithRetry(context.Background(), raw)
		assert.Error(t, err, "url %q", raw)
	}
	assert.Zero(t, getter.calls)
}

func TestFetchWithRetryCancelledContext(t *testing.T) {
	getter := &scriptedGetter{outcomes: []types.FetchOutcome{okOutcome(4096)}}
	r := NewRetrying(getter, RetryOptions{Rand: fixedRand{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.FetchWithRetry(ctx, "https://www.example.de/p/kivik-sofa")
	require.NoError(t, err)
	assert.Zero(t, getter.calls)
}
