package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/workwAIse/furniturematch-sub000/internal/retailer"
	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// Getter is the single-attempt fetch contract Retrying wraps.
type Getter interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) (types.FetchOutcome, error)
}

// RetryOptions tunes the bounded retry loop.
type RetryOptions struct {
	MaxAttempts     int
	Backoff         time.Duration
	MinContentBytes int
	Rand            Rand
	Limiter         *HostLimiter
	Logger          *slog.Logger
}

// Retrying wraps a fetch client with bounded retry, linear backoff, and
// header rotation on block signals. An ok response below the content
// threshold is treated like a failure: short bodies are almost always an
// "access denied" boilerplate page, not the product page.
type Retrying struct {
	client          Getter
	maxAttempts     int
	backoff         time.Duration
	minContentBytes int
	rnd             Rand
	limiter         *HostLimiter
	logger          *slog.Logger
}

// NewRetrying constructs a retrying fetcher around client.
func NewRetrying(client Getter, opts RetryOptions) *Retrying {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.MinContentBytes < 0 {
		opts.MinContentBytes = 0
	}
	if opts.Rand == nil {
		opts.Rand = systemRand{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Retrying{
		client:          client,
		maxAttempts:     opts.MaxAttempts,
		backoff:         opts.Backoff,
		minContentBytes: opts.MinContentBytes,
		rnd:             opts.Rand,
		limiter:         opts.Limiter,
		logger:          opts.Logger,
	}
}

// FetchWithRetry fetches rawURL with up to MaxAttempts tries. The final
// outcome, successful or not, is returned for the caller to apply policy;
// only a malformed URL is an error.
func (r *Retrying) FetchWithRetry(ctx context.Context, rawURL string) (types.FetchOutcome, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !target.IsAbs() || target.Host == "" {
		return types.FetchOutcome{}, fmt.Errorf("invalid fetch url %q", rawURL)
	}

	profile := retailer.Resolve(target.Hostname())
	offset := r.rnd.Intn(len(agentPool(profile.Device)))
	logger := r.logger.With("url", target.String(), "retailer", profile.DisplayName)

	var outcome types.FetchOutcome
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return outcome, nil
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx, target.Hostname()); err != nil {
				return outcome, nil
			}
		}

		// Advancing the pool index each attempt guarantees a blocked
		// attempt retries with a different user agent.
		headers := headersFor(profile, offset+attempt-1)
		outcome, err = r.client.Get(ctx, target.String(), headers)
		if err != nil {
			return types.FetchOutcome{}, err
		}

		if outcome.OK() && r.Sufficient(outcome) {
			return outcome, nil
		}
		if attempt == r.maxAttempts {
			break
		}

		logger.Warn("fetch attempt failed",
			"attempt", attempt,
			"status", outcome.Status,
			"status_code", outcome.StatusCode,
			"body_bytes", len(outcome.Body),
		)
		if !r.sleep(ctx, time.Duration(attempt)*r.backoff) {
			break
		}
	}
	return outcome, nil
}

// Sufficient reports whether an ok outcome carries enough content to be
// worth parsing.
func (r *Retrying) Sufficient(o types.FetchOutcome) bool {
	return o.OK() && len(o.Body) >= r.minContentBytes
}

func (r *Retrying) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
