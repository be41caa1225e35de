package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// RenderOptions configures the headless-browser escalation tier.
type RenderOptions struct {
	Timeout            time.Duration
	SettleDelay        time.Duration
	MaxBodyBytes       int64
	ConcurrentSessions int
	DisableHeadless    bool
}

// Renderer executes sandboxed headless Chrome sessions with a mobile
// profile. Mobile pages are empirically less likely to be served a bot wall
// than their desktop variants.
type Renderer struct {
	opts      RenderOptions
	semaphore chan struct{}
	logger    *slog.Logger
}

// NewRenderer constructs a renderer with bounded session concurrency.
func NewRenderer(opts RenderOptions, logger *slog.Logger) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 2 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}
	if opts.ConcurrentSessions <= 0 {
		opts.ConcurrentSessions = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		opts:      opts,
		semaphore: make(chan struct{}, opts.ConcurrentSessions),
		logger:    logger,
	}
}

// Render navigates to the target URL, waits for late-loading content, and
// returns the final DOM serialization. The browser instance is torn down on
// every exit path; the deadline is a hard cancellation that aborts in-flight
// navigation rather than letting a Chrome process linger.
func (r *Renderer) Render(parentCtx context.Context, rawURL string) (types.FetchOutcome, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !target.IsAbs() || target.Host == "" {
		return types.FetchOutcome{}, fmt.Errorf("invalid render url %q", rawURL)
	}

	logger := r.logger.With("url", target.String(), "timeout", r.opts.Timeout.String())

	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-parentCtx.Done():
		return types.FetchOutcome{}, parentCtx.Err()
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.opts.Timeout)
	defer cancel()

	headless := !r.opts.DisableHeadless
	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(MobileUserAgent()),
	}

	// The deferred cancels are the teardown guarantee: chromedp kills the
	// browser process when the allocator context is cancelled, which happens
	// on success, error, and timeout alike.
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var html string
	var finalURL string

	actions := []chromedp.Action{
		chromedp.EmulateViewport(390, 844),
		chromedp.Navigate(target.String()),
		chromedp.Sleep(r.opts.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	}

	if err := chromedp.Run(chromeCtx, actions...); err != nil {
		logger.Warn("chromedp run failed", "error", err)
		return types.FetchOutcome{}, fmt.Errorf("chromedp run: %w", err)
	}

	if int64(len(html)) > r.opts.MaxBodyBytes {
		html = html[:r.opts.MaxBodyBytes]
	}
	if finalURL == "" {
		finalURL = target.String()
	}

	latency := time.Since(start)
	logger.Debug("render complete", "latency_ms", latency.Milliseconds(), "html_bytes", len(html))

	return types.FetchOutcome{
		Status:      types.FetchOK,
		StatusCode:  200,
		Body:        html,
		ContentType: "text/html; charset=utf-8",
		FinalURL:    finalURL,
		Rendered:    true,
		Latency:     latency,
	}, nil
}
