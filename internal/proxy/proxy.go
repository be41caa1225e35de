// Package proxy serves embeddable renditions of retailer product pages
// through a three-tier escalation: plain fetch, headless render, then a
// static "view externally" fallback. The caller always receives a
// ProxyResult; only a malformed URL is a visible error.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/workwAIse/furniturematch-sub000/internal/robots"
	"github.com/workwAIse/furniturematch-sub000/internal/sanitize"
	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// Fetcher is the plain-HTTP tier.
type Fetcher interface {
	FetchWithRetry(ctx context.Context, rawURL string) (types.FetchOutcome, error)
	Sufficient(o types.FetchOutcome) bool
}

// Renderer is the headless-browser tier.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (types.FetchOutcome, error)
}

// Proxy runs the escalation tiers in order.
type Proxy struct {
	fetcher  Fetcher
	renderer Renderer
	robots   *robots.Agent
	logger   *slog.Logger
}

// New wires a proxy from its tiers. renderer may be nil, in which case the
// render tier is skipped.
func New(fetcher Fetcher, renderer Renderer, agent *robots.Agent, logger *slog.Logger) *Proxy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Proxy{fetcher: fetcher, renderer: renderer, robots: agent, logger: logger}
}

// Proxy resolves rawURL into embeddable content. Each tier is independent:
// a tier's failure escalates to the next, and the caller-level deadline
// propagates into every tier — no tier starts once cancellation is observed.
func (p *Proxy) Proxy(ctx context.Context, rawURL string) (types.ProxyResult, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !target.IsAbs() || target.Host == "" {
		return types.ProxyResult{}, fmt.Errorf("invalid proxy url %q", rawURL)
	}

	logger := p.logger.With("url", target.String())

	if p.robots != nil && !p.robots.Allowed(ctx, target) {
		logger.Debug("disallowed by robots policy, serving fallback")
		return p.fallback(target), nil
	}

	if ctx.Err() == nil {
		outcome, err := p.fetcher.FetchWithRetry(ctx, target.String())
		if err == nil && outcome.OK() && p.fetcher.Sufficient(outcome) {
			if html, err := sanitize.Sanitize(outcome.Body, target.String()); err == nil {
				logger.Debug("served via plain fetch", "body_bytes", len(html))
				return types.ProxyResult{Success: true, SanitizedHTML: html, Method: types.ProxyFetch}, nil
			}
		}
		logger.Debug("fetch tier exhausted, escalating to render",
			"status", outcome.Status, "status_code", outcome.StatusCode)
	}

	if p.renderer != nil && ctx.Err() == nil {
		outcome, err := p.renderer.Render(ctx, target.String())
		if err == nil && outcome.OK() {
			if html, err := sanitize.Sanitize(outcome.Body, target.String()); err == nil {
				logger.Debug("served via headless render", "body_bytes", len(html))
				return types.ProxyResult{Success: true, SanitizedHTML: html, Method: types.ProxyRender}, nil
			}
		}
		if err != nil {
			logger.Warn("render tier failed", "error", err)
		}
	}

	return p.fallback(target), nil
}

// fallback builds the minimal descriptor the UI uses to render a "view
// externally" affordance instead of embedded content.
func (p *Proxy) fallback(target *url.URL) types.ProxyResult {
	return types.ProxyResult{
		Success: false,
		Method:  types.ProxyFallback,
		Fallback: &types.FallbackDescriptor{
			Title:    "Product",
			Retailer: target.Hostname(),
			URL:      target.String(),
		},
	}
}
