package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/andybalholm/brotli"

	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// Options controls HTTP fetching behaviour.
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	ProxyURL     string
}

// Client performs single HTTP GETs and classifies the outcome. HTTP 4xx/5xx
// never surface as Go errors; only malformed input does.
type Client struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
}

// NewClient constructs a fetch client. The transport is wrapped with
// browser-profile headers so ordinary bot walls see a plausible client.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if strings.TrimSpace(opts.ProxyURL) != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		client: &http.Client{
			Transport: cloudflarebp.AddCloudFlareByPass(transport),
		},
		timeout:      opts.Timeout,
		maxBodyBytes: opts.MaxBodyBytes,
	}, nil
}

// Get downloads a single URL, following redirects. The configured timeout is
// a hard cancellation applied through the request context, bounding
// worst-case latency regardless of how slowly the peer trickles bytes.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (types.FetchOutcome, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !target.IsAbs() || target.Host == "" {
		return types.FetchOutcome{}, fmt.Errorf("invalid fetch url %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return types.FetchOutcome{}, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyTransportError(err, time.Since(start)), nil
	}

	finalURL := target.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := c.readBody(resp)
	if err != nil {
		return types.FetchOutcome{
			Status:  types.FetchNetworkError,
			Latency: time.Since(start),
		}, nil
	}

	outcome := types.FetchOutcome{
		StatusCode:  resp.StatusCode,
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    finalURL,
		Latency:     time.Since(start),
	}
	if resp.StatusCode >= 400 {
		outcome.Status = types.FetchHTTPError
	} else {
		outcome.Status = types.FetchOK
	}
	return outcome, nil
}

func classifyTransportError(err error, latency time.Duration) types.FetchOutcome {
	status := types.FetchNetworkError
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		status = types.FetchTimeout
	}
	return types.FetchOutcome{Status: status, Latency: latency}
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	limited := io.LimitReader(reader, c.maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		body = body[:c.maxBodyBytes]
	}
	return body, nil
}

// HTTPClient exposes the underlying HTTP client for reuse (eg. robots.txt).
func (c *Client) HTTPClient() *http.Client {
	if c == nil {
		return nil
	}
	return c.client
}
