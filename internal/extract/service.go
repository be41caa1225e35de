// Package extract turns a resolved product URL into structured product data
// via a third-party extraction API, degrading to URL-derived heuristics when
// the source site blocks automated access. Extraction never propagates an
// error to its caller: the worst case is a low-confidence heuristic result.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/workwAIse/furniturematch-sub000/internal/config"
	"github.com/workwAIse/furniturematch-sub000/internal/heuristic"
	"github.com/workwAIse/furniturematch-sub000/internal/retailer"
	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// Boundary shapes for the extraction API. Validated once at ingestion; raw
// maps never travel deeper into the pipeline.
type extractRequest struct {
	URL    string   `json:"url"`
	Fields []string `json:"fields"`
}

type extractResponse struct {
	Success bool        `json:"success"`
	Data    extractData `json:"data"`
	Error   string      `json:"error"`
}

type extractData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Retailer    string `json:"retailer"`
}

var extractFields = []string{"title", "description", "price", "image", "retailer"}

// Service orchestrates extraction-API calls with blockage classification and
// heuristic fallback.
type Service struct {
	http        *resty.Client
	limiter     *rate.Limiter
	maxAttempts int
	logger      *slog.Logger
}

// NewService builds an extraction service from configuration.
func NewService(cfg config.ExtractionConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2
	}
	perMin := cfg.RatePerMin
	if perMin <= 0 {
		perMin = 30
	}

	client := resty.New()
	client.SetBaseURL(cfg.Endpoint)
	client.SetTimeout(timeout)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Service{
		http:        client,
		limiter:     rate.NewLimiter(rate.Limit(float64(perMin)/60.0), 5),
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Extract performs a single extraction attempt with fallback. It always
// returns a result with a non-empty title.
func (s *Service) Extract(ctx context.Context, rawURL, retailerHint string) types.ExtractionResult {
	return s.extract(ctx, rawURL, retailerHint, 1)
}

// ExtractWithRetry retries up to the configured attempt budget, but only
// when the previous failure was transient; deterministic blocks and generic
// placeholder pages go straight to the heuristic fallback.
func (s *Service) ExtractWithRetry(ctx context.Context, rawURL, retailerHint string) types.ExtractionResult {
	return s.extract(ctx, rawURL, retailerHint, s.maxAttempts)
}

func (s *Service) extract(ctx context.Context, rawURL, retailerHint string, attempts int) types.ExtractionResult {
	logger := s.logger.With("url", rawURL)

	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := s.callAPI(ctx, rawURL)

		var verdict Verdict
		if err != nil {
			verdict = Classify(Attempt{Err: err.Error()})
			logger.Warn("extraction call failed",
				"attempt", attempt, "error", err, "reason", verdict.Reason, "can_retry", verdict.CanRetry)
		} else {
			if hasMeaningfulData(data) {
				return types.ExtractionResult{
					Title:       strings.TrimSpace(data.Title),
					Description: strings.TrimSpace(data.Description),
					Image:       data.Image,
					Price:       data.Price,
					Retailer:    resolveRetailer(data.Retailer, retailerHint, rawURL),
					Confidence:  types.ConfidenceScraped,
				}
			}
			verdict = Classify(Attempt{
				Title:       data.Title,
				Description: data.Description,
				Image:       data.Image,
				Err:         data.Err,
			})
			logger.Debug("extraction returned no meaningful data",
				"attempt", attempt, "reason", verdict.Reason, "generic", verdict.IsGenericData)
		}

		if !verdict.CanRetry || ctx.Err() != nil {
			break
		}
	}

	return s.fallback(rawURL, retailerHint)
}

// callAPI flattens the API response into an Attempt-compatible shape.
type apiData struct {
	Title       string
	Description string
	Price       string
	Image       string
	Retailer    string
	Err         string
}

func (s *Service) callAPI(ctx context.Context, rawURL string) (apiData, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return apiData{}, fmt.Errorf("rate limiter: %w", err)
	}

	var parsed extractResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(extractRequest{URL: rawURL, Fields: extractFields}).
		SetResult(&parsed).
		Post("/v1/extract")
	if err != nil {
		return apiData{}, fmt.Errorf("extraction request: %w", err)
	}
	if resp.IsError() {
		return apiData{}, fmt.Errorf("extraction api status %d", resp.StatusCode())
	}
	if !parsed.Success {
		return apiData{Err: parsed.Error}, nil
	}
	return apiData{
		Title:       parsed.Data.Title,
		Description: parsed.Data.Description,
		Price:       parsed.Data.Price,
		Image:       parsed.Data.Image,
		Retailer:    parsed.Data.Retailer,
	}, nil
}

func (s *Service) fallback(rawURL, retailerHint string) types.ExtractionResult {
	guess := heuristic.FromURL(rawURL)
	name := guess.Retailer
	if strings.TrimSpace(retailerHint) != "" {
		name = strings.TrimSpace(retailerHint)
	}
	return types.ExtractionResult{
		Title:       guess.Title,
		Description: fmt.Sprintf("Product from %s. Limited information available.", name),
		Retailer:    name,
		Confidence:  types.ConfidenceHeuristic,
	}
}

// hasMeaningfulData requires a non-generic title plus at least one of
// description or image: a title alone is indistinguishable from a
// placeholder page.
func hasMeaningfulData(d apiData) bool {
	if isGenericTitle(d.Title) {
		return false
	}
	return strings.TrimSpace(d.Description) != "" || strings.TrimSpace(d.Image) != ""
}

func resolveRetailer(fromAPI, hint, rawURL string) string {
	if name := strings.TrimSpace(fromAPI); name != "" {
		return name
	}
	if name := strings.TrimSpace(hint); name != "" {
		return name
	}
	if u, err := url.Parse(rawURL); err == nil {
		return retailer.Resolve(u.Hostname()).DisplayName
	}
	return retailer.Default.DisplayName
}
