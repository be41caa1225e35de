// Package suggest produces product candidates from a reasoning service and
// drives their enrichment into finalized suggestions.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/workwAIse/furniturematch-sub000/internal/config"
	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// Boundary shapes for the reasoning service.
type reasoningRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type reasoningResponse struct {
	Content string `json:"content"`
}

type suggestionEnvelope struct {
	Suggestions []rawSuggestion `json:"suggestions"`
}

type rawSuggestion struct {
	Name       string  `json:"name"`
	Retailer   string  `json:"retailer"`
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// Generator asks the reasoning service for product candidates matching a
// user's style history.
type Generator struct {
	http           *resty.Client
	limiter        *rate.Limiter
	model          string
	maxSuggestions int
	logger         *slog.Logger
}

// NewGenerator builds a generator from configuration.
func NewGenerator(cfg config.ReasoningConfig, maxSuggestions int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	perMin := cfg.RatePerMin
	if perMin <= 0 {
		perMin = 10
	}
	if maxSuggestions <= 0 {
		maxSuggestions = 5
	}

	client := resty.New()
	client.SetBaseURL(cfg.Endpoint)
	client.SetTimeout(timeout)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Generator{
		http:           client,
		limiter:        rate.NewLimiter(rate.Limit(float64(perMin)/60.0), 2),
		model:          cfg.Model,
		maxSuggestions: maxSuggestions,
		logger:         logger,
	}
}

// Generate asks for up to count candidate products. A response the service
// mangles into non-JSON degrades to an empty list, never an error: "no
// suggestions this round" is a first-class outcome. Only transport failures
// return an error.
func (g *Generator) Generate(ctx context.Context, category string, hist types.History, count int) ([]types.Suggestion, error) {
	if count <= 0 || count > g.maxSuggestions {
		count = g.maxSuggestions
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var parsed reasoningResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(reasoningRequest{Model: g.model, Prompt: BuildPrompt(category, hist, count)}).
		SetResult(&parsed).
		Post("/v1/complete")
	if err != nil {
		return nil, fmt.Errorf("reasoning request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reasoning api status %d", resp.StatusCode())
	}

	suggestions := ParseSuggestions(parsed.Content)
	if len(suggestions) == 0 {
		g.logger.Warn("reasoning response yielded no usable suggestions", "category", category)
	}
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return suggestions, nil
}

// BuildPrompt embeds liked, disliked, and previously rejected items as three
// labeled sections so the model can echo liked style signals without
// repeating rejected directions.
func BuildPrompt(category string, hist types.History, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d furniture products in the category %q available from German online retailers.\n\n", count, category)

	writeSection(&b, "ITEMS THE USER LIKED", hist.Liked)
	writeSection(&b, "ITEMS THE USER DISLIKED", hist.Disliked)
	writeSection(&b, "PREVIOUSLY REJECTED SUGGESTIONS (do not repeat these)", hist.Rejected)

	b.WriteString("Respond with a JSON object of the form ")
	b.WriteString(`{"suggestions":[{"name":...,"retailer":...,"category":...,"reasoning":...,"confidence":0-100}]}.`)
	return b.String()
}

func writeSection(b *strings.Builder, label string, items []string) {
	fmt.Fprintf(b, "%s:\n", label)
	if len(items) == 0 {
		b.WriteString("- none\n")
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// ParseSuggestions extracts the suggestion list from free-form reasoning
// output. Direct JSON parse is tried first, then the content of a fenced
// code block. Candidates missing name, retailer, or category are dropped.
func ParseSuggestions(content string) []types.Suggestion {
	envelope, ok := decodeEnvelope(content)
	if !ok {
		if m := fencedBlock.FindStringSubmatch(content); m != nil {
			envelope, ok = decodeEnvelope(m[1])
		}
	}
	if !ok {
		return nil
	}

	suggestions := make([]types.Suggestion, 0, len(envelope.Suggestions))
	for _, raw := range envelope.Suggestions {
		if strings.TrimSpace(raw.Name) == "" ||
			strings.TrimSpace(raw.Retailer) == "" ||
			strings.TrimSpace(raw.Category) == "" {
			continue
		}
		suggestions = append(suggestions, types.Suggestion{
			Name:       strings.TrimSpace(raw.Name),
			Retailer:   strings.TrimSpace(raw.Retailer),
			Category:   strings.TrimSpace(raw.Category),
			Reasoning:  strings.TrimSpace(raw.Reasoning),
			Confidence: normalizeConfidence(raw.Confidence),
		})
	}
	return suggestions
}

func decodeEnvelope(content string) (suggestionEnvelope, bool) {
	var envelope suggestionEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &envelope); err != nil {
		return suggestionEnvelope{}, false
	}
	return envelope, true
}

// normalizeConfidence maps the service's 0-100 scale into [0,1]. Values at
// or below 1 are assumed to already be decimal; the upstream scale is not
// contractual, so the clamp is the invariant that actually holds.
func normalizeConfidence(c float64) float64 {
	if c > 1 {
		c = c / 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
