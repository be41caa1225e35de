package suggest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// SuggestionSource yields product candidates without URLs.
type SuggestionSource interface {
	Generate(ctx context.Context, category string, hist types.History, count int) ([]types.Suggestion, error)
}

// URLResolver locates a product page for a named candidate. An empty string
// means no page qualified.
type URLResolver interface {
	FindProductURL(ctx context.Context, name, retailer, category string) string
}

// Extractor enriches a resolved URL with product fields. It never fails;
// worst case is a heuristic result.
type Extractor interface {
	ExtractWithRetry(ctx context.Context, rawURL, retailerHint string) types.ExtractionResult
}

// Pipeline chains generation, URL resolution, and extraction. Failures are
// isolated per candidate: one suggestion's dead end never aborts the batch,
// and the output is whatever subset survived, possibly empty.
type Pipeline struct {
	source    SuggestionSource
	resolver  URLResolver
	extractor Extractor
	logger    *slog.Logger
}

// NewPipeline wires the three stages together.
func NewPipeline(source SuggestionSource, resolver URLResolver, extractor Extractor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{source: source, resolver: resolver, extractor: extractor, logger: logger}
}

// Run generates up to count suggestions for category and enriches each one
// sequentially. Enrichment order is deliberate: it keeps log correlation
// readable and spreads calls across the external API rate budgets.
func (p *Pipeline) Run(ctx context.Context, category string, hist types.History, count int) []types.FinalizedSuggestion {
	logger := p.logger.With("run_id", newRunID(), "category", category)

	suggestions, err := p.source.Generate(ctx, category, hist, count)
	if err != nil {
		logger.Warn("suggestion generation failed", "error", err)
		return []types.FinalizedSuggestion{}
	}
	logger.Info("suggestions generated", "count", len(suggestions))

	finalized := make([]types.FinalizedSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if ctx.Err() != nil {
			break
		}
		itemLogger := logger.With("name", s.Name, "retailer", s.Retailer)

		productURL := p.resolver.FindProductURL(ctx, s.Name, s.Retailer, s.Category)
		if productURL == "" {
			// Unproductive, not an error: the candidate is dropped.
			itemLogger.Debug("no product url resolved, dropping suggestion")
			continue
		}

		result := p.extractor.ExtractWithRetry(ctx, productURL, s.Retailer)
		finalized = append(finalized, types.FinalizedSuggestion{
			ExtractionResult: result,
			Name:             s.Name,
			Category:         s.Category,
			Reasoning:        s.Reasoning,
			Confidence:       s.Confidence,
			URL:              productURL,
		})
		itemLogger.Info("suggestion finalized", "url", productURL, "confidence", result.Confidence)
	}

	logger.Info("pipeline run complete", "finalized", len(finalized))
	return finalized
}

func newRunID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf)
}
