// Package search resolves a bare product name into a real retailer product
// page via a web-search API. Candidate links are filtered with a scored
// heuristic that prefers product pages over category and listing pages.
package search

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
	"github.com/workwAIse/furniturematch-sub000/internal/retailer"
	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// Boundary shape for the search API response.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Path substrings marking listing, category, or search pages — resolved URLs
// must point at a single product, never a grid of them.
var listingMarkers = []string{
	"/s?", "/search", "/suche", "/category", "/categories", "/kategorie",
	"/c/", "/cat/", "/filter", "/collections/", "/b/", "/l/",
}

// Path substrings marking a retailer product page.
var productMarkers = []string{
	"/dp/", "/gp/product/", "/p/", "/product/", "/produkt/", "/pdp/",
	"/item/", "/artikel/", "/itm/", "-p-",
}

// Title wording that flags a category page even when the path looks fine.
var categoryTitleMarkers = []string{
	"kategorie", "übersicht", "sortiment", "ergebnisse", "alle ", "günstig online",
}

// Keywords per product category, matched against result title and snippet.
var categoryKeywords = map[string][]string{
	"sofa":    {"sofa", "couch", "ecksofa"},
	"table":   {"tisch", "table"},
	"chair":   {"stuhl", "sessel", "chair"},
	"bed":     {"bett", "bed"},
	"lamp":    {"lampe", "leuchte", "lamp"},
	"shelf":   {"regal", "shelf"},
	"dresser": {"kommode", "schrank"},
}

// Resolver finds product URLs through the web-search API.
type Resolver struct {
	http        *resty.Client
	limiter     *rate.Limiter
	maxResults  int
	market      string
	locale      string
	intentTerms string
	logger      *slog.Logger
}

// NewResolver builds a resolver from configuration.
func NewResolver(cfg config.SearchConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	perMin := cfg.RatePerMin
	if perMin <= 0 {
		perMin = 60
	}
	market := cfg.Market
	if market == "" {
		market = ".de"
	}
	intent := cfg.IntentTerms
	if intent == "" {
		intent = "kaufen bestellen"
	}

	client := resty.New()
	client.SetBaseURL(cfg.Endpoint)
	client.SetTimeout(timeout)
	if cfg.APIKey != "" {
		client.SetHeader("X-API-Key", cfg.APIKey)
	}

	return &Resolver{
		http:        client,
		limiter:     rate.NewLimiter(rate.Limit(float64(perMin)/60.0), 10),
		maxResults:  maxResults,
		market:      market,
		locale:      cfg.Locale,
		intentTerms: intent,
		logger:      logger,
	}
}

// FindProductURL resolves a product name to a retailer product page. An
// empty string means no qualifying page was found or the search API failed;
// either way only this suggestion's enrichment is aborted, never the batch.
func (r *Resolver) FindProductURL(ctx context.Context, name, retailerName, category string) string {
	query := r.BuildQuery(name, retailerName, category)
	logger := r.logger.With("query", query)

	candidates, err := r.search(ctx, query)
	if err != nil {
		logger.Warn("search api call failed", "error", err)
		return ""
	}

	match := r.FindBestMatch(candidates, category)
	if match == "" {
		logger.Debug("no qualifying product page among results", "candidates", len(candidates))
	}
	return match
}

// BuildQuery combines retailer, product name, category, purchase-intent
// terms, and a site: filter into one search query.
func (r *Resolver) BuildQuery(name, retailerName, category string) string {
	siteFilter := "site:*" + r.market
	if domain, ok := retailer.DomainFor(retailerName); ok {
		siteFilter = "site:" + domain
	}
	parts := []string{siteFilter, retailerName, name, category, r.intentTerms}
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return strings.Join(fields, " ")
}

func (r *Resolver) search(ctx context.Context, query string) ([]types.SearchCandidate, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var parsed searchResponse
	resp, err := r.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":   query,
			"gl":  r.locale,
			"hl":  r.locale,
			"num": fmt.Sprintf("%d", r.maxResults),
		}).
		SetResult(&parsed).
		Get("/v1/search")
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search api status %d", resp.StatusCode())
	}

	candidates := make([]types.SearchCandidate, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		if strings.TrimSpace(res.Link) == "" {
			continue
		}
		candidates = append(candidates, types.SearchCandidate{
			URL:     res.Link,
			Title:   res.Title,
			Snippet: res.Snippet,
		})
		if len(candidates) >= r.maxResults {
			break
		}
	}
	return candidates, nil
}

// FindBestMatch returns the first candidate, in API-ranked order, that
// passes the product-page filters. There is no re-ranking among accepted
// candidates: the API's own ordering is trusted.
func (r *Resolver) FindBestMatch(candidates []types.SearchCandidate, category string) string {
	for _, c := range candidates {
		if r.acceptCandidate(c, category) {
			return c.URL
		}
	}
	return ""
}

func (r *Resolver) acceptCandidate(c types.SearchCandidate, category string) bool {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return false
	}

	// Known retailers pass regardless of TLD (ikea.com serves the German
	// market under /de/); unknown hosts must match the market TLD.
	host := strings.ToLower(u.Hostname())
	if retailer.Resolve(host).DisplayName == retailer.Default.DisplayName && !strings.HasSuffix(host, r.market) {
		return false
	}

	pathAndQuery := strings.ToLower(u.Path)
	if u.RawQuery != "" {
		pathAndQuery += "?" + strings.ToLower(u.RawQuery)
	}
	for _, marker := range listingMarkers {
		if strings.Contains(pathAndQuery, marker) {
			return false
		}
	}

	text := strings.ToLower(c.Title + " " + c.Snippet)
	for _, marker := range categoryTitleMarkers {
		if strings.Contains(text, marker) {
			return false
		}
	}

	for _, marker := range productMarkers {
		if strings.Contains(pathAndQuery, marker) {
			return true
		}
	}
	for _, kw := range keywordsFor(category) {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, term := range strings.Fields(strings.ToLower(r.intentTerms)) {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func keywordsFor(category string) []string {
	cat := strings.ToLower(strings.TrimSpace(category))
	if kws, ok := categoryKeywords[cat]; ok {
		return kws
	}
	if cat == "" {
		return nil
	}
	return []string{cat}
}
