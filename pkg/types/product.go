package types

import "time"

// FetchStatus classifies the terminal state of a single fetch attempt.
type FetchStatus string

const (
	FetchOK           FetchStatus = "ok"
	FetchHTTPError    FetchStatus = "http_error"
	FetchNetworkError FetchStatus = "network_error"
	FetchTimeout      FetchStatus = "timeout"
)

// FetchOutcome represents the result of a single page retrieval attempt.
// HTTP 4xx/5xx responses are reported as FetchHTTPError with the status code
// set; only connection-level failures surface as network error or timeout.
type FetchOutcome struct {
	Status      FetchStatus
	StatusCode  int
	Body        string
	ContentType string
	FinalURL    string
	Rendered    bool
	Latency     time.Duration
}

// OK reports whether the attempt produced a 2xx response body.
func (o FetchOutcome) OK() bool {
	return o.Status == FetchOK
}

// Blocked reports whether the attempt hit a bot-rejection status code.
func (o FetchOutcome) Blocked() bool {
	return o.Status == FetchHTTPError && (o.StatusCode == 403 || o.StatusCode == 429)
}

// ExtractionConfidence distinguishes genuinely scraped product data from
// URL-derived guesses.
type ExtractionConfidence string

const (
	ConfidenceScraped   ExtractionConfidence = "scraped"
	ConfidenceHeuristic ExtractionConfidence = "heuristic"
)

// ExtractionResult carries structured product fields pulled from a retailer
// page. Title is never empty; callers synthesize a placeholder when no
// signal exists.
type ExtractionResult struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Image       string               `json:"image,omitempty"`
	Price       string               `json:"price,omitempty"`
	Retailer    string               `json:"retailer"`
	Confidence  ExtractionConfidence `json:"confidence"`
}

// SearchCandidate is one ranked result from the web-search API. Candidates
// are ephemeral: scored, filtered, and discarded once a match is chosen.
type SearchCandidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Suggestion is a product candidate proposed by the reasoning service.
// Confidence is normalized to [0,1]; the upstream service reports a 0-100
// scale which is divided down at the parse boundary.
type Suggestion struct {
	Name       string  `json:"name"`
	Retailer   string  `json:"retailer"`
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// FinalizedSuggestion is a suggestion enriched with a resolved product URL
// and extracted product fields, ready for downstream persistence.
type FinalizedSuggestion struct {
	ExtractionResult
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"suggestion_confidence"`
	URL        string  `json:"url"`
}

// History summarizes the user's style signals fed into suggestion prompts.
type History struct {
	Liked    []string `json:"liked"`
	Disliked []string `json:"disliked"`
	Rejected []string `json:"rejected"`
}

// ProxyMethod names the escalation tier that produced a proxy result.
type ProxyMethod string

const (
	ProxyFetch    ProxyMethod = "fetch"
	ProxyRender   ProxyMethod = "render"
	ProxyFallback ProxyMethod = "fallback"
)

// FallbackDescriptor is the minimal "view externally" payload returned when
// no tier could produce embeddable content.
type FallbackDescriptor struct {
	Title    string `json:"title"`
	Retailer string `json:"retailer"`
	URL      string `json:"url"`
}

// ProxyResult is the outcome of a content-proxy request. Exactly one of
// SanitizedHTML or Fallback is populated.
type ProxyResult struct {
	Success       bool                `json:"success"`
	SanitizedHTML string              `json:"sanitized_html,omitempty"`
	Method        ProxyMethod         `json:"method"`
	Fallback      *FallbackDescriptor `json:"fallback,omitempty"`
}
