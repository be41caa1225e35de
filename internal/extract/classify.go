package extract

import "strings"

// Attempt is the raw outcome of one structured-extraction call, flattened
// for classification.
type Attempt struct {
	Title       string
	Description string
	Image       string
	Err         string
}

// Verdict is the classifier's reading of an extraction attempt. CanRetry
// distinguishes transient blips (worth another call) from deterministic
// blocks (another call reproduces the same page and wastes quota).
type Verdict struct {
	IsBlocked     bool
	Reason        string
	CanRetry      bool
	IsGenericData bool
}

// Sentinel titles a blocked extractor returns instead of product data:
// bare marketplace homepage titles and placeholder words.
var genericTitles = map[string]struct{}{
	"product":            {},
	"produkt":            {},
	"amazon":             {},
	"amazon.de":          {},
	"amazon.com":         {},
	"otto":               {},
	"otto.de":            {},
	"ikea":               {},
	"wayfair":            {},
	"home24":             {},
	"ebay":               {},
	"robot check":        {},
	"access denied":      {},
	"attention required": {},
}

var blockMarkers = []string{
	"block", "forbidden", "403", "429", "rate limit", "too many requests",
	"captcha", "access denied", "robot", "bot detected", "unauthorized",
}

var transientMarkers = []string{
	"timeout", "timed out", "deadline", "network", "connection",
	"reset", "refused", "temporarily", "unavailable", "502", "503", "504",
}

// Classify applies the blockage rules in priority order. The ordering
// matters: a generic-but-200 response must not be confused with a transient
// network blip.
func Classify(a Attempt) Verdict {
	if a.Title == "" && a.Description == "" && a.Image == "" && a.Err == "" {
		return Verdict{IsBlocked: true, Reason: "no data returned", CanRetry: false}
	}

	if a.Err == "" && isGenericTitle(a.Title) && a.Description == "" && a.Image == "" {
		return Verdict{IsBlocked: true, Reason: "generic placeholder data", CanRetry: false, IsGenericData: true}
	}

	errText := strings.ToLower(a.Err)
	if errText != "" {
		for _, marker := range blockMarkers {
			if strings.Contains(errText, marker) {
				return Verdict{IsBlocked: true, Reason: "access blocked: " + marker, CanRetry: false}
			}
		}
		for _, marker := range transientMarkers {
			if strings.Contains(errText, marker) {
				return Verdict{IsBlocked: false, Reason: "transient: " + marker, CanRetry: true}
			}
		}
	}

	return Verdict{IsBlocked: false, Reason: "unknown", CanRetry: true}
}

func isGenericTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return true
	}
	_, ok := genericTitles[t]
	return ok
}
