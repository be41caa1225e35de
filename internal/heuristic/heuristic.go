// Package heuristic derives best-effort product data from a bare URL. It is
// the last line of defence when neither fetching nor structured extraction
// produced anything usable: pure string work, no I/O.
package heuristic

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/workwAIse/furniturematch-sub000/internal/retailer"
)

// Confidence grades how trustworthy a URL-derived guess is. Callers use it
// to decide whether the guess is worth keeping.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Guess is the best-effort product identity derived from a URL.
type Guess struct {
	Title      string
	Retailer   string
	Confidence Confidence
}

// Path segments that mark the next (or previous) segment as a product slug.
var productMarkers = map[string]struct{}{
	"p":       {},
	"product": {},
	"produkt": {},
	"item":    {},
	"artikel": {},
	"dp":      {},
	"itm":     {},
	"pdp":     {},
}

// Words carrying no product signal, dropped from derived titles.
var boilerplateWords = map[string]struct{}{
	"product":  {},
	"products": {},
	"produkt":  {},
	"item":     {},
	"items":    {},
	"page":     {},
	"shop":     {},
	"html":     {},
	"index":    {},
	"detail":   {},
	"details":  {},
}

var idLikeSegment = regexp.MustCompile(`^[A-Z0-9]{8,}$|^[0-9]+$`)

// FromURL derives a title and retailer from rawURL. Confidence is high only
// when a structured product-path pattern matched, medium for plain
// path-segment derivation, low otherwise. Title is never empty.
func FromURL(rawURL string) Guess {
	guess := Guess{Title: "Product", Retailer: retailer.Default.DisplayName, Confidence: ConfidenceLow}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return guess
	}
	guess.Retailer = retailer.Resolve(u.Hostname()).DisplayName

	segments := splitPath(u.Path)
	if len(segments) == 0 {
		return guess
	}

	// Structured patterns carry the most specific name data, so they are
	// tried before the generic last-segment fallback.
	if title := titleFromMarker(segments, guess.Retailer); title != "" {
		guess.Title = title
		guess.Confidence = ConfidenceHigh
		return guess
	}

	for i := len(segments) - 1; i >= 0; i-- {
		if title := humanize(segments[i], guess.Retailer); title != "" {
			guess.Title = title
			guess.Confidence = ConfidenceMedium
			return guess
		}
	}
	return guess
}

func titleFromMarker(segments []string, retailerName string) string {
	for i, seg := range segments {
		if _, ok := productMarkers[strings.ToLower(seg)]; !ok {
			continue
		}
		// Slug usually follows the marker (/p/kivik-sofa); on some
		// marketplaces it precedes it (/kivik-sofa/dp/B00ABC1234).
		if i+1 < len(segments) {
			if title := humanize(segments[i+1], retailerName); title != "" {
				return title
			}
		}
		if i > 0 {
			if title := humanize(segments[i-1], retailerName); title != "" {
				return title
			}
		}
	}
	return ""
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// humanize turns a URL slug into a display title, or "" when the segment
// carries no usable words.
func humanize(segment, retailerName string) string {
	if idLikeSegment.MatchString(segment) {
		return ""
	}
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	if idx := strings.LastIndex(segment, "."); idx > 0 {
		segment = segment[:idx]
	}

	replacer := strings.NewReplacer("-", " ", "_", " ", "+", " ")
	raw := strings.Fields(replacer.Replace(segment))

	retailerWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(retailerName)) {
		retailerWords[w] = struct{}{}
	}

	words := make([]string, 0, len(raw))
	for _, w := range raw {
		lower := strings.ToLower(w)
		if _, ok := boilerplateWords[lower]; ok {
			continue
		}
		if _, ok := retailerWords[lower]; ok {
			continue
		}
		words = append(words, titleCase(lower))
	}
	return strings.Join(words, " ")
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
