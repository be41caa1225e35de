// Package sanitize rewrites fetched or rendered HTML so it can be embedded
// outside its origin: embedding-blocking meta tags are stripped, protocol-
// relative resource URLs are pinned to HTTPS, and a base tag is injected so
// relative links keep resolving. The transformation is pure and idempotent.
package sanitize

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var rewriteAttrs = []string{"src", "href", "action", "data-src"}

// Sanitize returns an embeddable rendition of html. originalURL supplies the
// origin for the injected base tag.
func Sanitize(html, originalURL string) (string, error) {
	origin, err := originOf(originalURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	stripFramingMeta(doc)
	rewriteProtocolRelative(doc)
	injectBase(doc, origin)

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialise html: %w", err)
	}
	return out, nil
}

func originOf(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("invalid origin url %q", rawURL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host, nil
}

// stripFramingMeta drops meta tags that would forbid display outside the
// page's own origin.
func stripFramingMeta(doc *goquery.Document) {
	doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		equiv, _ := s.Attr("http-equiv")
		switch strings.ToLower(strings.TrimSpace(equiv)) {
		case "x-frame-options", "content-security-policy":
			s.Remove()
		}
	})
}

func rewriteProtocolRelative(doc *goquery.Document) {
	for _, attr := range rewriteAttrs {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			val, ok := s.Attr(attr)
			if !ok {
				return
			}
			if strings.HasPrefix(val, "//") {
				s.SetAttr(attr, "https:"+val)
			}
		})
	}

	doc.Find("[srcset]").Each(func(_ int, s *goquery.Selection) {
		val, ok := s.Attr("srcset")
		if !ok || !strings.Contains(val, "//") {
			return
		}
		entries := strings.Split(val, ",")
		for i, entry := range entries {
			trimmed := strings.TrimSpace(entry)
			if strings.HasPrefix(trimmed, "//") {
				entries[i] = "https:" + trimmed
			} else {
				entries[i] = trimmed
			}
		}
		s.SetAttr("srcset", strings.Join(entries, ", "))
	})
}

// injectBase prepends a base tag to head when none exists, so relative
// resource paths resolve against the original origin.
func injectBase(doc *goquery.Document, origin string) {
	if doc.Find("head base").Length() > 0 {
		return
	}
	head := doc.Find("head").First()
	if head.Length() == 0 {
		return
	}
	head.PrependHtml(`<base href="` + origin + `/"/>`)
}
