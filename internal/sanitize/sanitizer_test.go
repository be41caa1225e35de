package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://www.ikea.com/de/de/p/kivik-sofa"

func TestSanitizeStripsFramingMeta(t *testing.T) {
	html := `<html><head>
		<meta http-equiv="X-Frame-Options" content="DENY">
		<meta http-equiv="Content-Security-Policy" content="frame-ancestors 'none'">
		<meta http-equiv="refresh" content="30">
	</head><body>ok</body></html>`

	got, err := Sanitize(html, pageURL)
	require.NoError(t, err)
	assert.NotContains(t, got, "X-Frame-Options")
	assert.NotContains(t, got, "Content-Security-Policy")
	assert.Contains(t, got, "refresh")
}

func TestSanitizeRewritesProtocolRelative(t *testing.T) {
	html := `<html><head></head><body>
		<img src="//cdn.example.com/sofa.jpg">
		<img srcset="//cdn.example.com/s.jpg 1x, //cdn.example.com/l.jpg 2x">
		<a href="//www.example.com/page">link</a>
		<a href="/relative/page">untouched</a>
	</body></html>`

	got, err := Sanitize(html, pageURL)
	require.NoError(t, err)
	assert.Contains(t, got, `src="https://cdn.example.com/sofa.jpg"`)
	assert.Contains(t, got, "https://cdn.example.com/s.jpg 1x")
	assert.Contains(t, got, "https://cdn.example.com/l.jpg 2x")
	assert.Contains(t, got, `href="https://www.example.com/page"`)
	assert.Contains(t, got, `href="/relative/page"`)
}

func TestSanitizeInjectsBase(t *testing.T) {
	got, err := Sanitize(`<html><head><title>t</title></head><body></body></html>`, pageURL)
	require.NoError(t, err)
	assert.Contains(t, got, `<base href="https://www.ikea.com/"`)
}

func TestSanitizeKeepsExistingBase(t *testing.T) {
	got, err := Sanitize(`<html><head><base href="https://other.example.com/"></head><body></body></html>`, pageURL)
	require.NoError(t, err)
	assert.Contains(t, got, "https://other.example.com/")
	assert.NotContains(t, got, `href="https://www.ikea.com/"`)
}

func TestSanitizeIdempotent(t *testing.T) {
	html := `<html><head>
		<meta http-equiv="x-frame-options" content="SAMEORIGIN">
		<title>KIVIK Sofa</title>
	</head><body>
		<img src="//cdn.ikea.com/kivik.jpg">
	</body></html>`

	once, err := Sanitize(html, pageURL)
	require.NoError(t, err)
	twice, err := Sanitize(once, pageURL)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestSanitizeInvalidOrigin(t *testing.T) {
	_, err := Sanitize("<html></html>", "not a url ::")
	assert.Error(t, err)
}
