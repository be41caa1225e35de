package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workwAIse/furniturematch-sub000/internal/config"
	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

const envelopeJSON = `{"suggestions":[
	{"name":"KIVIK 3er-Sofa","retailer":"IKEA","category":"sofa","reasoning":"Matches the liked mid-century look","confidence":85},
	{"name":"EKTORP Sofa","retailer":"IKEA","category":"sofa","reasoning":"Classic shape","confidence":70}
]}`

func TestParseSuggestionsDirectJSON(t *testing.T) {
	got := ParseSuggestions(envelopeJSON)
	require.Len(t, got, 2)
	assert.Equal(t, "KIVIK 3er-Sofa", got[0].Name)
	assert.Equal(t, "IKEA", got[0].Retailer)
	assert.InDelta(t, 0.85, got[0].Confidence, 1e-9)
}

func TestParseSuggestionsFencedBlock(t *testing.T) {
	fenced := "Here are my picks:\n```json\n" + envelopeJSON + "\n```\nHope that helps!"
	assert.Equal(t, ParseSuggestions(envelopeJSON), ParseSuggestions(fenced))

	bare := "```\n" + envelopeJSON + "\n```"
	assert.Equal(t, ParseSuggestions(envelopeJSON), ParseSuggestions(bare))
}

func TestParseSuggestionsDropsIncomplete(t *testing.T) {
	content := `{"suggestions":[
		{"name":"KIVIK Sofa","retailer":"IKEA","category":"sofa","confidence":80},
		{"name":"","retailer":"IKEA","category":"sofa"},
		{"name":"Mystery Item","retailer":"","category":"sofa"},
		{"name":"No Category","retailer":"Otto","category":"  "}
	]}`
	got := ParseSuggestions(content)
	require.Len(t, got, 1)
	assert.Equal(t, "KIVIK Sofa", got[0].Name)
}

func TestParseSuggestionsGarbage(t *testing.T) {
	for _, content := range []string{
		"",
		"I could not think of anything today.",
		"```json\nnot json either\n```",
		`{"unrelated": true}`,
	} {
		got := ParseSuggestions(content)
		assert.Empty(t, got, "content %q", content)
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{85, 0.85},
		{100, 1},
		{150, 1},
		{0.5, 0.5},
		{1, 1},
		{0, 0},
		{-3, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, normalizeConfidence(tt.in), 1e-9, "input %v", tt.in)
	}
}

func TestBuildPrompt(t *testing.T) {
	hist := types.History{
		Liked:    []string{"KIVIK Sofa"},
		Disliked: []string{"Barock Kommode"},
		Rejected: []string{"EKTORP Sofa"},
	}
	prompt := BuildPrompt("sofa", hist, 3)

	assert.Contains(t, prompt, "Suggest 3 furniture products")
	assert.Contains(t, prompt, "ITEMS THE USER LIKED:\n- KIVIK Sofa")
	assert.Contains(t, prompt, "ITEMS THE USER DISLIKED:\n- Barock Kommode")
	assert.Contains(t, prompt, "PREVIOUSLY REJECTED SUGGESTIONS (do not repeat these):\n- EKTORP Sofa")

	empty := BuildPrompt("sofa", types.History{}, 3)
	assert.Contains(t, empty, "- none")
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/complete", r.URL.Path)

		var req reasoningRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "category \"sofa\"")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reasoningResponse{Content: envelopeJSON})
	}))
	defer srv.Close()

	g := NewGenerator(config.ReasoningConfig{Endpoint: srv.URL}, 5, nil)
	got, err := g.Generate(context.Background(), "sofa", types.History{}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "KIVIK 3er-Sofa", got[0].Name)
}

func TestGenerateClampsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reasoningResponse{Content: envelopeJSON})
	}))
	defer srv.Close()

	g := NewGenerator(config.ReasoningConfig{Endpoint: srv.URL}, 1, nil)
	got, err := g.Generate(context.Background(), "sofa", types.History{}, 99)
	require.NoError(t, err)
	assert.Len(t, got, 1, "results must be trimmed to the clamped count")
}

func TestGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGenerator(config.ReasoningConfig{Endpoint: srv.URL}, 5, nil)
	_, err := g.Generate(context.Background(), "sofa", types.History{}, 3)
	assert.Error(t, err)
}

func TestGenerateUnparseableContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reasoningResponse{Content: "no json here"})
	}))
	defer srv.Close()

	g := NewGenerator(config.ReasoningConfig{Endpoint: srv.URL}, 5, nil)
	got, err := g.Generate(context.Background(), "sofa", types.History{}, 3)
	require.NoError(t, err, "mangled content is not a transport failure")
	assert.Empty(t, got)
}
