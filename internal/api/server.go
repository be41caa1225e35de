// Package api exposes the pipeline's two public surfaces over HTTP:
// suggestion runs and the content proxy.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/workwAIse/furniturematch-sub000/pkg/types"
)

// SuggestionRunner executes a full suggestion pipeline run.
type SuggestionRunner interface {
	Run(ctx context.Context, category string, hist types.History, count int) []types.FinalizedSuggestion
}

// ContentProxy resolves a URL into embeddable content.
type ContentProxy interface {
	Proxy(ctx context.Context, rawURL string) (types.ProxyResult, error)
}

// Server wires handlers onto an HTTP mux.
type Server struct {
	pipeline SuggestionRunner
	proxy    ContentProxy
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewServer constructs the HTTP API server.
func NewServer(pipeline SuggestionRunner, proxy ContentProxy, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline: pipeline,
		proxy:    proxy,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/suggestions", s.handleSuggestions)
	s.mux.HandleFunc("/api/proxy", s.handleProxy)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json payload: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}

	suggestions := s.pipeline.Run(r.Context(), req.Category, req.History(), req.Count)
	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		http.Error(w, "url query parameter is required", http.StatusBadRequest)
		return
	}

	result, err := s.proxy.Proxy(r.Context(), rawURL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
