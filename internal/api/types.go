package api

import "github.com/workwAIse/furniturematch-sub000/pkg/types"

// SuggestRequest is the payload for POST /api/suggestions.
type SuggestRequest struct {
	Category string   `json:"category"`
	Count    int      `json:"count"`
	Liked    []string `json:"liked"`
	Disliked []string `json:"disliked"`
	Rejected []string `json:"rejected"`
}

// History converts the request's style signals into the pipeline shape.
func (r SuggestRequest) History() types.History {
	return types.History{Liked: r.Liked, Disliked: r.Disliked, Rejected: r.Rejected}
}

// SuggestResponse wraps a finished pipeline run.
type SuggestResponse struct {
	Suggestions []types.FinalizedSuggestion `json:"suggestions"`
}
