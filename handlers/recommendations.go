package handlers

import (
	"context"
	"net/http"
	"strings"

	"cinepick/models"
	"cinepick/services/recommend"
)

type titleResolver interface {
	Resolve(ctx context.Context, q recommend.Query) []models.CatalogItem
}

var _ titleResolver = (*recommend.Resolver)(nil)

// RecommendationsRequest is the body of POST /api/recommendations.
type RecommendationsRequest struct {
	Keywords  []string `json:"keywords"`
	Type      string   `json:"type"`
	MinRating *float64 `json:"minRating,omitempty"`
	Year      int      `json:"year,omitempty"`
}

type RecommendationsHandler struct {
	Resolver  titleResolver
	MinRating float64
}

func NewRecommendationsHandler(resolver titleResolver, minRating float64) *RecommendationsHandler {
	return &RecommendationsHandler{Resolver: resolver, MinRating: minRating}
}

// Resolve maps keywords to enriched catalog items. An empty result is a 200 with [].
func (h *RecommendationsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req RecommendationsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	keywords := make([]string, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		writeError(w, http.StatusBadRequest, "keywords are required")
		return
	}

	minRating := h.MinRating
	if req.MinRating != nil {
		if *req.MinRating < 0 || *req.MinRating > 10 {
			writeError(w, http.StatusBadRequest, "minRating must be between 0 and 10")
			return
		}
		minRating = *req.MinRating
	}

	items := h.Resolver.Resolve(r.Context(), recommend.Query{
		Keywords:  keywords,
		MediaType: recommend.ParseMediaFilter(req.Type),
		MinRating: minRating,
		Year:      req.Year,
	})
	writeJSON(w, http.StatusOK, items)
}
