package recommend

import (
	"context"
	"log"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"cinepick/models"
)

//go:generate mockgen -destination=mock_catalog_test.go -package=recommend cinepick/services/recommend Catalog

// Catalog is the subset of the metadata service the resolver needs.
type Catalog interface {
	SearchMulti(ctx context.Context, query string, page int) (*models.SearchPage, error)
	Details(ctx context.Context, id int64, mediaType models.MediaType) (*models.CatalogItem, error)
	WatchProviders(ctx context.Context, id int64, mediaType models.MediaType) (*models.WatchProviders, error)
}

// MediaFilter restricts resolution to one media type or allows both.
type MediaFilter string

const (
	FilterMovie MediaFilter = "movie"
	FilterTV    MediaFilter = "tv"
	FilterAll   MediaFilter = "all"
)

// ParseMediaFilter maps client input onto a filter, defaulting to FilterAll.
func ParseMediaFilter(raw string) MediaFilter {
	if strings.EqualFold(strings.TrimSpace(raw), string(FilterAll)) {
		return FilterAll
	}
	if mt, ok := models.ParseMediaType(raw); ok {
		return FilterFor(mt)
	}
	return FilterAll
}

// FilterFor returns the filter matching a single media type.
func FilterFor(mt models.MediaType) MediaFilter {
	if mt == models.MediaTypeMovie {
		return FilterMovie
	}
	return FilterTV
}

func (f MediaFilter) allows(mt models.MediaType) bool {
	switch f {
	case FilterMovie:
		return mt == models.MediaTypeMovie
	case FilterTV:
		return mt == models.MediaTypeTV
	default:
		return mt.Valid()
	}
}

// Query describes one resolution request. Year is optional; zero disables the year filter.
type Query struct {
	Keywords  []string    `json:"keywords"`
	MediaType MediaFilter `json:"type"`
	MinRating float64     `json:"minRating"`
	Year      int         `json:"year,omitempty"`
}

// Resolver maps titles or keywords onto enriched catalog items.
type Resolver struct {
	catalog       Catalog
	limit         int
	maxConcurrent int
}

// NewResolver returns a Resolver that keeps at most limit items per query.
func NewResolver(catalog Catalog, limit int) *Resolver {
	if limit <= 0 || limit > models.MaxRecommendations {
		limit = models.MaxRecommendations
	}
	return &Resolver{catalog: catalog, limit: limit, maxConcurrent: 8}
}

// Resolve searches every keyword concurrently, filters and de-duplicates the merged
// hits, then enriches the survivors with details and watch providers. A failed search
// contributes nothing and a failed enrichment leaves the item as searched. The result
// may be empty and is never nil.
func (r *Resolver) Resolve(ctx context.Context, q Query) []models.CatalogItem {
	keywords := make([]string, 0, len(q.Keywords))
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return []models.CatalogItem{}
	}
	if q.MediaType == "" {
		q.MediaType = FilterAll
	}

	hits := make([][]models.CatalogItem, len(keywords))
	searches := pool.New().WithMaxGoroutines(r.maxConcurrent)
	for i, kw := range keywords {
		searches.Go(func() {
			page, err := r.catalog.SearchMulti(ctx, kw, 1)
			if err != nil {
				log.Printf("[resolver] search %q failed: %v", kw, err)
				return
			}
			if page != nil {
				hits[i] = page.Results
			}
		})
	}
	searches.Wait()

	candidates := r.selectCandidates(hits, q)
	if len(candidates) == 0 {
		return []models.CatalogItem{}
	}

	enriched := make([]models.CatalogItem, len(candidates))
	enrichers := pool.New().WithMaxGoroutines(r.maxConcurrent)
	for i, item := range candidates {
		enrichers.Go(func() {
			enriched[i] = r.enrich(ctx, item, q.MinRating)
		})
	}
	enrichers.Wait()
	return enriched
}

// selectCandidates merges per-keyword hits in keyword order, applies the filters and
// keeps the first occurrence of each catalog ID, up to the limit.
func (r *Resolver) selectCandidates(hits [][]models.CatalogItem, q Query) []models.CatalogItem {
	seen := make(map[int64]struct{})
	out := make([]models.CatalogItem, 0, r.limit)
	for _, results := range hits {
		for _, item := range results {
			if !q.MediaType.allows(item.MediaType) {
				continue
			}
			if item.Rating < q.MinRating {
				continue
			}
			if q.Year > 0 && item.Year != q.Year {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
			if len(out) == r.limit {
				return out
			}
		}
	}
	return out
}

func (r *Resolver) enrich(ctx context.Context, item models.CatalogItem, minRating float64) models.CatalogItem {
	var (
		details      *models.CatalogItem
		providers    *models.WatchProviders
		detailsErr   error
		providersErr error
	)
	lookups := pool.New()
	lookups.Go(func() {
		details, detailsErr = r.catalog.Details(ctx, item.ID, item.MediaType)
	})
	lookups.Go(func() {
		providers, providersErr = r.catalog.WatchProviders(ctx, item.ID, item.MediaType)
	})
	lookups.Wait()

	if detailsErr != nil || providersErr != nil || details == nil {
		log.Printf("[resolver] enrich %s/%d kept search fields: details=%v providers=%v",
			item.MediaType, item.ID, detailsErr, providersErr)
		return item
	}

	merged := *details
	merged.ID = item.ID
	merged.MediaType = item.MediaType
	if merged.Title == "" {
		merged.Title = item.Title
	}
	if merged.PosterPath == "" {
		merged.PosterPath = item.PosterPath
	}
	if merged.BackdropPath == "" {
		merged.BackdropPath = item.BackdropPath
	}
	if merged.Overview == "" {
		merged.Overview = item.Overview
	}
	if merged.ReleaseDate == "" {
		merged.ReleaseDate = item.ReleaseDate
		merged.Year = item.Year
	}
	if merged.Rating == 0 {
		merged.Rating = item.Rating
	}
	// Keep the score that passed the rating filter.
	if merged.Rating < minRating {
		merged.Rating = item.Rating
	}
	merged.WatchProviders = providers
	return merged
}
