package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"cinepick/models"
)

// Service serves the browse pages: cached lists and genre discovery, plus uncached
// search and title details.
type Service struct {
	client   *Client
	cache    *FileCache
	inflight singleflight.Group
}

// NewService wraps client. cache may be nil to disable caching.
func NewService(client *Client, cache *FileCache) *Service {
	return &Service{client: client, cache: cache}
}

// Client exposes the underlying TMDB client for the recommendation pipeline.
func (s *Service) Client() *Client {
	return s.client
}

// List returns a browse list (trending, popular, top_rated, ...) for mediaType.
func (s *Service) List(ctx context.Context, mediaType models.MediaType, category string, page int) (*models.SearchPage, error) {
	key := cacheKey("tmdb", "list", string(mediaType), strings.ToLower(category), strconv.Itoa(page))
	return s.cached(ctx, key, func(ctx context.Context) (*models.SearchPage, error) {
		return s.client.List(ctx, mediaType, category, page)
	})
}

// Discover returns popular titles in a genre.
func (s *Service) Discover(ctx context.Context, mediaType models.MediaType, genreID int64, page int) (*models.SearchPage, error) {
	key := cacheKey("tmdb", "discover", string(mediaType), strconv.FormatInt(genreID, 10), strconv.Itoa(page))
	return s.cached(ctx, key, func(ctx context.Context) (*models.SearchPage, error) {
		return s.client.Discover(ctx, mediaType, genreID, page)
	})
}

// Search runs a multi search across movies and TV.
func (s *Service) Search(ctx context.Context, query string, page int) (*models.SearchPage, error) {
	return s.client.SearchMulti(ctx, query, page)
}

// Title returns full details with watch providers. A provider lookup failure is
// logged and leaves WatchProviders nil.
func (s *Service) Title(ctx context.Context, mediaType models.MediaType, id int64) (*models.CatalogItem, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidRequest, mediaType)
	}
	var (
		details      *models.CatalogItem
		detailsErr   error
		providers    *models.WatchProviders
		providersErr error
	)
	lookups := pool.New()
	lookups.Go(func() {
		details, detailsErr = s.client.Details(ctx, id, mediaType)
	})
	lookups.Go(func() {
		providers, providersErr = s.client.WatchProviders(ctx, id, mediaType)
	})
	lookups.Wait()

	if detailsErr != nil {
		return nil, detailsErr
	}
	if providersErr != nil {
		log.Printf("[catalog] watch providers failed type=%s id=%d: %v", mediaType, id, providersErr)
	} else {
		details.WatchProviders = providers
	}
	return details, nil
}

// ClearCache drops all cached browse responses.
func (s *Service) ClearCache() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.clear()
}

// cached serves key from the file cache, coalescing concurrent misses for the same key
// into one upstream request. The shared request is detached from any single caller's
// cancellation and bounded by the client's own budget instead; a caller that gives up
// returns its context error without affecting the others.
func (s *Service) cached(ctx context.Context, key string, fetch func(context.Context) (*models.SearchPage, error)) (*models.SearchPage, error) {
	if s.cache != nil {
		var page models.SearchPage
		if ok, _ := s.cache.get(key, &page); ok && len(page.Results) > 0 {
			return &page, nil
		}
	}
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(shared, s.client.budget())
		defer cancel()
		page, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && len(page.Results) > 0 {
			if err := s.cache.set(key, page); err != nil {
				log.Printf("[catalog] cache write failed: %v", err)
			}
		}
		return page, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.SearchPage), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsInvalid reports whether err was caused by a bad media type, list or genre.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsNotFound reports whether err means the requested title does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
