package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"cinepick/models"
	"cinepick/services/catalog"
)

type fakeCatalogService struct {
	page    *models.SearchPage
	item    *models.CatalogItem
	err     error
	lastOp  string
	lastArg string
	lastID  int64
	lastMT  models.MediaType
	lastPg  int
	cleared int
}

func (f *fakeCatalogService) List(_ context.Context, mt models.MediaType, category string, page int) (*models.SearchPage, error) {
	f.lastOp, f.lastMT, f.lastArg, f.lastPg = "list", mt, category, page
	return f.page, f.err
}

func (f *fakeCatalogService) Discover(_ context.Context, mt models.MediaType, genreID int64, page int) (*models.SearchPage, error) {
	f.lastOp, f.lastMT, f.lastID, f.lastPg = "discover", mt, genreID, page
	return f.page, f.err
}

func (f *fakeCatalogService) Search(_ context.Context, query string, page int) (*models.SearchPage, error) {
	f.lastOp, f.lastArg, f.lastPg = "search", query, page
	return f.page, f.err
}

func (f *fakeCatalogService) Title(_ context.Context, mt models.MediaType, id int64) (*models.CatalogItem, error) {
	f.lastOp, f.lastMT, f.lastID = "title", mt, id
	return f.item, f.err
}

func (f *fakeCatalogService) ClearCache() error {
	f.lastOp = "clear"
	f.cleared++
	return f.err
}

func serve(handler http.HandlerFunc, target string, vars map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = mux.SetURLVars(req, vars)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCatalogList(t *testing.T) {
	svc := &fakeCatalogService{page: &models.SearchPage{Page: 2, Results: []models.CatalogItem{{ID: 1}}}}
	h := NewCatalogHandler(svc)

	rec := serve(h.List, "/api/catalog/tv/list/top_rated?page=2", map[string]string{"mediaType": "tv", "category": "top_rated"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastMT != models.MediaTypeTV || svc.lastArg != "top_rated" || svc.lastPg != 2 {
		t.Fatalf("unexpected call %+v", svc)
	}
	var page models.SearchPage
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Page != 2 || len(page.Results) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestCatalogErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{catalog.ErrNotFound, http.StatusNotFound},
		{catalog.ErrNotConfigured, http.StatusServiceUnavailable},
		{errors.Join(catalog.ErrInvalidRequest, errors.New("bad list")), http.StatusBadRequest},
		{&catalog.APIError{StatusCode: 500}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		h := NewCatalogHandler(&fakeCatalogService{err: tt.err})
		rec := serve(h.List, "/api/catalog/movie/list/popular", map[string]string{"mediaType": "movie", "category": "popular"})
		if rec.Code != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}

func TestCatalogRejectsBadMediaType(t *testing.T) {
	svc := &fakeCatalogService{}
	h := NewCatalogHandler(svc)
	rec := serve(h.List, "/api/catalog/books/list/popular", map[string]string{"mediaType": "books", "category": "popular"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.lastOp != "" {
		t.Fatal("service should not be called")
	}
}

func TestCatalogGenre(t *testing.T) {
	svc := &fakeCatalogService{page: &models.SearchPage{}}
	h := NewCatalogHandler(svc)

	rec := serve(h.Genre, "/api/catalog/movie/genre/878", map[string]string{"mediaType": "movie", "genreID": "878"})
	if rec.Code != http.StatusOK || svc.lastID != 878 || svc.lastPg != 1 {
		t.Fatalf("unexpected result code=%d svc=%+v", rec.Code, svc)
	}

	rec = serve(h.Genre, "/api/catalog/movie/genre/abc", map[string]string{"mediaType": "movie", "genreID": "abc"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad genre, got %d", rec.Code)
	}
}

func TestCatalogSearch(t *testing.T) {
	svc := &fakeCatalogService{page: &models.SearchPage{}}
	h := NewCatalogHandler(svc)

	rec := serve(h.Search, "/api/catalog/search?q=%20dune%20&page=900", nil)
	if rec.Code != http.StatusOK || svc.lastArg != "dune" || svc.lastPg != 500 {
		t.Fatalf("unexpected result code=%d svc=%+v", rec.Code, svc)
	}

	rec = serve(h.Search, "/api/catalog/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", rec.Code)
	}
}

func TestCatalogTitle(t *testing.T) {
	svc := &fakeCatalogService{item: &models.CatalogItem{ID: 1396, Title: "Breaking Bad", MediaType: models.MediaTypeTV}}
	h := NewCatalogHandler(svc)

	rec := serve(h.Title, "/api/catalog/tv/1396", map[string]string{"mediaType": "tv", "id": "1396"})
	if rec.Code != http.StatusOK || svc.lastID != 1396 || svc.lastMT != models.MediaTypeTV {
		t.Fatalf("unexpected result code=%d svc=%+v", rec.Code, svc)
	}
	var item models.CatalogItem
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.Title != "Breaking Bad" {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestCatalogStaticTables(t *testing.T) {
	h := NewCatalogHandler(&fakeCatalogService{})

	rec := serve(h.Providers, "/api/catalog/providers", nil)
	var providers []models.Provider
	if err := json.NewDecoder(rec.Body).Decode(&providers); err != nil || len(providers) == 0 {
		t.Fatalf("providers: %v (%d)", err, len(providers))
	}

	rec = serve(h.Genres, "/api/catalog/genres/tv", map[string]string{"mediaType": "tv"})
	var genres []models.Genre
	if err := json.NewDecoder(rec.Body).Decode(&genres); err != nil || len(genres) != len(catalog.TVGenres) {
		t.Fatalf("genres: %v (%d)", err, len(genres))
	}
}

func TestCatalogClearCache(t *testing.T) {
	svc := &fakeCatalogService{}
	h := NewCatalogHandler(svc)

	rec := serve(h.ClearCache, "/api/catalog/cache", nil)
	if rec.Code != http.StatusOK || svc.cleared != 1 {
		t.Fatalf("expected one clear and 200, got %d after %d clears", rec.Code, svc.cleared)
	}

	svc.err = errors.New("disk full")
	rec = serve(h.ClearCache, "/api/catalog/cache", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
