package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cinepick/models"
	"cinepick/services/catalog"
)

type catalogService interface {
	List(context.Context, models.MediaType, string, int) (*models.SearchPage, error)
	Discover(context.Context, models.MediaType, int64, int) (*models.SearchPage, error)
	Search(context.Context, string, int) (*models.SearchPage, error)
	Title(context.Context, models.MediaType, int64) (*models.CatalogItem, error)
	ClearCache() error
}

var _ catalogService = (*catalog.Service)(nil)

type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(s catalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

// List serves /api/catalog/{mediaType}/list/{category}.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return
	}
	page, err := h.Service.List(r.Context(), mediaType, mux.Vars(r)["category"], pageParam(r))
	if err != nil {
		writeCatalogError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Genre serves /api/catalog/{mediaType}/genre/{genreID}.
func (h *CatalogHandler) Genre(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return
	}
	genreID, err := strconv.ParseInt(mux.Vars(r)["genreID"], 10, 64)
	if err != nil || genreID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid genre id")
		return
	}
	page, err := h.Service.Discover(r.Context(), mediaType, genreID, pageParam(r))
	if err != nil {
		writeCatalogError(w, "discover", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Search serves /api/catalog/search?q=.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}
	page, err := h.Service.Search(r.Context(), query, pageParam(r))
	if err != nil {
		writeCatalogError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Title serves /api/catalog/{mediaType}/{id}.
func (h *CatalogHandler) Title(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	item, err := h.Service.Title(r.Context(), mediaType, id)
	if err != nil {
		writeCatalogError(w, "title", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ClearCache drops the cached browse lists so the next request refetches them.
func (h *CatalogHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ClearCache(); err != nil {
		log.Printf("[catalog] clear cache: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	log.Printf("[catalog] browse cache cleared by request")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Providers returns the static provider directory.
func (h *CatalogHandler) Providers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.ProviderDirectory())
}

// Genres returns the genre table for a media type.
func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, catalog.Genres(mediaType))
}

func mediaTypeVar(w http.ResponseWriter, r *http.Request) (models.MediaType, bool) {
	mediaType, ok := models.ParseMediaType(mux.Vars(r)["mediaType"])
	if !ok {
		writeError(w, http.StatusBadRequest, "media type must be movie or tv")
	}
	return mediaType, ok
}

func writeCatalogError(w http.ResponseWriter, op string, err error) {
	switch {
	case catalog.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	case catalog.IsInvalid(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "catalog not configured")
	default:
		log.Printf("[catalog] %s failed: %v", op, err)
		writeError(w, http.StatusBadGateway, "catalog unavailable")
	}
}
