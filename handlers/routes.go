package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes bundles the handlers mounted under /api.
type Routes struct {
	Chat            *ChatHandler
	Recommendations *RecommendationsHandler
	Catalog         *CatalogHandler
	// ChatLimiter wraps the chat endpoint; nil disables limiting.
	ChatLimiter mux.MiddlewareFunc
}

// Register mounts every API route on r. Routes go on r itself rather than an /api
// subrouter: mux clears a method mismatch when a later sibling shares the subrouter
// prefix, which would answer 404 instead of 405.
func (rt Routes) Register(r *mux.Router) {
	var chat http.Handler = http.HandlerFunc(rt.Chat.Chat)
	if rt.ChatLimiter != nil {
		chat = rt.ChatLimiter(chat)
	}
	r.Handle("/api/chat", chat).Methods(http.MethodPost)
	r.HandleFunc("/api/recommendations", rt.Recommendations.Resolve).Methods(http.MethodPost)

	r.HandleFunc("/api/catalog/search", rt.Catalog.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/providers", rt.Catalog.Providers).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/cache", rt.Catalog.ClearCache).Methods(http.MethodDelete)
	r.HandleFunc("/api/catalog/genres/{mediaType}", rt.Catalog.Genres).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/{mediaType}/list/{category}", rt.Catalog.List).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/{mediaType}/genre/{genreID:[0-9]+}", rt.Catalog.Genre).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/{mediaType}/{id:[0-9]+}", rt.Catalog.Title).Methods(http.MethodGet)
}
