package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"cinepick/api"
	"cinepick/config"
	"cinepick/handlers"
	"cinepick/services/catalog"
	"cinepick/services/completion"
	"cinepick/services/recommend"
	"cinepick/utils"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("[main] load config: %v", err)
	}
	setupLogging(settings.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := newServer(ctx, settings)
	go func() {
		log.Printf("[main] listening on %s", settings.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[main] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] graceful shutdown failed: %v", err)
	}
}

func setupLogging(cfg config.LogSettings) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.File == "" {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}))
}

func newServer(ctx context.Context, s *config.Settings) *http.Server {
	tmdb := catalog.NewClient(catalog.ClientConfig{
		APIKey:        s.TMDB.APIKey,
		ReadToken:     s.TMDB.ReadToken,
		BaseURL:       s.TMDB.BaseURL,
		Language:      s.TMDB.Language,
		Region:        s.TMDB.Region,
		RatePerSecond: s.TMDB.RatePerSec,
		Attempts:      s.TMDB.RetryAttempt,
		HTTPClient:    &http.Client{Timeout: s.TMDB.Timeout},
	})
	if !tmdb.IsConfigured() {
		log.Println("[main] TMDB credentials missing; catalog lookups will fail")
	}

	var cache *catalog.FileCache
	if s.Cache.Dir != "" {
		cache = catalog.NewFileCache(afero.NewOsFs(), s.Cache.Dir, time.Duration(s.Cache.TTLHours)*time.Hour)
	}
	catalogSvc := catalog.NewService(tmdb, cache)

	channel := completion.NewChannel(completion.Config{
		APIKey:      s.LLM.APIKey,
		BaseURL:     s.LLM.BaseURL,
		Model:       s.LLM.Model,
		Temperature: s.LLM.Temperature,
		MaxTokens:   s.LLM.MaxTokens,
		EndMarker:   s.LLM.EndMarker,
	})
	if !channel.IsConfigured() {
		log.Println("[main] LLM API key missing; chat requests will return 503")
	}

	resolver := recommend.NewResolver(tmdb, s.Recommend.MaxResults)
	assembler := recommend.NewAssembler(resolver, recommend.AssemblerConfig{
		MinRating:           s.Recommend.MinRating,
		MaxResults:          s.Recommend.MaxResults,
		FallbackKeywords:    s.Recommend.FallbackKeywords,
		QuotedTitleFallback: s.Recommend.QuotedTitleFallback,
	})

	limiter := api.NewClientRateLimiter(s.ChatPerMin)
	go limiter.Run(ctx)

	router := utils.NewRouter(utils.NewOriginPolicy(s.CORSOrigins))
	router.Use(api.RequestLogger(), api.Recoverer())
	handlers.Routes{
		Chat:            handlers.NewChatHandler(channel, assembler, s.LLM.Timeout),
		Recommendations: handlers.NewRecommendationsHandler(resolver, s.Recommend.MinRating),
		Catalog:         handlers.NewCatalogHandler(catalogSvc),
		ChatLimiter:     limiter.Middleware,
	}.Register(router)

	return &http.Server{
		Addr:              s.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
