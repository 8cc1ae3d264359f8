package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Settings holds the environment driven configuration for the server.
type Settings struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	TMDB       TMDBSettings
	LLM        LLMSettings
	Recommend  RecommendSettings
	Cache      CacheSettings
	Log        LogSettings
	ChatPerMin int `env:"CHAT_RATE_PER_MINUTE" envDefault:"20"`
}

// TMDBSettings configures the catalog client.
type TMDBSettings struct {
	APIKey       string        `env:"TMDB_API_KEY"`
	ReadToken    string        `env:"TMDB_READ_TOKEN"`
	BaseURL      string        `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	Language     string        `env:"TMDB_LANGUAGE" envDefault:"en-US"`
	Region       string        `env:"WATCH_REGION" envDefault:"US"`
	Timeout      time.Duration `env:"TMDB_TIMEOUT" envDefault:"10s"`
	RatePerSec   float64       `env:"TMDB_RATE_PER_SECOND" envDefault:"40"`
	RetryAttempt uint          `env:"TMDB_RETRY_ATTEMPTS" envDefault:"3"`
}

// LLMSettings configures the OpenAI-compatible completion endpoint.
type LLMSettings struct {
	APIKey      string        `env:"LLM_API_KEY"`
	BaseURL     string        `env:"LLM_BASE_URL" envDefault:"https://api.together.xyz/v1"`
	Model       string        `env:"LLM_MODEL" envDefault:"meta-llama/Llama-3.2-90B-Vision-Instruct-Turbo"`
	Temperature float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"800"`
	Timeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	EndMarker   string        `env:"LLM_STREAM_END_MARKER" envDefault:"---KEYWORDS---"`
}

// RecommendSettings tunes the parse-and-resolve pipeline.
type RecommendSettings struct {
	MinRating           float64 `env:"MIN_RATING" envDefault:"6.0"`
	MaxResults          int     `env:"MAX_RECOMMENDATIONS" envDefault:"5"`
	FallbackKeywords    int     `env:"FALLBACK_KEYWORDS" envDefault:"3"`
	QuotedTitleFallback bool    `env:"QUOTED_TITLE_FALLBACK" envDefault:"false"`
}

// CacheSettings configures the browse-list file cache. An empty Dir disables it.
type CacheSettings struct {
	Dir      string `env:"CACHE_DIR"`
	TTLHours int    `env:"CACHE_TTL_HOURS" envDefault:"6"`
}

// LogSettings configures the rotating log file. An empty File logs to stdout only.
type LogSettings struct {
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"20"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
}

// Load reads an optional .env file and then parses the process environment.
func Load(dotenvPaths ...string) (*Settings, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{".env"}
	}
	for _, p := range dotenvPaths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	// Together deployments export the key under their own name.
	if strings.TrimSpace(s.LLM.APIKey) == "" {
		s.LLM.APIKey = strings.TrimSpace(os.Getenv("TOGETHER_API_KEY"))
	}

	s.normalize()
	return s, nil
}

func (s *Settings) normalize() {
	s.TMDB.APIKey = strings.TrimSpace(s.TMDB.APIKey)
	s.TMDB.ReadToken = strings.TrimSpace(s.TMDB.ReadToken)
	s.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(s.TMDB.BaseURL), "/")
	s.TMDB.Region = strings.ToUpper(strings.TrimSpace(s.TMDB.Region))
	if s.TMDB.Region == "" {
		s.TMDB.Region = "US"
	}
	if s.TMDB.RatePerSec <= 0 {
		s.TMDB.RatePerSec = 40
	}
	if s.TMDB.RetryAttempt == 0 {
		s.TMDB.RetryAttempt = 3
	}
	if s.Recommend.MaxResults <= 0 || s.Recommend.MaxResults > 5 {
		s.Recommend.MaxResults = 5
	}
	if s.Recommend.FallbackKeywords <= 0 {
		s.Recommend.FallbackKeywords = 3
	}
	if s.Cache.TTLHours <= 0 {
		s.Cache.TTLHours = 6
	}
	if s.ChatPerMin <= 0 {
		s.ChatPerMin = 20
	}
	origins := s.CORSOrigins[:0]
	for _, o := range s.CORSOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	s.CORSOrigins = origins
}
