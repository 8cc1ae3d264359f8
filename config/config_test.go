package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "")
	s, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", s.HTTPAddr)
	assert.Equal(t, "https://api.themoviedb.org/3", s.TMDB.BaseURL)
	assert.Equal(t, "US", s.TMDB.Region)
	assert.Equal(t, 10*time.Second, s.TMDB.Timeout)
	assert.Equal(t, "---KEYWORDS---", s.LLM.EndMarker)
	assert.Equal(t, 800, s.LLM.MaxTokens)
	assert.InDelta(t, 6.0, s.Recommend.MinRating, 0.0001)
	assert.Equal(t, 5, s.Recommend.MaxResults)
	assert.Equal(t, 3, s.Recommend.FallbackKeywords)
	assert.False(t, s.Recommend.QuotedTitleFallback)
}

func TestLoadFromDotenvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "TMDB_API_KEY= abc123 \nWATCH_REGION=gb\nMAX_RECOMMENDATIONS=12\nCORS_ALLOWED_ORIGINS=https://a.example/, ,https://b.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// godotenv does not override variables that are already set.
	t.Setenv("TMDB_API_KEY", "")
	os.Unsetenv("TMDB_API_KEY")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("TOGETHER_API_KEY", "together-key")
	t.Cleanup(func() {
		os.Unsetenv("WATCH_REGION")
		os.Unsetenv("MAX_RECOMMENDATIONS")
		os.Unsetenv("CORS_ALLOWED_ORIGINS")
		os.Unsetenv("TMDB_API_KEY")
	})

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", s.TMDB.APIKey)
	assert.Equal(t, "GB", s.TMDB.Region)
	assert.Equal(t, 5, s.Recommend.MaxResults, "cap is clamped to the envelope limit")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORSOrigins)
	assert.Equal(t, "together-key", s.LLM.APIKey)
}
