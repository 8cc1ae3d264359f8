package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"cinepick/models"
)

const (
	defaultBaseURL   = "https://api.themoviedb.org/3"
	maxRetryAfter    = 5 * time.Second
	maxCastMembers   = 10
	discoverMinVotes = "50"
)

var (
	// ErrNotConfigured is returned when no TMDB credentials are set.
	ErrNotConfigured = errors.New("tmdb api key not configured")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("tmdb resource not found")
	// ErrInvalidRequest wraps bad media types, list names and similar caller mistakes.
	ErrInvalidRequest = errors.New("invalid catalog request")
)

// APIError is a non-2xx response from TMDB.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tmdb api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tmdb api error %d", e.StatusCode)
}

// Temporary reports whether retrying the request could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientConfig configures a Client.
type ClientConfig struct {
	APIKey    string
	ReadToken string // v4 bearer token; preferred over APIKey when set
	BaseURL   string
	Language  string
	Region    string
	// RatePerSecond bounds outgoing requests; zero disables throttling.
	RatePerSecond float64
	Attempts      uint
	RetryDelay    time.Duration
	HTTPClient    *http.Client
	// ProviderLinks maps provider IDs to deep links attached to watch providers.
	ProviderLinks map[int64]string
}

// Client is a typed TMDB v3 client.
type Client struct {
	apiKey     string
	readToken  string
	baseURL    string
	language   string
	region     string
	httpc      *http.Client
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
	links      map[int64]string
}

// budget bounds one logical call across all of its retry attempts.
func (c *Client) budget() time.Duration {
	per := c.httpc.Timeout
	if per <= 0 {
		per = 10 * time.Second
	}
	return time.Duration(c.attempts) * (per + c.retryDelay)
}

// NewClient constructs a Client, filling defaults for unset fields.
func NewClient(cfg ClientConfig) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en-US"
	}
	region := strings.ToUpper(strings.TrimSpace(cfg.Region))
	if region == "" {
		region = "US"
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	links := cfg.ProviderLinks
	if links == nil {
		links = DefaultProviderLinks
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		readToken:  strings.TrimSpace(cfg.ReadToken),
		baseURL:    baseURL,
		language:   language,
		region:     region,
		httpc:      httpc,
		limiter:    limiter,
		attempts:   attempts,
		retryDelay: delay,
		links:      links,
	}
}

// IsConfigured reports whether credentials are present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" || c.readToken != ""
}

// Region returns the watch-provider region this client queries.
func (c *Client) Region() string {
	return c.region
}

type tmdbListItem struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
}

type tmdbPage struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Results      []tmdbListItem `json:"results"`
}

type tmdbDetails struct {
	tmdbListItem
	Runtime        int            `json:"runtime"`
	EpisodeRunTime []int          `json:"episode_run_time"`
	Genres         []models.Genre `json:"genres"`
	Credits        *struct {
		Cast []struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			Character   string `json:"character"`
			ProfilePath string `json:"profile_path"`
		} `json:"cast"`
	} `json:"credits"`
}

type tmdbProvider struct {
	ProviderID      int64  `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

type tmdbProviderRegion struct {
	Link     string         `json:"link"`
	Flatrate []tmdbProvider `json:"flatrate"`
	Rent     []tmdbProvider `json:"rent"`
	Buy      []tmdbProvider `json:"buy"`
}

type tmdbProvidersResponse struct {
	Results map[string]tmdbProviderRegion `json:"results"`
}

// SearchMulti searches movies and TV shows. People and other result kinds are dropped.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*models.SearchPage, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return &models.SearchPage{Page: 1, Results: []models.CatalogItem{}}, nil
	}
	if page <= 0 {
		page = 1
	}
	params := url.Values{
		"query":         {q},
		"page":          {strconv.Itoa(page)},
		"include_adult": {"false"},
	}
	var resp tmdbPage
	if err := c.get(ctx, "/search/multi", params, &resp); err != nil {
		return nil, err
	}
	return toSearchPage(resp, ""), nil
}

// Details fetches the full record for a title including runtime, genres and top cast.
func (c *Client) Details(ctx context.Context, id int64, mediaType models.MediaType) (*models.CatalogItem, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidRequest, mediaType)
	}
	var resp tmdbDetails
	path := fmt.Sprintf("/%s/%d", mediaType, id)
	if err := c.get(ctx, path, url.Values{"append_to_response": {"credits"}}, &resp); err != nil {
		return nil, err
	}
	item := toCatalogItem(resp.tmdbListItem, mediaType)
	item.RuntimeMinutes = resp.Runtime
	if item.RuntimeMinutes == 0 && len(resp.EpisodeRunTime) > 0 {
		item.RuntimeMinutes = resp.EpisodeRunTime[0]
	}
	item.Genres = resp.Genres
	if resp.Credits != nil {
		for i, member := range resp.Credits.Cast {
			if i >= maxCastMembers {
				break
			}
			item.Cast = append(item.Cast, models.CastMember{
				ID:          member.ID,
				Name:        member.Name,
				Character:   member.Character,
				ProfilePath: member.ProfilePath,
			})
		}
	}
	return &item, nil
}

// WatchProviders returns the providers for the configured region, or nil when the
// title has no availability there.
func (c *Client) WatchProviders(ctx context.Context, id int64, mediaType models.MediaType) (*models.WatchProviders, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidRequest, mediaType)
	}
	var resp tmdbProvidersResponse
	path := fmt.Sprintf("/%s/%d/watch/providers", mediaType, id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	regional, ok := resp.Results[c.region]
	if !ok {
		return nil, nil
	}
	return &models.WatchProviders{
		Region:   c.region,
		Link:     regional.Link,
		Flatrate: c.toProviders(regional.Flatrate),
		Rent:     c.toProviders(regional.Rent),
		Buy:      c.toProviders(regional.Buy),
	}, nil
}

// List fetches a named browse list such as trending or top_rated.
func (c *Client) List(ctx context.Context, mediaType models.MediaType, category string, page int) (*models.SearchPage, error) {
	path, err := listPath(mediaType, category)
	if err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	var resp tmdbPage
	if err := c.get(ctx, path, url.Values{"page": {strconv.Itoa(page)}}, &resp); err != nil {
		return nil, err
	}
	return toSearchPage(resp, mediaType), nil
}

// Discover lists popular titles in a genre. TV-only genre IDs are mapped to their
// closest movie genre when discovering movies.
func (c *Client) Discover(ctx context.Context, mediaType models.MediaType, genreID int64, page int) (*models.SearchPage, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidRequest, mediaType)
	}
	if page <= 0 {
		page = 1
	}
	params := url.Values{
		"include_adult":  {"false"},
		"page":           {strconv.Itoa(page)},
		"sort_by":        {"popularity.desc"},
		"with_genres":    {strconv.FormatInt(MovieGenreFor(mediaType, genreID), 10)},
		"vote_count.gte": {discoverMinVotes},
	}
	if mediaType == models.MediaTypeTV {
		params.Set("include_null_first_air_dates", "false")
	} else {
		params.Set("include_video", "false")
	}
	var resp tmdbPage
	if err := c.get(ctx, "/discover/"+string(mediaType), params, &resp); err != nil {
		return nil, err
	}
	return toSearchPage(resp, mediaType), nil
}

func (c *Client) toProviders(in []tmdbProvider) []models.Provider {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Provider, 0, len(in))
	for _, p := range in {
		out = append(out, models.Provider{
			ID:       p.ProviderID,
			Name:     p.ProviderName,
			LogoPath: p.LogoPath,
			URL:      c.links[p.ProviderID],
			Priority: p.DisplayPriority,
		})
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	q := url.Values{}
	for k, vals := range params {
		q[k] = vals
	}
	if c.readToken == "" {
		q.Set("api_key", c.apiKey)
	}
	if q.Get("language") == "" {
		q.Set("language", c.language)
	}
	endpoint := c.baseURL + path + "?" + q.Encode()

	return retry.Do(
		func() error { return c.doGET(ctx, path, endpoint, v) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retryAfterDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[tmdb] GET %s attempt %d/%d failed: %v", path, n+1, c.attempts, err)
		}),
	)
}

func (c *Client) doGET(ctx context.Context, path, endpoint string, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.readToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.readToken)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: tmdbStatusMessage(body)}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, convErr := strconv.Atoi(ra); convErr == nil && secs > 0 {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", path, err)
	}
	return nil
}

func tmdbStatusMessage(body []byte) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.StatusMessage != "" {
		return payload.StatusMessage
	}
	return strings.TrimSpace(string(body))
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func retryAfterDelay(n uint, err error, cfg *retry.Config) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return min(apiErr.RetryAfter, maxRetryAfter)
	}
	return retry.BackOffDelay(n, err, cfg)
}

func listPath(mediaType models.MediaType, category string) (string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = "popular"
	}
	allowed, ok := listCategories[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported media type %q", ErrInvalidRequest, mediaType)
	}
	if _, ok := allowed[category]; !ok {
		return "", fmt.Errorf("%w: unsupported %s list %q", ErrInvalidRequest, mediaType, category)
	}
	if category == "trending" {
		return fmt.Sprintf("/trending/%s/week", mediaType), nil
	}
	return fmt.Sprintf("/%s/%s", mediaType, category), nil
}

var listCategories = map[models.MediaType]map[string]struct{}{
	models.MediaTypeMovie: {"trending": {}, "popular": {}, "top_rated": {}, "now_playing": {}, "upcoming": {}},
	models.MediaTypeTV:    {"trending": {}, "popular": {}, "top_rated": {}, "on_the_air": {}, "airing_today": {}},
}

// toSearchPage converts a raw page. When fallback is empty, items without a movie/tv
// media_type are dropped (multi search); otherwise fallback is assumed.
func toSearchPage(resp tmdbPage, fallback models.MediaType) *models.SearchPage {
	out := &models.SearchPage{
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
		Results:      make([]models.CatalogItem, 0, len(resp.Results)),
	}
	for _, raw := range resp.Results {
		mt := models.MediaType(raw.MediaType)
		if !mt.Valid() {
			if fallback == "" || raw.MediaType != "" {
				continue
			}
			mt = fallback
		}
		out.Results = append(out.Results, toCatalogItem(raw, mt))
	}
	return out
}

func toCatalogItem(raw tmdbListItem, mediaType models.MediaType) models.CatalogItem {
	title := strings.TrimSpace(raw.Title)
	date := raw.ReleaseDate
	if mediaType == models.MediaTypeTV || title == "" {
		if name := strings.TrimSpace(raw.Name); name != "" {
			title = name
		}
	}
	if date == "" {
		date = raw.FirstAirDate
	}
	return models.CatalogItem{
		ID:           raw.ID,
		Title:        title,
		MediaType:    mediaType,
		PosterPath:   raw.PosterPath,
		BackdropPath: raw.BackdropPath,
		Overview:     raw.Overview,
		Rating:       raw.VoteAverage,
		VoteCount:    raw.VoteCount,
		ReleaseDate:  date,
		Year:         parseYear(date),
	}
}

// parseYear extracts the year from a YYYY-MM-DD date, returning 0 when absent.
func parseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
