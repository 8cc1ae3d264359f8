package models

import "strings"

// MediaType identifies the two kinds of catalog titles.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// ParseMediaType normalizes the spellings clients and the model use for media types.
// Unknown values report ok=false.
func ParseMediaType(raw string) (MediaType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "movie", "movies", "film", "films":
		return MediaTypeMovie, true
	case "tv", "series", "show", "shows", "tv show", "tv series":
		return MediaTypeTV, true
	default:
		return "", false
	}
}

// Valid reports whether m is one of the known media types.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// Genre is a catalog genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CastMember is a single credited actor.
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profilePath,omitempty"`
}

// Provider is one streaming/rental/purchase outlet for a title.
type Provider struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LogoPath string `json:"logoPath,omitempty"`
	URL      string `json:"url,omitempty"` // Deep link from the static provider directory
	Priority int    `json:"priority"`
}

// WatchProviders groups providers by availability category for a single region.
type WatchProviders struct {
	Region   string     `json:"region"`
	Link     string     `json:"link,omitempty"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// Empty reports whether no provider category has entries.
func (w *WatchProviders) Empty() bool {
	return w == nil || (len(w.Flatrate) == 0 && len(w.Rent) == 0 && len(w.Buy) == 0)
}

// CatalogItem is a normalized movie or TV title from the metadata service.
// ID is stable and unique per media type.
type CatalogItem struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	MediaType      MediaType       `json:"mediaType"`
	PosterPath     string          `json:"posterPath,omitempty"`
	BackdropPath   string          `json:"backdropPath,omitempty"`
	Overview       string          `json:"overview"`
	Rating         float64         `json:"rating"`
	VoteCount      int             `json:"voteCount,omitempty"`
	ReleaseDate    string          `json:"releaseDate,omitempty"`
	Year           int             `json:"year,omitempty"`
	RuntimeMinutes int             `json:"runtimeMinutes,omitempty"`
	Genres         []Genre         `json:"genres,omitempty"`
	Cast           []CastMember    `json:"cast,omitempty"`
	WatchProviders *WatchProviders `json:"watchProviders,omitempty"`
}

// SearchPage is one page of catalog results.
type SearchPage struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"totalPages"`
	TotalResults int           `json:"totalResults"`
	Results      []CatalogItem `json:"results"`
}
