package catalog

import "cinepick/models"

// MovieGenres is TMDB's movie genre table.
var MovieGenres = []models.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 99, Name: "Documentary"},
	{ID: 18, Name: "Drama"},
	{ID: 10751, Name: "Family"},
	{ID: 14, Name: "Fantasy"},
	{ID: 36, Name: "History"},
	{ID: 27, Name: "Horror"},
	{ID: 10402, Name: "Music"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10749, Name: "Romance"},
	{ID: 878, Name: "Science Fiction"},
	{ID: 10770, Name: "TV Movie"},
	{ID: 53, Name: "Thriller"},
	{ID: 10752, Name: "War"},
	{ID: 37, Name: "Western"},
}

// TVGenres is TMDB's TV genre table.
var TVGenres = []models.Genre{
	{ID: 10759, Name: "Action & Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 99, Name: "Documentary"},
	{ID: 18, Name: "Drama"},
	{ID: 10751, Name: "Family"},
	{ID: 10762, Name: "Kids"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10763, Name: "News"},
	{ID: 10764, Name: "Reality"},
	{ID: 10765, Name: "Sci-Fi & Fantasy"},
	{ID: 10766, Name: "Soap"},
	{ID: 10767, Name: "Talk"},
	{ID: 10768, Name: "War & Politics"},
	{ID: 37, Name: "Western"},
}

// tvToMovieGenre maps TV-only genres onto the nearest movie genre.
var tvToMovieGenre = map[int64]int64{
	10759: 28,    // Action & Adventure -> Action
	10768: 10752, // War & Politics -> War
	10765: 878,   // Sci-Fi & Fantasy -> Science Fiction
}

// MovieGenreFor returns the genre ID to query for mediaType.
func MovieGenreFor(mediaType models.MediaType, genreID int64) int64 {
	if mediaType == models.MediaTypeMovie {
		if mapped, ok := tvToMovieGenre[genreID]; ok {
			return mapped
		}
	}
	return genreID
}

// Genres returns the static genre table for mediaType.
func Genres(mediaType models.MediaType) []models.Genre {
	if mediaType == models.MediaTypeMovie {
		return MovieGenres
	}
	return TVGenres
}

// GenreName looks up a genre name, falling back to "Category".
func GenreName(mediaType models.MediaType, genreID int64) string {
	for _, g := range Genres(mediaType) {
		if g.ID == genreID {
			return g.Name
		}
	}
	return "Category"
}
