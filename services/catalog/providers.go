package catalog

import (
	"sort"

	"cinepick/models"
)

// DefaultProviderLinks maps TMDB provider IDs to the service's landing page (US).
var DefaultProviderLinks = map[int64]string{
	// Streaming services
	8:    "https://www.netflix.com",
	9:    "https://www.amazon.com/Prime-Video/b?node=2676882011",
	337:  "https://www.disneyplus.com",
	384:  "https://www.max.com",
	15:   "https://www.hulu.com",
	1899: "https://tv.apple.com",
	386:  "https://www.peacocktv.com",
	387:  "https://www.peacocktv.com/premium",
	531:  "https://www.paramountplus.com",
	257:  "https://www.fubo.tv",

	// Premium channels
	528:  "https://www.amazon.com/gp/video/storefront/ref=atv_dp_amc_plus",
	1794: "https://www.showtime.com",
	37:   "https://www.starz.com",

	// VOD
	3:   "https://play.google.com/store/movies",
	10:  "https://www.amazon.com/Amazon-Video/b?node=2858778011",
	192: "https://www.youtube.com/movies",
	7:   "https://www.vudu.com",
	68:  "https://www.microsoft.com/en-us/store/movies-and-tv",

	// Specialty
	283: "https://www.crunchyroll.com",
	149: "https://www.criterionchannel.com",
	296: "https://www.rakuten.tv",
}

// DefaultProviderNames are display names for the providers in DefaultProviderLinks.
var DefaultProviderNames = map[int64]string{
	8:    "Netflix",
	9:    "Amazon Prime Video",
	337:  "Disney+",
	384:  "Max",
	15:   "Hulu",
	1899: "Apple TV+",
	386:  "Peacock",
	387:  "Peacock Premium Plus",
	531:  "Paramount+",
	257:  "fuboTV",
	528:  "AMC+ Amazon Channel",
	1794: "Showtime",
	37:   "STARZ",
	3:    "Google Play Movies",
	10:   "Amazon Video",
	192:  "YouTube",
	7:    "Vudu",
	68:   "Microsoft Store",
	283:  "Crunchyroll",
	149:  "Criterion Channel",
	296:  "Rakuten TV",
}

// ProviderDirectory lists the known providers with their landing pages, ordered by ID.
func ProviderDirectory() []models.Provider {
	out := make([]models.Provider, 0, len(DefaultProviderNames))
	for id, name := range DefaultProviderNames {
		out = append(out, models.Provider{ID: id, Name: name, URL: DefaultProviderLinks[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
