package tmdb

import "strings"

const (
	imageBaseURL    = "https://image.tmdb.org/t/p/w500"
	backdropBaseURL = "https://image.tmdb.org/t/p/w1280"

	// PlaceholderPoster is served when a title has no poster.
	PlaceholderPoster = "/placeholder-poster.jpg"
)

// genreNames maps TMDB genre ids to names, movie and TV genres combined.
var genreNames = map[int]string{
	28: "Action", 12: "Adventure", 16: "Animation", 35: "Comedy", 80: "Crime",
	99: "Documentary", 18: "Drama", 10751: "Family", 14: "Fantasy", 36: "History",
	27: "Horror", 10402: "Music", 9648: "Mystery", 10749: "Romance",
	878: "Science Fiction", 10770: "TV Movie", 53: "Thriller", 10752: "War", 37: "Western",
	10759: "Action & Adventure", 10762: "Kids", 10763: "News", 10764: "Reality",
	10765: "Sci-Fi & Fantasy", 10766: "Soap", 10767: "Talk", 10768: "War & Politics",
}

// GenreNames resolves ids in order, skipping unknown ones.
func GenreNames(ids []int) []string {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := genreNames[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

func PosterURL(path string) string {
	if path == "" {
		return PlaceholderPoster
	}
	return imageBaseURL + path
}

func BackdropURL(path string) string {
	if path == "" {
		return ""
	}
	return backdropBaseURL + path
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

var fallbackResults = []SearchResult{
	{
		ID:           550,
		Title:        "Fight Club",
		PosterPath:   strPtr("/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg"),
		BackdropPath: strPtr("/87hTDiay2N2qWyX4Ds7ybXi9h8I.jpg"),
		ReleaseDate:  "1999-10-15",
		VoteAverage:  floatPtr(8.4),
		GenreIDs:     []int{18, 53},
		MediaType:    "movie",
	},
	{
		ID:           13,
		Title:        "Forrest Gump",
		PosterPath:   strPtr("/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg"),
		BackdropPath: strPtr("/7c9UVPPiTPltouxRVY6N9uugaVA.jpg"),
		ReleaseDate:  "1994-06-23",
		VoteAverage:  floatPtr(8.5),
		GenreIDs:     []int{18, 10749},
		MediaType:    "movie",
	},
	{
		ID:           1399,
		Name:         "Game of Thrones",
		PosterPath:   strPtr("/7WUHnWGx5OO145IRxPDUkQSh4C7.jpg"),
		BackdropPath: strPtr("/2OMB0ynKlyIenMJWI2Dy9IWT4c.jpg"),
		FirstAirDate: "2011-04-17",
		VoteAverage:  floatPtr(8.3),
		GenreIDs:     []int{18, 10759, 10765},
		MediaType:    "tv",
	},
	{
		ID:           1396,
		Name:         "Breaking Bad",
		PosterPath:   strPtr("/3xnWaLQjelJDDF7LT1WBo6f4BRe.jpg"),
		BackdropPath: strPtr("/tsRy63Mu5cu8etL1X7ZLyf7UP1M.jpg"),
		FirstAirDate: "2008-01-20",
		VoteAverage:  floatPtr(9.5),
		GenreIDs:     []int{18, 80},
		MediaType:    "tv",
	},
}

// Fallback filters the built-in titles by case-insensitive substring.
func Fallback(query string) SearchResponse {
	q := strings.ToLower(strings.TrimSpace(query))
	results := make([]SearchResult, 0, len(fallbackResults))
	for _, r := range fallbackResults {
		if strings.Contains(strings.ToLower(r.DisplayTitle()), q) {
			results = append(results, r)
		}
	}
	return SearchResponse{
		Page:         1,
		Results:      results,
		TotalPages:   1,
		TotalResults: len(results),
	}
}

func fallbackDetails(mediaType string, id int64) (*Details, bool) {
	for _, r := range fallbackResults {
		if r.ID != id || r.MediaType != mediaType {
			continue
		}
		d := &Details{SearchResult: r}
		for _, gid := range r.GenreIDs {
			if name, ok := genreNames[gid]; ok {
				d.Genres = append(d.Genres, Genre{ID: gid, Name: name})
			}
		}
		return d, true
	}
	return nil, false
}
