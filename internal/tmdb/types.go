package tmdb

import "github.com/reelshare/backend/internal/models"

// SearchResult is one /search/multi hit. Movies carry Title and ReleaseDate,
// TV shows carry Name and FirstAirDate.
type SearchResult struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title,omitempty"`
	Name         string   `json:"name,omitempty"`
	Overview     string   `json:"overview,omitempty"`
	PosterPath   *string  `json:"poster_path,omitempty"`
	BackdropPath *string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	FirstAirDate string   `json:"first_air_date,omitempty"`
	VoteAverage  *float64 `json:"vote_average,omitempty"`
	GenreIDs     []int    `json:"genre_ids,omitempty"`
	MediaType    string   `json:"media_type"`
}

func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

func (r SearchResult) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// ListItem converts the hit into the fields stored on a list entry.
func (r SearchResult) ListItem() models.ListItem {
	item := models.ListItem{
		TMDBID:       r.ID,
		MediaType:    models.MediaType(r.MediaType),
		Title:        r.DisplayTitle(),
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		Rating:       r.VoteAverage,
		Genre:        GenreNames(r.GenreIDs),
	}
	if d := r.Date(); d != "" {
		item.ReleaseDate = &d
	}
	return item
}

type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Details is the /movie/{id} or /tv/{id} payload, trimmed to what lists use.
type Details struct {
	SearchResult
	Genres           []Genre `json:"genres,omitempty"`
	Tagline          string  `json:"tagline,omitempty"`
	Runtime          int     `json:"runtime,omitempty"`
	NumberOfSeasons  int     `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int     `json:"number_of_episodes,omitempty"`
}

// ListItem prefers the named genres of the details payload.
func (d Details) ListItem() models.ListItem {
	item := d.SearchResult.ListItem()
	if len(d.Genres) > 0 {
		names := make([]string, 0, len(d.Genres))
		for _, g := range d.Genres {
			names = append(names, g.Name)
		}
		item.Genre = names
	}
	return item
}
