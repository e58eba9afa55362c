package api

import "time"

// User is a profile as returned by user search and /auth/me.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is returned by /auth/signin.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// List mirrors the list view the server returns to one viewer.
type List struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Category    string    `json:"category"`
	Items       []Item    `json:"items"`
	Shares      []Share   `json:"shares,omitempty"`
	IsOwner     bool      `json:"isOwner"`
	Permission  string    `json:"permission"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Item struct {
	ID           string     `json:"id,omitempty"`
	TMDBID       int64      `json:"tmdbId"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	PosterPath   *string    `json:"posterPath,omitempty"`
	BackdropPath *string    `json:"backdropPath,omitempty"`
	ReleaseDate  *string    `json:"releaseDate,omitempty"`
	Rating       *float64   `json:"rating,omitempty"`
	Genre        []string   `json:"genre,omitempty"`
	AddedAt      *time.Time `json:"addedAt,omitempty"`
}

type Share struct {
	ID               string    `json:"id"`
	ListID           string    `json:"list_id"`
	SharedWithUserID string    `json:"shared_with_user_id"`
	Permission       string    `json:"permission"`
	CreatedAt        time.Time `json:"created_at"`
	User             *User     `json:"user_profile,omitempty"`
}

// SearchResponse is the unwrapped catalog search shape served by /search.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

type SearchResult struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title,omitempty"`
	Name         string   `json:"name,omitempty"`
	MediaType    string   `json:"media_type"`
	PosterPath   *string  `json:"poster_path,omitempty"`
	BackdropPath *string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	FirstAirDate string   `json:"first_air_date,omitempty"`
	VoteAverage  *float64 `json:"vote_average,omitempty"`
}

// DisplayTitle is the movie title or the show name.
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year is the first four characters of whichever release date is set.
func (r SearchResult) Year() string {
	d := r.ReleaseDate
	if d == "" {
		d = r.FirstAirDate
	}
	if len(d) < 4 {
		return ""
	}
	return d[:4]
}

// TitleDetails is the data of /titles/:type/:id.
type TitleDetails struct {
	Title        SearchResult `json:"title"`
	Genres       []string     `json:"genres"`
	PosterURL    string       `json:"posterUrl"`
	DisplayTitle string       `json:"displayTitle"`
}

// Activity is one entry of the caller's feed.
type Activity struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ListID    string    `json:"listID,omitempty"`
	ListName  string    `json:"listName"`
	ItemTitle string    `json:"itemTitle,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	Actor     *User     `json:"actor,omitempty"`
}

type UnreadCount struct {
	Count int64 `json:"count"`
}

type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"apiVersion"`
	Commit       string `json:"commit,omitempty"`
	AuthProvider string `json:"authProvider"`
	SearchMode   string `json:"searchMode"`
}
