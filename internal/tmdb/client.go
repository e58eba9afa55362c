package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reelshare/backend/internal/cache"
	"github.com/reelshare/backend/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"

	placeholderAPIKey = "your_api_key_here"
)

var ErrNotFound = errors.New("title not found")

type Client struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	cache     *cache.Cache
	searchTTL time.Duration
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCache stores successful upstream searches under cache.SearchKey.
func WithCache(ch *cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		c.searchTTL = ttl
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an upstream key is set. The placeholder key
// shipped in sample env files counts as unset.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != placeholderAPIKey
}

// Search never fails: without a key, or on any upstream error, it answers
// from the built-in dataset.
func (c *Client) Search(ctx context.Context, query string) SearchResponse {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResponse{Page: 1, Results: []SearchResult{}}
	}
	if !c.Configured() {
		return Fallback(query)
	}

	key := cache.SearchKey(query)
	if c.cache != nil {
		var cached SearchResponse
		if c.cache.GetJSON(ctx, key, &cached) {
			return cached
		}
	}

	resp, err := c.searchUpstream(ctx, query)
	if err != nil {
		logger.Warn("tmdb_search_fallback", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return Fallback(query)
	}

	if c.cache != nil {
		c.cache.SetJSON(ctx, key, resp, c.searchTTL)
	}
	return resp
}

func (c *Client) searchUpstream(ctx context.Context, query string) (SearchResponse, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)

	var data SearchResponse
	if err := c.getJSON(ctx, "/search/multi?"+params.Encode(), &data); err != nil {
		return SearchResponse{}, err
	}

	results := make([]SearchResult, 0, len(data.Results))
	for _, r := range data.Results {
		if r.MediaType == "movie" || r.MediaType == "tv" {
			results = append(results, r)
		}
	}
	data.Results = results
	return data, nil
}

// Details fetches one title. Without a key it looks the id up in the
// built-in dataset and returns ErrNotFound when absent.
func (c *Client) Details(ctx context.Context, mediaType string, id int64) (*Details, error) {
	if mediaType != "movie" && mediaType != "tv" {
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}
	if !c.Configured() {
		if d, ok := fallbackDetails(mediaType, id); ok {
			return d, nil
		}
		return nil, ErrNotFound
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)

	var d Details
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/%d?%s", mediaType, id, params.Encode()), &d); err != nil {
		return nil, err
	}
	d.MediaType = mediaType
	return &d, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tmdb api error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
