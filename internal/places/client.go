package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/lucasmnd/storemap/internal/config"
	"github.com/lucasmnd/storemap/internal/geo"
)

// Result is a single hit returned by the external place-search service.
// Optional fields arrive empty when the provider omits them.
type Result struct {
	Name    string
	Address string
	PlaceID string
	Lat     float64
	Lng     float64
	Phone   string
	Website string
	Rating  float64
	Photos  []string
}

// Searcher is the place-search contract consumed by the collector and the
// claim flow. Best effort: implementations may return an empty list or an
// error, never partial garbage.
type Searcher interface {
	Search(ctx context.Context, query string, lat, lng float64) ([]Result, error)
}

// ErrNotConfigured is returned when no base URL was provided; callers treat
// the live source as absent.
var ErrNotConfigured = errors.New("place search not configured")

// Client talks to the place-search HTTP API. Responses are cached per
// query/neighbourhood cell for the configured TTL and outbound calls are
// rate limited client-side.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *gocache.Cache
	limiter *rate.Limiter
}

// NewClient builds a place-search client from configuration.
func NewClient(cfg config.PlacesConfig) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		limiter: rate.NewLimiter(limit, burst),
	}
}

type apiResult struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	PlaceID string   `json:"placeId"`
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Phone   string   `json:"phone"`
	Website string   `json:"website"`
	Rating  float64  `json:"rating"`
	Photos  []string `json:"photos"`
}

type apiResponse struct {
	Results []apiResult `json:"results"`
}

// Search queries the service for places matching query near the given point.
func (c *Client) Search(ctx context.Context, query string, lat, lng float64) ([]Result, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)

	key := cacheKey(query, lat, lng)
	if cached, ok := c.cache.Get(key); ok {
		return append([]Result(nil), cached.([]Result)...), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("place search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("place search: unexpected status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, Result{
			Name:    strings.TrimSpace(r.Name),
			Address: strings.TrimSpace(r.Address),
			PlaceID: strings.TrimSpace(r.PlaceID),
			Lat:     r.Lat,
			Lng:     r.Lng,
			Phone:   strings.TrimSpace(r.Phone),
			Website: strings.TrimSpace(r.Website),
			Rating:  r.Rating,
			Photos:  r.Photos,
		})
	}

	c.cache.Set(key, results, gocache.DefaultExpiration)
	return results, nil
}

// cacheKey scopes cached responses to a query within a geohash cell, so a
// user panning within the same neighbourhood reuses the previous response.
func cacheKey(query string, lat, lng float64) string {
	return strings.ToLower(query) + "@" + geo.Cell(lat, lng)
}
