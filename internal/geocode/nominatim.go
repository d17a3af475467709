// Package geocode resolves free-text postal addresses to WGS84 coordinates
// using the OSM Nominatim search API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mlecomte/toitsol/internal/httputil"
	"github.com/mlecomte/toitsol/internal/metrics"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Place is a resolved address.
type Place struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// GeocodingError means the address could not be resolved to any location.
// It is fatal to an evaluation and is shown to the user with the address
// that failed.
type GeocodingError struct {
	Address string
	Err     error
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocode %q: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("geocode %q: no result", e.Address)
}

func (e *GeocodingError) Unwrap() error { return e.Err }

// UserMessage returns the end-user facing explanation.
func (e *GeocodingError) UserMessage() string {
	return fmt.Sprintf("L'adresse « %s » n'a pas pu être localisée. Vérifiez l'orthographe ou précisez la ville.", e.Address)
}

// Client queries the Nominatim search endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a geocoding client. baseURL may be empty for the public
// Nominatim instance.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httputil.NewClientTimeout(timeout),
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves an address to a coordinate. A country qualifier is
// appended when the query does not already mention France, matching the
// deployment region of the footprint projection.
func (c *Client) Geocode(ctx context.Context, address string) (Place, error) {
	query := qualifyAddress(address)

	u := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return Place{}, &GeocodingError{Address: address, Err: err}
	}
	req.Header.Set("User-Agent", httputil.UserAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ExternalAPILatency.WithLabelValues("nominatim").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("nominatim", "error").Inc()
		return Place{}, &GeocodingError{Address: address, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExternalAPICallsTotal.WithLabelValues("nominatim", strconv.Itoa(resp.StatusCode)).Inc()
		return Place{}, &GeocodingError{Address: address, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}
	metrics.ExternalAPICallsTotal.WithLabelValues("nominatim", "ok").Inc()

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, &GeocodingError{Address: address, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(results) == 0 {
		return Place{}, &GeocodingError{Address: address}
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Place{}, &GeocodingError{Address: address, Err: fmt.Errorf("parse lat: %w", err)}
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Place{}, &GeocodingError{Address: address, Err: fmt.Errorf("parse lon: %w", err)}
	}

	return Place{Lat: lat, Lon: lon, DisplayName: results[0].DisplayName}, nil
}

// qualifyAddress appends ", France" unless the query already mentions it.
func qualifyAddress(address string) string {
	trimmed := strings.TrimSpace(address)
	if strings.Contains(strings.ToLower(trimmed), "france") {
		return trimmed
	}
	return trimmed + ", France"
}
