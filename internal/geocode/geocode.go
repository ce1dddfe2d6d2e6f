// Package geocode resolves free-form addresses to coordinates via the
// Google Geocoding API. Callers take the first (best) result.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

// DefaultEndpoint is the production Google Geocoding API URL. Tests point
// the client at an httptest server instead.
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

const httpTimeout = 10 * time.Second

// ErrNoResults means the address did not resolve to any candidate.
var ErrNoResults = errors.New("geocode: no results")

// Client queries the geocoding service.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// New creates a geocoding client. An empty endpoint falls back to
// DefaultEndpoint.
func New(endpoint, apiKey string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type geocodeResponse struct {
	Status  string          `json:"status"`
	Results []geocodeResult `json:"results"`
}

// Resolve geocodes an address, returning the first result. ErrNoResults is
// returned when the service matched nothing; other failures are transport or
// contract errors.
func (c *Client) Resolve(ctx context.Context, address string) (*incident.Location, error) {
	q := url.Values{}
	q.Set("address", address)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("geocode: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocode: service returned %d: %s", resp.StatusCode, string(body))
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	if out.Status == "ZERO_RESULTS" || len(out.Results) == 0 {
		return nil, ErrNoResults
	}
	if out.Status != "OK" {
		return nil, fmt.Errorf("geocode: status %s", out.Status)
	}

	best := out.Results[0]
	return &incident.Location{
		Lat:     best.Geometry.Location.Lat,
		Lng:     best.Geometry.Location.Lng,
		Address: best.FormattedAddress,
	}, nil
}
