// Package geocode resolves a coordinate into a human-readable place via a
// Nominatim-style reverse geocoding endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Sathvik-Nagesh/GeoSnap/model"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	// Zoom 10 asks for city-level granularity rather than street addresses.
	reverseZoom = "10"

	userAgent = "GeoSnap/1.0"

	maxResponseBytes = 1 << 20
)

// reverseResponse is the JSON shape of a Nominatim reverse lookup.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Hamlet  string `json:"hamlet"`
		State   string `json:"state"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"address"`
}

// Client issues reverse geocode lookups. It is a soft dependency: every
// failure degrades to an absent place, never an error, so the pipeline
// stays usable when the geocoder is unreachable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a Client. An empty baseURL selects the public
// Nominatim endpoint.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Resolve maps a coordinate to a place description, or nil on any failure
// (network error, non-2xx status, malformed payload).
func (c *Client) Resolve(ctx context.Context, coord model.GeoCoordinate) *model.PlaceDescription {
	params := url.Values{
		"format":         {"json"},
		"lat":            {strconv.FormatFloat(coord.Latitude, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(coord.Longitude, 'f', -1, 64)},
		"zoom":           {reverseZoom},
		"addressdetails": {"1"},
	}

	reqURL := c.baseURL + "/reverse?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.log.Warn("geocode: build request", zap.Error(err))
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("geocode: request failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("geocode: unexpected status", zap.Int("status", resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.log.Warn("geocode: read body", zap.Error(err))
		return nil
	}

	var rr reverseResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		c.log.Warn("geocode: parse response", zap.Error(err))
		return nil
	}

	return placeFromResponse(rr)
}

// placeFromResponse normalizes the provider's inconsistent field naming:
// rural results carry town/village/hamlet instead of city, and some
// countries use region instead of state.
func placeFromResponse(rr reverseResponse) *model.PlaceDescription {
	city := firstNonEmpty(rr.Address.City, rr.Address.Town, rr.Address.Village, rr.Address.Hamlet)
	region := firstNonEmpty(rr.Address.State, rr.Address.Region)

	display := rr.DisplayName
	if display == "" {
		display = fmt.Sprintf("%s, %s", city, rr.Address.Country)
	}

	return &model.PlaceDescription{
		City:        city,
		Region:      region,
		Country:     rr.Address.Country,
		DisplayName: display,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
