package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"proppanda/internal/config"
)

// LocationIQClient resolves Singapore place names to coordinates via the
// LocationIQ forward geocoding API.
type LocationIQClient struct {
	config     *config.GeocodingConfig
	httpClient *http.Client
}

var _ Geocoder = (*LocationIQClient)(nil)

// NewLocationIQClient creates a geocoding client
func NewLocationIQClient(cfg *config.GeocodingConfig) *LocationIQClient {
	return &LocationIQClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a place name. found is false when the API returns no
// usable match, including the 404 LocationIQ sends for unknown places.
func (c *LocationIQClient) Geocode(ctx context.Context, place string) (float64, float64, bool, error) {
	if c.config.APIKey == "" {
		return 0, 0, false, nil
	}

	params := url.Values{}
	params.Set("key", c.config.APIKey)
	params.Set("q", place)
	params.Set("format", "json")
	params.Set("limit", "1")
	if c.config.CountryCodes != "" {
		params.Set("countrycodes", c.config.CountryCodes)
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.config.APIBase, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to create geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to send geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, 0, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to read geocode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, false, fmt.Errorf("geocode request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var results []geocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return 0, 0, false, fmt.Errorf("failed to unmarshal geocode response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, false, nil
	}

	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false, nil
	}

	return lat, lng, true, nil
}
