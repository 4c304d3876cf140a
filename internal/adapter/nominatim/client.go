package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/disaster-monitor/internal/config"
	"github.com/couchcryptid/disaster-monitor/internal/domain"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
)

// Client implements domain.Geocoder against the Nominatim search API. The
// service requires a descriptive User-Agent identifying the caller and an
// absolute minimum of one second between requests; rate limiting lives in
// the decorator, not here.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Nominatim geocoding client.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		endpoint:  cfg.GeocodeEndpoint,
		userAgent: cfg.GeocodeUserAgent,
		httpClient: &http.Client{
			Timeout: cfg.GeocodeTimeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Geocode resolves a free-text place name to coordinates. An answered
// request with no results is not an error; it returns Found=false so the
// outcome can be cached and the name never retried within a run.
func (c *Client) Geocode(ctx context.Context, name string) (domain.GeocodeResult, error) {
	params := url.Values{
		"q":      {name},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		return domain.GeocodeResult{}, nil
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, fmt.Errorf("parse coordinates for %q: lat=%q lon=%q", name, places[0].Lat, places[0].Lon)
	}

	c.metrics.GeocodeRequests.WithLabelValues("found").Inc()
	return domain.GeocodeResult{Lat: lat, Lon: lon, Found: true}, nil
}

// Nominatim API response types. Coordinates arrive as strings.

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}
