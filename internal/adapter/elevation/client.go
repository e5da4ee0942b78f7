// Package elevation queries an Open-Elevation compatible lookup endpoint.
package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quietcreek/soil-intel-service/internal/observability"
	"github.com/quietcreek/soil-intel-service/internal/soil"
)

// Client implements soil.ElevationSampler against an Open-Elevation style
// API: one GET with pipe-separated locations returns elevations in order.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates the elevation client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Elevations resolves all points in a single batched call. The returned
// slice is parallel to coords; nil marks points the provider could not
// resolve.
func (c *Client) Elevations(ctx context.Context, coords []soil.Coordinate) ([]*float64, error) {
	if len(coords) == 0 {
		return nil, nil
	}

	locs := make([]string, len(coords))
	for i, p := range coords {
		locs[i] = fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
	}
	params := url.Values{"locations": {strings.Join(locs, "|")}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues("elevation").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("elevation", "error").Inc()
		return nil, fmt.Errorf("elevation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.FetchRequests.WithLabelValues("elevation", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("elevation API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.FetchRequests.WithLabelValues("elevation", "error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.metrics.FetchRequests.WithLabelValues("elevation", "success").Inc()

	out := make([]*float64, len(coords))
	for i := range coords {
		if i < len(payload.Results) {
			out[i] = payload.Results[i].Elevation
		}
	}
	return out, nil
}

// Elevation API response types.

type response struct {
	Results []result `json:"results"`
}

type result struct {
	Elevation *float64 `json:"elevation"`
}
