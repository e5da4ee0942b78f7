package soilgrids

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/quietcreek/soil-intel-service/internal/domain"
	"github.com/quietcreek/soil-intel-service/internal/observability"
)

const (
	retryInitialInterval = 400 * time.Millisecond
	maxRetries           = 2
)

// Client queries the SoilGrids properties REST endpoint. One request
// returns all three properties across the six depth bands.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates the REST client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchProfile requests the full profile for a coordinate, retrying up to
// twice with exponential backoff on transient statuses (429/502/503/504).
// Any other failure is returned immediately.
func (c *Client) FetchProfile(ctx context.Context, lat, lon float64) (domain.SoilProfile, error) {
	labels := make([]string, len(depthBands))
	for i, b := range depthBands {
		labels[i] = b.Label
	}
	params := url.Values{
		"lon":      {fmt.Sprintf("%.6f", lon)},
		"lat":      {fmt.Sprintf("%.6f", lat)},
		"property": {strings.Join(properties, ",")},
		"depth":    {strings.Join(labels, ",")},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	var profile domain.SoilProfile
	attempt := func() error {
		start := time.Now()
		p, err := c.fetchOnce(ctx, fullURL)
		c.metrics.FetchDuration.WithLabelValues("rest").Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.FetchRequests.WithLabelValues("rest", "error").Inc()
			return err
		}
		c.metrics.FetchRequests.WithLabelValues("rest", "success").Inc()
		profile = p
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
	if err != nil {
		return domain.SoilProfile{}, fmt.Errorf("soilgrids rest fetch: %w", err)
	}
	return profile, nil
}

func (c *Client) fetchOnce(ctx context.Context, fullURL string) (domain.SoilProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.SoilProfile{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport errors and timeouts are not retried; the raster
		// fallback is cheaper than waiting out a dead network.
		return domain.SoilProfile{}, backoff.Permanent(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Status: resp.StatusCode}
		if retryableStatus(resp.StatusCode) {
			return domain.SoilProfile{}, statusErr
		}
		return domain.SoilProfile{}, backoff.Permanent(statusErr)
	}

	var body restResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.SoilProfile{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return body.toProfile(), nil
}

// REST API response types: properties.layers[].depths[].values.mean, g/kg.

type restResponse struct {
	Properties struct {
		Layers []restLayer `json:"layers"`
	} `json:"properties"`
}

type restLayer struct {
	Name   string      `json:"name"`
	Depths []restDepth `json:"depths"`
}

type restDepth struct {
	Range struct {
		TopDepth    float64 `json:"top_depth"`
		BottomDepth float64 `json:"bottom_depth"`
	} `json:"range"`
	Label  string `json:"label"`
	Values struct {
		Mean *float64 `json:"mean"`
	} `json:"values"`
}

func (r restResponse) toProfile() domain.SoilProfile {
	var profile domain.SoilProfile
	for _, layer := range r.Properties.Layers {
		values := make([]domain.SoilLayerValue, 0, len(layer.Depths))
		for _, d := range layer.Depths {
			if d.Values.Mean == nil {
				continue
			}
			values = append(values, domain.SoilLayerValue{
				Label:         d.Label,
				TopDepthCm:    d.Range.TopDepth,
				BottomDepthCm: d.Range.BottomDepth,
				// SoilGrids reports g/kg; percentages are tenths.
				ValuePercent: *d.Values.Mean / 10,
			})
		}
		sort.Slice(values, func(i, j int) bool {
			return values[i].TopDepthCm < values[j].TopDepthCm
		})
		switch layer.Name {
		case "clay":
			profile.Clay = values
		case "sand":
			profile.Sand = values
		case "silt":
			profile.Silt = values
		}
	}
	return profile
}
