package soilgrids

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/quietcreek/soil-intel-service/internal/domain"
	"github.com/quietcreek/soil-intel-service/internal/geo"
	"github.com/quietcreek/soil-intel-service/internal/observability"
)

// The SoilGrids rasters are published in the Interrupted Goode Homolosine
// CRS; subset windows are ±250 m around the queried point.
const (
	ighCrsURI         = "http://www.opengis.net/def/crs/EPSG/0/152160"
	subsetHalfWindowM = 250.0
)

// nodata sentinel of the int16 rasters, seen as its two's-complement
// unsigned value after TIFF decoding.
const nodataGray16 = 32768

// RasterClient reconstructs a soil profile from 18 WCS GetCoverage requests
// (6 depths × 3 properties), each returning a small GeoTIFF from which the
// center pixel is extracted. Requests run through a bounded worker pool.
type RasterClient struct {
	baseURL     string
	httpClient  *http.Client
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewRasterClient creates the WCS fallback client.
func NewRasterClient(baseURL string, timeout time.Duration, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *RasterClient {
	if concurrency < 1 {
		concurrency = 4
	}
	return &RasterClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// FetchProfile issues the 18 coverage requests with bounded concurrency and
// assembles the profile. Individual coverage failures are tolerated and
// logged; the fetch fails only when no layer at all could be read.
func (c *RasterClient) FetchProfile(ctx context.Context, lat, lon float64) (domain.SoilProfile, error) {
	x, y := geo.ProjectIGH(lon, lat)

	type slot struct {
		property string
		band     depthBand
	}
	slots := make([]slot, 0, len(properties)*len(depthBands))
	for _, p := range properties {
		for _, b := range depthBands {
			slots = append(slots, slot{property: p, band: b})
		}
	}

	// Results land in pre-indexed slots so ordering is independent of
	// completion order.
	values := make([]float64, len(slots))
	oks := make([]bool, len(slots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, sl := range slots {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			v, err := c.fetchCenterPixel(gctx, sl.property, sl.band.Label, x, y)
			if err != nil {
				c.logger.Warn("wcs coverage fetch failed",
					"property", sl.property, "depth", sl.band.Label, "error", err)
				return nil
			}
			values[i] = v
			oks[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SoilProfile{}, fmt.Errorf("soilgrids wcs fetch: %w", err)
	}

	var profile domain.SoilProfile
	any := false
	for i, sl := range slots {
		if !oks[i] {
			continue
		}
		any = true
		layer := domain.SoilLayerValue{
			Label:         sl.band.Label,
			TopDepthCm:    sl.band.TopCm,
			BottomDepthCm: sl.band.BottomCm,
			ValuePercent:  values[i],
		}
		switch sl.property {
		case "clay":
			profile.Clay = append(profile.Clay, layer)
		case "sand":
			profile.Sand = append(profile.Sand, layer)
		case "silt":
			profile.Silt = append(profile.Silt, layer)
		}
	}
	if !any {
		return domain.SoilProfile{}, errors.New("soilgrids wcs fetch: no coverage readable")
	}
	return profile, nil
}

func (c *RasterClient) fetchCenterPixel(ctx context.Context, property, depthLabel string, x, y float64) (float64, error) {
	params := url.Values{
		"map":           {fmt.Sprintf("/map/%s.map", property)},
		"SERVICE":       {"WCS"},
		"VERSION":       {"2.0.1"},
		"REQUEST":       {"GetCoverage"},
		"COVERAGEID":    {fmt.Sprintf("%s_%s_mean", property, depthLabel)},
		"FORMAT":        {"image/tiff"},
		"SUBSETTINGCRS": {ighCrsURI},
		"OUTPUTCRS":     {ighCrsURI},
	}
	// SUBSET appears twice; url.Values encodes repeated keys in order.
	params["SUBSET"] = []string{
		fmt.Sprintf("X(%.3f,%.3f)", x-subsetHalfWindowM, x+subsetHalfWindowM),
		fmt.Sprintf("Y(%.3f,%.3f)", y-subsetHalfWindowM, y+subsetHalfWindowM),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues("wcs").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("wcs", "error").Inc()
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.FetchRequests.WithLabelValues("wcs", "error").Inc()
		return 0, &StatusError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("wcs", "error").Inc()
		return 0, fmt.Errorf("read coverage: %w", err)
	}

	v, err := decodeCenterPixel(body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("wcs", "error").Inc()
		return 0, err
	}
	c.metrics.FetchRequests.WithLabelValues("wcs", "success").Inc()
	c.metrics.RasterPixelReads.Inc()
	return v, nil
}

// decodeCenterPixel extracts the raster value at the image center and
// converts it from g/kg to percent. The nodata sentinel reads as 0.
func decodeCenterPixel(raw []byte) (float64, error) {
	img, err := tiff.Decode(bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("decode geotiff: %w", err)
	}

	b := img.Bounds()
	if b.Empty() {
		return 0, errors.New("decode geotiff: empty raster")
	}
	cx := b.Min.X + b.Dx()/2
	cy := b.Min.Y + b.Dy()/2

	var value float64
	switch im := img.(type) {
	case *image.Gray16:
		value = float64(im.Gray16At(cx, cy).Y)
	case *image.Gray:
		value = float64(im.GrayAt(cx, cy).Y)
	default:
		r, _, _, _ := img.At(cx, cy).RGBA()
		value = float64(r)
	}

	// int16 nodata appears as values from 32768 upward once read as an
	// unsigned sample.
	if value >= nodataGray16 {
		value = 0
	}
	return value / 10, nil
}
