package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietcreek/soil-intel-service/internal/domain"
	"github.com/quietcreek/soil-intel-service/internal/soil"
)

type stubAPI struct {
	detectCalls  int
	lastLat      float64
	lastLon      float64
	lastDepth    float64
	slopeResult  domain.SlopeResult
	cacheCleared bool
	healthReset  bool
	markedDown   bool
}

func (s *stubAPI) DetectSoilFromLocation(_ context.Context, lat, lon, rootDepthCm float64) domain.SoilGridsResult {
	s.detectCalls++
	s.lastLat, s.lastLon, s.lastDepth = lat, lon, rootDepthCm
	return domain.SoilGridsResult{
		Clay: 22, Sand: 40, Silt: 38,
		TextureClass: domain.TextureLoam,
		RootDepthCm:  rootDepthCm,
		Confidence:   domain.ConfidenceHigh,
		Source:       domain.SourceAPI,
	}
}

func (s *stubAPI) CalculateSlope(_ context.Context, lat, lon float64) domain.SlopeResult {
	s.lastLat, s.lastLon = lat, lon
	return s.slopeResult
}

func (s *stubAPI) ClearCache()           { s.cacheCleared = true }
func (s *stubAPI) ResetAPIStatus()       { s.healthReset = true }
func (s *stubAPI) IsAPIMarkedDown() bool { return s.markedDown }
func (s *stubAPI) GetCacheInfo() soil.CacheInfo {
	return soil.CacheInfo{Entries: 3, Capacity: 20}
}

func newTestServer(api SoilAPI) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", api, logger)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandleDetectSoil(t *testing.T) {
	api := &stubAPI{}
	s := newTestServer(api)

	rec := doRequest(t, s, http.MethodGet, "/v1/soil?lat=52.1&lon=5.6&root_depth_cm=80")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 52.1, api.lastLat)
	assert.Equal(t, 5.6, api.lastLon)
	assert.Equal(t, 80.0, api.lastDepth)

	var body domain.SoilGridsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.TextureLoam, body.TextureClass)
	assert.Equal(t, domain.SourceAPI, body.Source)
}

func TestHandleDetectSoil_DefaultRootDepth(t *testing.T) {
	api := &stubAPI{}
	s := newTestServer(api)

	rec := doRequest(t, s, http.MethodGet, "/v1/soil?lat=52.1&lon=5.6")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50.0, api.lastDepth)
}

func TestHandleDetectSoil_Validation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing lat", "/v1/soil?lon=5.6"},
		{"missing lon", "/v1/soil?lat=52.1"},
		{"non-numeric", "/v1/soil?lat=abc&lon=5.6"},
		{"lat out of range", "/v1/soil?lat=91&lon=5.6"},
		{"lon out of range", "/v1/soil?lat=52.1&lon=181"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &stubAPI{}
			s := newTestServer(api)

			rec := doRequest(t, s, http.MethodGet, tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, api.detectCalls)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestHandleSlope(t *testing.T) {
	api := &stubAPI{slopeResult: domain.SlopeResult{
		SlopePercent:    4.2,
		ElevationMeters: 103,
		Confidence:      domain.ConfidenceHigh,
	}}
	s := newTestServer(api)

	rec := doRequest(t, s, http.MethodGet, "/v1/slope?lat=52.1&lon=5.6")

	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.SlopeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4.2, body.SlopePercent)
	assert.Equal(t, domain.ConfidenceHigh, body.Confidence)
}

func TestHandleTexture(t *testing.T) {
	s := newTestServer(&stubAPI{})

	rec := doRequest(t, s, http.MethodGet, "/v1/texture?clay=20&sand=40&silt=40")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		TextureClass domain.TextureClass         `json:"textureClass"`
		DisplayName  string                      `json:"displayName"`
		Parameters   domain.CustomSoilParameters `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.TextureLoam, body.TextureClass)
	assert.Equal(t, "Loam", body.DisplayName)
	assert.Greater(t, body.Parameters.FieldCapacityPct, body.Parameters.WiltingPointPct)
}

func TestHandleTiming(t *testing.T) {
	s := newTestServer(&stubAPI{})

	rec := doRequest(t, s, http.MethodGet, "/v1/timing?infiltration_mm_h=4&slope_percent=6")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		CycleSoakRecommended bool                   `json:"cycleSoakRecommended"`
		Timing               domain.CycleSoakTiming `json:"timing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.CycleSoakRecommended)
	assert.Equal(t, 3, body.Timing.CycleMinutes)
	assert.Equal(t, 23, body.Timing.SoakMinutes)
}

func TestHandleVolume(t *testing.T) {
	s := newTestServer(&stubAPI{})

	rec := doRequest(t, s, http.MethodGet, "/v1/volume?mode=area&quantity=50&available_water_mm_m=150&slope_percent=0")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		MaxVolumeLiters float64 `json:"maxVolumeLiters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5.0, body.MaxVolumeLiters)
}

func TestHandleVolume_InvalidMode(t *testing.T) {
	s := newTestServer(&stubAPI{})

	rec := doRequest(t, s, http.MethodGet, "/v1/volume?mode=bucket&quantity=50")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/v1/volume?quantity=50")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	api := &stubAPI{markedDown: true}
	s := newTestServer(api)

	rec := doRequest(t, s, http.MethodPost, "/v1/admin/cache/clear")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, api.cacheCleared)

	rec = doRequest(t, s, http.MethodPost, "/v1/admin/health/reset")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, api.healthReset)

	rec = doRequest(t, s, http.MethodGet, "/v1/admin/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		SoilgridsDown bool           `json:"soilgridsDown"`
		Cache         soil.CacheInfo `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.SoilgridsDown)
	assert.Equal(t, 3, body.Cache.Entries)
}

func TestAdminEndpoints_MethodNotAllowed(t *testing.T) {
	s := newTestServer(&stubAPI{})

	rec := doRequest(t, s, http.MethodGet, "/v1/admin/cache/clear")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&stubAPI{})

	rec := doRequest(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = doRequest(t, s, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}
