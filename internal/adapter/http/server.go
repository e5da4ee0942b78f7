// Package http exposes the soil-intelligence API consumed by the mobile
// onboarding flow, plus health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quietcreek/soil-intel-service/internal/domain"
	"github.com/quietcreek/soil-intel-service/internal/soil"
)

// defaultRootDepthCm applies when a detection request omits root depth.
const defaultRootDepthCm = 50

// SoilAPI is the service surface the HTTP layer needs.
type SoilAPI interface {
	DetectSoilFromLocation(ctx context.Context, lat, lon, rootDepthCm float64) domain.SoilGridsResult
	CalculateSlope(ctx context.Context, lat, lon float64) domain.SlopeResult
	ClearCache()
	ResetAPIStatus()
	IsAPIMarkedDown() bool
	GetCacheInfo() soil.CacheInfo
}

// Server exposes the soil API, health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	api        SoilAPI
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, api SoilAPI, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /v1/soil", s.handleDetectSoil)
	mux.HandleFunc("GET /v1/slope", s.handleSlope)
	mux.HandleFunc("GET /v1/texture", s.handleTexture)
	mux.HandleFunc("GET /v1/timing", s.handleTiming)
	mux.HandleFunc("GET /v1/volume", s.handleVolume)

	mux.HandleFunc("POST /v1/admin/cache/clear", s.handleCacheClear)
	mux.HandleFunc("POST /v1/admin/health/reset", s.handleHealthReset)
	mux.HandleFunc("GET /v1/admin/status", s.handleStatus)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleDetectSoil(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordParams(w, r)
	if !ok {
		return
	}
	depth := floatParam(r, "root_depth_cm", defaultRootDepthCm)

	result := s.api.DetectSoilFromLocation(r.Context(), lat, lon, depth)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSlope(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.api.CalculateSlope(r.Context(), lat, lon))
}

func (s *Server) handleTexture(w http.ResponseWriter, r *http.Request) {
	clay := floatParam(r, "clay", 0)
	sand := floatParam(r, "sand", 0)
	silt := floatParam(r, "silt", 0)

	tc := domain.ClassifyTexture(clay, sand, silt)
	writeJSON(w, http.StatusOK, map[string]any{
		"textureClass": tc,
		"displayName":  tc.DisplayName(),
		"parameters":   domain.EstimateSoilParameters(clay, sand, silt),
	})
}

func (s *Server) handleTiming(w http.ResponseWriter, r *http.Request) {
	infiltration := floatParam(r, "infiltration_mm_h", 0)
	slope := floatParam(r, "slope_percent", 0)

	writeJSON(w, http.StatusOK, map[string]any{
		"cycleSoakRecommended": domain.ShouldEnableCycleSoak(infiltration, slope),
		"timing":               domain.CalculateCycleSoakTiming(infiltration, slope),
	})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	mode := domain.VolumeMode(r.URL.Query().Get("mode"))
	if mode != domain.VolumeModeArea && mode != domain.VolumeModePlant {
		writeError(w, http.StatusBadRequest, "mode must be 'area' or 'plant'")
		return
	}
	quantity := floatParam(r, "quantity", 0)
	awc := floatParam(r, "available_water_mm_m", 0)
	slope := floatParam(r, "slope_percent", 0)

	writeJSON(w, http.StatusOK, map[string]any{
		"maxVolumeLiters": domain.RecommendedMaxVolume(mode, quantity, awc, slope),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.api.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cache cleared"})
}

func (s *Server) handleHealthReset(w http.ResponseWriter, _ *http.Request) {
	s.api.ResetAPIStatus()
	writeJSON(w, http.StatusOK, map[string]string{"status": "api status reset"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"soilgridsDown": s.api.IsAPIMarkedDown(),
		"cache":         s.api.GetCacheInfo(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readiness matches liveness: the service degrades internally (cache,
// raster fallback, loam default) rather than refusing traffic.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// coordParams parses and validates lat/lon, writing a 400 on failure.
func coordParams(w http.ResponseWriter, r *http.Request) (lat, lon float64, ok bool) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required numbers")
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "lat/lon out of range")
		return 0, 0, false
	}
	return lat, lon, true
}

func floatParam(r *http.Request, name string, def float64) float64 {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
