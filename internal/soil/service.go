// Package soil orchestrates soil-property detection: spatial caching,
// circuit-breaking across the SoilGrids REST and raster paths, aggregation,
// classification, and the derived irrigation parameters.
package soil

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quietcreek/soil-intel-service/internal/domain"
	"github.com/quietcreek/soil-intel-service/internal/observability"
)

// ProfileFetcher retrieves a multi-depth soil profile for a coordinate.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, lat, lon float64) (domain.SoilProfile, error)
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// ElevationSampler resolves elevations for a batch of points in one call.
// A nil entry means the provider had no data for that point.
type ElevationSampler interface {
	Elevations(ctx context.Context, coords []Coordinate) ([]*float64, error)
}

// DetectionEvent is published to the analytics sink after each detection.
type DetectionEvent struct {
	Lat        float64                `json:"lat"`
	Lon        float64                `json:"lon"`
	Result     domain.SoilGridsResult `json:"result"`
	DetectedAt time.Time              `json:"detectedAt"`
}

// DetectionPublisher forwards completed detections downstream, best-effort.
type DetectionPublisher interface {
	PublishDetection(ctx context.Context, ev DetectionEvent) error
}

// httpStatusError is the shape fetch errors expose so the health tracker
// can classify them without importing the adapter package.
type httpStatusError interface {
	HTTPStatus() int
}

// Service answers soil and slope queries for the onboarding flow. Cache and
// circuit state are process-wide and safe for concurrent detections.
type Service struct {
	primary   ProfileFetcher
	fallback  ProfileFetcher
	elevation ElevationSampler
	cache     *GeoCache
	health    *HealthTracker
	soilDB    domain.SoilDatabase
	publisher DetectionPublisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Options carries the service dependencies. Publisher may be nil.
type Options struct {
	Primary   ProfileFetcher
	Fallback  ProfileFetcher
	Elevation ElevationSampler
	Cache     *GeoCache
	Health    *HealthTracker
	SoilDB    domain.SoilDatabase
	Publisher DetectionPublisher
	Clock     clockwork.Clock
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// NewService wires a Service from its dependencies.
func NewService(opts Options) *Service {
	return &Service{
		primary:   opts.Primary,
		fallback:  opts.Fallback,
		elevation: opts.Elevation,
		cache:     opts.Cache,
		health:    opts.Health,
		soilDB:    opts.SoilDB,
		publisher: opts.Publisher,
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// DetectSoilFromLocation resolves soil composition and texture for a
// coordinate. It never returns an error: when both fetch paths fail it
// degrades to the neutral loam default with low confidence and
// source=fallback. Root depth is clamped to [5,200] cm.
func (s *Service) DetectSoilFromLocation(ctx context.Context, lat, lon, rootDepthCm float64) domain.SoilGridsResult {
	depth := domain.ClampRootDepth(rootDepthCm)

	if profile, ok := s.cache.Find(lat, lon); ok {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		result := s.buildResult(profile, depth, domain.SourceCache)
		s.metrics.Detections.WithLabelValues(string(domain.SourceCache)).Inc()
		// Cache hits are detections too; the sink would undercount
		// repeat onboarding in the same zone otherwise.
		s.publish(ctx, lat, lon, result)
		return result
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	profile, ok := s.fetchProfile(ctx, lat, lon)
	if !ok {
		s.logger.Warn("soil detection degraded to loam fallback", "lat", lat, "lon", lon)
		result := s.fallbackResult(depth)
		s.metrics.Detections.WithLabelValues(string(domain.SourceFallback)).Inc()
		s.publish(ctx, lat, lon, result)
		return result
	}

	s.cache.Add(lat, lon, profile)
	result := s.buildResult(profile, depth, domain.SourceAPI)
	s.metrics.Detections.WithLabelValues(string(domain.SourceAPI)).Inc()
	s.publish(ctx, lat, lon, result)
	return result
}

// fetchProfile runs the tiered fetch: REST while the circuit allows it,
// then the raster fallback. Raster failures never touch the REST circuit.
func (s *Service) fetchProfile(ctx context.Context, lat, lon float64) (domain.SoilProfile, bool) {
	if s.health.Allow() {
		profile, err := s.primary.FetchProfile(ctx, lat, lon)
		if err == nil {
			s.health.RecordSuccess()
			return profile, true
		}
		s.health.RecordFailure(statusOf(err))
		s.logger.Warn("soilgrids rest fetch failed, trying raster fallback", "error", err)
	} else {
		s.logger.Info("soilgrids circuit open, skipping rest fetch")
	}

	profile, err := s.fallback.FetchProfile(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("raster fallback failed", "error", err)
		return domain.SoilProfile{}, false
	}
	return profile, true
}

func (s *Service) buildResult(profile domain.SoilProfile, depth float64, source domain.Source) domain.SoilGridsResult {
	clay, sand, silt := domain.AggregateProfile(profile, depth)
	tc := domain.ClassifyTexture(clay, sand, silt)

	result := domain.SoilGridsResult{
		Clay:         clay,
		Sand:         sand,
		Silt:         silt,
		TextureClass: tc,
		RootDepthCm:  depth,
		Confidence:   domain.ConfidenceFromComposition(clay, sand, silt),
		Source:       source,
	}
	if ref, ok := s.soilDB.MatchTexture(tc); ok {
		result.MatchedSoilRef = &ref
	}
	return result
}

// fallbackResult is the hard fallback: a neutral loam with low confidence.
func (s *Service) fallbackResult(depth float64) domain.SoilGridsResult {
	result := domain.SoilGridsResult{
		Clay:         20,
		Sand:         40,
		Silt:         40,
		TextureClass: domain.TextureLoam,
		RootDepthCm:  depth,
		Confidence:   domain.ConfidenceLow,
		Source:       domain.SourceFallback,
	}
	if ref, ok := s.soilDB.MatchTexture(domain.TextureLoam); ok {
		result.MatchedSoilRef = &ref
	}
	return result
}

func (s *Service) publish(ctx context.Context, lat, lon float64, result domain.SoilGridsResult) {
	if s.publisher == nil {
		return
	}
	ev := DetectionEvent{Lat: lat, Lon: lon, Result: result, DetectedAt: s.clock.Now().UTC()}
	if err := s.publisher.PublishDetection(ctx, ev); err != nil {
		s.logger.Warn("detection event publish failed", "error", err)
		return
	}
	s.metrics.DetectionEventsPublished.Inc()
}

// ClearCache drops all cached profiles.
func (s *Service) ClearCache() { s.cache.Clear() }

// ResetAPIStatus forces the SoilGrids circuit closed.
func (s *Service) ResetAPIStatus() { s.health.Reset() }

// IsAPIMarkedDown reports whether the SoilGrids circuit is open.
func (s *Service) IsAPIMarkedDown() bool { return s.health.IsDown() }

// GetCacheInfo summarizes the spatial cache.
func (s *Service) GetCacheInfo() CacheInfo { return s.cache.Info() }

func statusOf(err error) int {
	var se httpStatusError
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	return 0
}
