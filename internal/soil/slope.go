package soil

import (
	"context"
	"math"

	"github.com/quietcreek/soil-intel-service/internal/domain"
)

// Slope sampling geometry: one center point plus four neighbors offset
// 50 m north, south, east, and west.
const (
	slopeSampleMeters = 50.0
	metersPerDegree   = 111000.0
)

// CalculateSlope estimates terrain slope by sampling five elevations in one
// batched call and taking the steepest directional gradient. Averaging the
// directions would understate run-off risk on one-sided slopes. A missing
// center elevation yields slope 0 with low confidence.
func (s *Service) CalculateSlope(ctx context.Context, lat, lon float64) domain.SlopeResult {
	dLat := slopeSampleMeters / metersPerDegree
	cosLat := math.Cos(lat * math.Pi / 180)
	if math.Abs(cosLat) < 1e-6 {
		cosLat = 1e-6
	}
	dLon := slopeSampleMeters / (metersPerDegree * cosLat)

	coords := []Coordinate{
		{lat, lon},
		{lat + dLat, lon}, // north
		{lat - dLat, lon}, // south
		{lat, lon + dLon}, // east
		{lat, lon - dLon}, // west
	}

	elevations, err := s.elevation.Elevations(ctx, coords)
	if err != nil || len(elevations) == 0 || elevations[0] == nil {
		if err != nil {
			s.logger.Warn("elevation lookup failed", "error", err)
		}
		s.metrics.SlopeRequests.WithLabelValues("degraded").Inc()
		return domain.SlopeResult{SlopePercent: 0, ElevationMeters: 0, Confidence: domain.ConfidenceLow}
	}

	center := *elevations[0]
	var maxSlope float64
	neighbors := 0
	for _, e := range elevations[1:] {
		if e == nil {
			continue
		}
		neighbors++
		slope := math.Abs(*e-center) / slopeSampleMeters * 100
		if slope > maxSlope {
			maxSlope = slope
		}
	}

	confidence := domain.ConfidenceLow
	switch {
	case neighbors >= 4:
		confidence = domain.ConfidenceHigh
	case neighbors >= 2:
		confidence = domain.ConfidenceMedium
	}

	s.metrics.SlopeRequests.WithLabelValues("ok").Inc()
	return domain.SlopeResult{
		SlopePercent:    maxSlope,
		ElevationMeters: center,
		Confidence:      confidence,
	}
}
