// Package soilgrids fetches clay/sand/silt profiles from the ISRIC
// SoilGrids service over two independent wire formats: the JSON properties
// REST API (primary) and per-property WCS GeoTIFF coverages (fallback).
package soilgrids

import (
	"fmt"
	"net/http"
)

// The six fixed SoilGrids depth bands, shared by both wire formats.
type depthBand struct {
	Label    string
	TopCm    float64
	BottomCm float64
}

var depthBands = []depthBand{
	{"0-5cm", 0, 5},
	{"5-15cm", 5, 15},
	{"15-30cm", 15, 30},
	{"30-60cm", 30, 60},
	{"60-100cm", 60, 100},
	{"100-200cm", 100, 200},
}

var properties = []string{"clay", "sand", "silt"}

// StatusError is a fetch failure that carries the upstream HTTP status, so
// the circuit breaker can classify it.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("soilgrids: upstream status %d", e.Status)
}

// HTTPStatus implements the status interface consumed by the health tracker.
func (e *StatusError) HTTPStatus() int { return e.Status }

// retryableStatus reports whether a response status is worth retrying.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
