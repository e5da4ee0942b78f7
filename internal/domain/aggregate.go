package domain

import "math"

// Root depth bounds in centimeters. Requests outside this window are
// clamped before aggregation.
const (
	MinRootDepthCm = 5
	MaxRootDepthCm = 200
)

// Neutral composition returned when a profile has no usable layers.
const (
	neutralClay = 20
	neutralSand = 40
	neutralSilt = 40
)

// ClampRootDepth bounds a requested root depth to [5,200] cm.
func ClampRootDepth(depthCm float64) float64 {
	return clampF(depthCm, MinRootDepthCm, MaxRootDepthCm)
}

// AggregateProfile reduces a multi-depth profile to a single clay/sand/silt
// composition by thickness-weighting each layer's overlap with the window
// [0, rootDepthCm]. An empty or non-overlapping profile yields the neutral
// loam composition instead of dividing by zero.
func AggregateProfile(p SoilProfile, rootDepthCm float64) (clay, sand, silt float64) {
	d := ClampRootDepth(rootDepthCm)
	clay = weightedMean(p.Clay, d, neutralClay)
	sand = weightedMean(p.Sand, d, neutralSand)
	silt = weightedMean(p.Silt, d, neutralSilt)
	return clay, sand, silt
}

func weightedMean(layers []SoilLayerValue, depth, fallback float64) float64 {
	var sum, weight float64
	for _, l := range layers {
		overlap := math.Min(depth, l.BottomDepthCm) - l.TopDepthCm
		if overlap <= 0 {
			continue
		}
		sum += l.ValuePercent * overlap
		weight += overlap
	}
	if weight <= 0 {
		return fallback
	}
	return sum / weight
}

// ConfidenceFromComposition grades a composition by how far the three
// percentages drift from a 100% total. SoilGrids layers should sum to
// roughly 100; larger deviations indicate patchy coverage.
func ConfidenceFromComposition(clay, sand, silt float64) Confidence {
	dev := math.Abs(clay + sand + silt - 100)
	switch {
	case dev <= 5:
		return ConfidenceHigh
	case dev <= 15:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
