package domain

import "math"

// VolumeMode selects how RecommendedMaxVolume interprets its quantity.
type VolumeMode string

const (
	VolumeModeArea  VolumeMode = "area"  // quantity is coverage in m²
	VolumeModePlant VolumeMode = "plant" // quantity is a plant count
)

// CycleSoakTiming is a watering cycle length and the soak pause between
// cycles, both in minutes.
type CycleSoakTiming struct {
	CycleMinutes int `json:"cycleMinutes"`
	SoakMinutes  int `json:"soakMinutes"`
}

// ShouldEnableCycleSoak reports whether cycle/soak watering is advisable
// for the given infiltration rate (mm/h) and slope (%). Slow soils and
// steep terrain both cause runoff during a continuous cycle.
func ShouldEnableCycleSoak(infiltrationMmH, slopePercent float64) bool {
	return infiltrationMmH < 10 ||
		slopePercent > 3 ||
		(infiltrationMmH < 15 && slopePercent > 2)
}

// CalculateCycleSoakTiming picks base cycle/soak minutes from a five-band
// infiltration table and then adjusts for slope: steeper ground gets
// shorter cycles and longer soaks.
func CalculateCycleSoakTiming(infiltrationMmH, slopePercent float64) CycleSoakTiming {
	var cycle, soak float64
	switch {
	case infiltrationMmH <= 3:
		cycle, soak = 3, 20
	case infiltrationMmH <= 6:
		cycle, soak = 5, 15
	case infiltrationMmH <= 10:
		cycle, soak = 8, 10
	case infiltrationMmH <= 20:
		cycle, soak = 10, 8
	default:
		cycle, soak = 15, 5
	}

	switch {
	case slopePercent > 5:
		cycle = math.Max(2, math.Round(cycle*0.6))
		soak = math.Round(soak * 1.5)
	case slopePercent > 3:
		cycle = math.Round(cycle * 0.8)
		soak = math.Round(soak * 1.25)
	case slopePercent > 1:
		soak = math.Round(soak * 1.1)
	}

	return CycleSoakTiming{CycleMinutes: int(cycle), SoakMinutes: int(soak)}
}

// RecommendedMaxVolume derives the maximum safe application volume in
// liters. Area mode sizes from available water capacity over a 0.3 m root
// zone at 50% management-allowed depletion; plant mode allots 2 L per
// plant. Slopes above 3%/5% reduce the volume, and the result is clamped
// to [5,500] L.
func RecommendedMaxVolume(mode VolumeMode, quantity, availableWaterMmM, slopePercent float64) float64 {
	var liters float64
	switch mode {
	case VolumeModePlant:
		liters = quantity * 2
	default:
		liters = quantity * availableWaterMmM * 0.3 * 0.5 / 1000
	}

	switch {
	case slopePercent > 5:
		liters *= 0.6
	case slopePercent > 3:
		liters *= 0.8
	}

	return clampF(math.Round(liters), 5, 500)
}
