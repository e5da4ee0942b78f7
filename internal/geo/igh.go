// Package geo holds the map-projection and distance math used to query and
// cache gridded soil data.
package geo

import "math"

// Sphere radii in meters. The soil raster grid is published on the IGH
// sphere; cache distances use the conventional mean Earth radius.
const (
	ighRadius   = 6371007.181
	earthRadius = 6371000.0
)

// Latitude (radians) where the Goode homolosine switches from sinusoidal to
// Mollweide, 40°44'11.8", and the Y offset that makes the two meet there.
const (
	ighPhiLim = 0.71093078197902358062
	ighYCor   = 0.05280354290727
)

// ighCentralMeridian returns the central meridian (radians) of the lobe
// containing the point. The interrupted projection splits the globe into
// two northern and four southern lobes.
func ighCentralMeridian(lonRad, latRad float64) float64 {
	const d = math.Pi / 180
	if latRad >= 0 {
		if lonRad < -40*d {
			return -100 * d
		}
		return 30 * d
	}
	switch {
	case lonRad < -100*d:
		return -160 * d
	case lonRad < -20*d:
		return -60 * d
	case lonRad < 80*d:
		return 20 * d
	default:
		return 140 * d
	}
}

// ProjectIGH converts geographic coordinates (degrees) to Interrupted Goode
// Homolosine meters. Y is north-positive, matching the soil raster grid, so
// the result can be used directly in subset windows.
func ProjectIGH(lon, lat float64) (x, y float64) {
	lam := lon * math.Pi / 180
	phi := lat * math.Pi / 180
	lam0 := ighCentralMeridian(lam, phi)

	if math.Abs(phi) <= ighPhiLim {
		// Sinusoidal core.
		x = ighRadius * ((lam-lam0)*math.Cos(phi) + lam0)
		y = ighRadius * phi
		return x, y
	}

	// Mollweide caps: solve 2θ + sin 2θ = π sin φ by Newton iteration.
	theta := phi
	if math.Abs(phi) < math.Pi/2 {
		target := math.Pi * math.Sin(phi)
		for i := 0; i < 50; i++ {
			delta := (2*theta + math.Sin(2*theta) - target) / (2 + 2*math.Cos(2*theta))
			theta -= delta
			if math.Abs(delta) < 1e-10 {
				break
			}
		}
	} else {
		theta = math.Copysign(math.Pi/2, phi)
	}

	x = ighRadius * (lam0 + (lam-lam0)*(2*math.Sqrt2/math.Pi)*math.Cos(theta))
	y = ighRadius * (math.Sqrt2*math.Sin(theta) - math.Copysign(ighYCor, phi))
	return x, y
}
