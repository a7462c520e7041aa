package wind

import "math"

// Speed returns the magnitude of a wind vector. NaN components propagate.
func Speed(u, v float64) float64 {
	return math.Hypot(u, v)
}

// MathBearing returns the signed mathematical bearing atan2(v, u) in degrees,
// in (-180, 180]. This is NOT compass convention; use CompassBearing for the
// 0°=north, clockwise-positive reading.
func MathBearing(u, v float64) float64 {
	return math.Atan2(v, u) * 180 / math.Pi
}

// CompassBearing returns the direction a (u east, v north) vector points in
// compass convention: 0° = north, clockwise positive, in [0, 360). Exact-zero
// components resolve to the cardinal directions; the origin is undefined and
// returns NaN.
func CompassBearing(u, v float64) float64 {
	switch {
	case u == 0 && v == 0:
		return math.NaN()
	case u == 0 && v > 0:
		return 0
	case u > 0 && v == 0:
		return 90
	case u == 0 && v < 0:
		return 180
	case u < 0 && v == 0:
		return 270
	}
	deg := math.Atan2(u, v) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Apparent solves the apparent-wind triangle for a vessel moving at
// (shipU, shipV) in a true wind of (windU, windV), all m/s east/north.
// It returns the apparent-wind vector, its speed, and the sail-relative
// angle in radians: pi minus the angle between the ship's velocity and the
// apparent wind. Degenerate inputs (a stationary ship or zero apparent wind)
// yield a NaN angle.
func Apparent(shipU, shipV, windU, windV float64) (appU, appV, appSpeed, sailAngle float64) {
	appU = -(shipU + windU)
	appV = -(shipV + windV)
	appSpeed = math.Hypot(appU, appV)

	shipSpeed := math.Hypot(shipU, shipV)
	if shipSpeed == 0 || appSpeed == 0 {
		return appU, appV, appSpeed, math.NaN()
	}

	cosTheta := (shipU*appU + shipV*appV) / (shipSpeed * appSpeed)
	cosTheta = math.Max(-1, math.Min(1, cosTheta))
	sailAngle = math.Pi - math.Acos(cosTheta)
	return appU, appV, appSpeed, sailAngle
}
