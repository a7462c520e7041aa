// Package geo converts short east/north metric offsets to latitude/longitude
// deltas and back on a spherical Earth. This is a local-tangent-plane
// approximation: valid only for displacements small relative to the Earth's
// radius, and unstable near the poles where cos(lat) approaches zero.
package geo

import "math"

// EarthRadius is the fixed spherical Earth radius in meters.
const EarthRadius = 6371000.0

// Displace returns the position reached from (lat, lon) after moving dxEast
// meters east and dyNorth meters north.
func Displace(lat, lon, dxEast, dyNorth float64) (float64, float64) {
	dlat := dyNorth / EarthRadius
	dlon := dxEast / (EarthRadius * math.Cos(lat*math.Pi/180))

	return lat + dlat*180/math.Pi, lon + dlon*180/math.Pi
}

// Offsets is the inverse of Displace: the east/north displacement in meters
// from (lat1, lon1) to (lat2, lon2), scaled at the start latitude.
func Offsets(lat1, lon1, lat2, lon2 float64) (dxEast, dyNorth float64) {
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	dyNorth = dlat * EarthRadius
	dxEast = dlon * EarthRadius * math.Cos(lat1*math.Pi/180)
	return dxEast, dyNorth
}
