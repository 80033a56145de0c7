// Package qibla computes the direction of and distance to the Kaaba.
package qibla

import (
	"math"

	"github.com/revert-companion/prayer-times/internal/geo"
)

// EarthRadiusKm is the mean radius of the earth used for distances.
const EarthRadiusKm = 6371.0

// Bearing returns the initial great-circle bearing from loc to the Kaaba
// in degrees clockwise from true north, in [0,360).
func Bearing(loc geo.Coordinates) float64 {
	return bearing(loc, geo.Kaaba)
}

func bearing(from, to geo.Coordinates) float64 {
	phi1 := radians(from.Latitude)
	phi2 := radians(to.Latitude)
	dLambda := radians(to.Longitude - from.Longitude)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	b := math.Mod(degrees(math.Atan2(y, x))+360, 360)
	if b >= 360 {
		b = 0
	}
	return b
}

// Distance returns the great-circle distance from loc to the Kaaba in km,
// using the haversine formula.
func Distance(loc geo.Coordinates) float64 {
	return Haversine(loc, geo.Kaaba)
}

// DistanceKm is Distance rounded to whole kilometres for display.
func DistanceKm(loc geo.Coordinates) int {
	return int(math.Round(Distance(loc)))
}

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b geo.Coordinates) float64 {
	dPhi := radians(b.Latitude - a.Latitude)
	dLambda := radians(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Relative returns how far to turn from a device heading to face the
// qibla bearing, both in degrees from north. The result is in [0,360).
func Relative(bearing, heading float64) float64 {
	r := math.Mod(bearing-heading, 360)
	if r < 0 {
		r += 360
	}
	return r
}

var points = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Cardinal returns the 16-point compass label nearest to bearing.
func Cardinal(bearing float64) string {
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	return points[int(math.Round(b/22.5))%len(points)]
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
