// Package solar approximates the apparent position of the sun for a single
// calendar day using the low-precision ephemeris published by the U.S.
// Naval Observatory. It is accurate to roughly a minute of time between
// 1950 and 2050, which is ample for prayer-time work.
//
// All hours returned by this package are universal time (UT). Use
// Position.Local to express them in the observer's longitude mean time.
package solar

import (
	"math"
	"time"
)

// J2000 is the Julian day of the J2000.0 epoch.
const J2000 = 2451545.0

// HorizonElevation is the apparent elevation of the sun's centre at
// sunrise and sunset in degrees. It folds in atmospheric refraction and
// the radius of the solar disk.
const HorizonElevation = -0.833

// Date is a calendar date with no associated time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight of the date in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time(time.UTC).Format(time.DateOnly)
}

// JulianDay returns the Julian day number of the date, i.e. the Julian
// date at noon UT. It uses the civil-to-Julian conversion with the
// Gregorian leap-year corrections.
func JulianDay(d Date) float64 {
	month := int(d.Month)
	a := (14 - month) / 12
	y := d.Year + 4800 - a
	m := month + 12*a - 3
	jdn := d.Day + (153*m+2)/5 + 365*y + floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) - 32045
	return float64(jdn)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Position is the solar data for one calendar day at one place.
type Position struct {
	// Sunrise, Noon and Sunset are fractional hours in UT. They may lie
	// outside [0,24) and are NaN when the sun does not cross the horizon.
	Sunrise float64
	Noon    float64
	Sunset  float64
	// Declination is the apparent solar declination in radians.
	Declination float64
	// EquationOfTime is apparent minus mean solar time, in hours.
	EquationOfTime float64

	Latitude  float64
	Longitude float64
}

// Compute returns the solar position for date as seen from the given
// latitude and longitude in degrees. Inputs are not validated.
func Compute(date Date, latitude, longitude float64) Position {
	d := JulianDay(date) - J2000

	g := normalizeDegrees(357.529 + 0.98560028*d)
	q := normalizeDegrees(280.459 + 0.98564736*d)
	l := q + 1.915*sinDeg(g) + 0.020*sinDeg(2*g)
	e := 23.439 - 0.00000036*d

	decl := math.Asin(sinDeg(e) * sinDeg(l))
	ra := radToDeg(math.Atan2(cosDeg(e)*sinDeg(l), cosDeg(l))) / 15
	eqt := wrapHours(q/15 - ra)

	noon := 12 - eqt - longitude/15
	h := HourAngle(decl, latitude, HorizonElevation) / 15

	return Position{
		Sunrise:        noon - h,
		Noon:           noon,
		Sunset:         noon + h,
		Declination:    decl,
		EquationOfTime: eqt,
		Latitude:       latitude,
		Longitude:      longitude,
	}
}

// HourAngle returns, in degrees, the angle between solar noon and the
// moment the sun reaches the given elevation (degrees, negative below the
// horizon) for a declination in radians and a latitude in degrees. The
// result is NaN when the sun never reaches that elevation on this day.
func HourAngle(declination, latitude, elevation float64) float64 {
	phi := degToRad(latitude)
	cosH := (sinDeg(elevation) - math.Sin(declination)*math.Sin(phi)) /
		(math.Cos(declination) * math.Cos(phi))
	return radToDeg(math.Acos(cosH))
}

// MeanTimeOffset returns the offset in hours between UT and the
// longitude mean time of the position.
func (p Position) MeanTimeOffset() float64 {
	return p.Longitude / 15
}

// Local converts an hour in UT to the observer's longitude mean time.
func (p Position) Local(ut float64) float64 {
	return ut + p.MeanTimeOffset()
}

// Normalize reduces hours into [0,24). Non-finite input yields NaN.
func Normalize(hours float64) float64 {
	h := math.Mod(hours, 24)
	if h < 0 {
		h += 24
	}
	return h
}

// wrapHours reduces an hour difference into [-12,12).
func wrapHours(h float64) float64 {
	return Normalize(h+12) - 12
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
func sinDeg(d float64) float64   { return math.Sin(degToRad(d)) }
func cosDeg(d float64) float64   { return math.Cos(degToRad(d)) }
