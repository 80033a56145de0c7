package prayer

import (
	"fmt"
	"math"
	"time"

	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/solar"
)

// Undefined is printed in place of a time the sun never reaches on that
// day, e.g. Isha during the midsummer weeks at high latitudes.
const Undefined = "--:--"

// PrayerTimes holds the six daily times as 24-hour "HH:MM" strings.
type PrayerTimes struct {
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

// Get returns the time for a prayer name, e.g. "Asr".
func (pt PrayerTimes) Get(name string) (string, bool) {
	switch name {
	case "Fajr":
		return pt.Fajr, true
	case "Sunrise":
		return pt.Sunrise, true
	case "Dhuhr":
		return pt.Dhuhr, true
	case "Asr":
		return pt.Asr, true
	case "Maghrib":
		return pt.Maghrib, true
	case "Isha":
		return pt.Isha, true
	}
	return "", false
}

// Options adjust a calculation beyond the method table.
type Options struct {
	// Madhab selects the Asr shadow ratio. The zero value is Shafi.
	Madhab Madhab
	// Zone, when set, expresses the times on that zone's civil clock
	// (including daylight saving) instead of longitude mean time.
	Zone *time.Location
}

// Times are the prayer times of one day as fractional hours of the day.
// Values are not reduced modulo 24 and are NaN where undefined.
type Times struct {
	Date    solar.Date
	Fajr    float64
	Sunrise float64
	Dhuhr   float64
	Asr     float64
	Maghrib float64
	Isha    float64
}

// Calculate returns the prayer times for date at loc using method, with
// the Shafi Asr and the times in longitude mean time.
func Calculate(date solar.Date, loc geo.Coordinates, method Method) PrayerTimes {
	return Compute(date, loc, method, Options{}).Format()
}

// Compute returns the prayer times as fractional hours. It never fails:
// at latitudes where the sun does not reach a required depression the
// affected times are NaN.
//
// With a zone set, the times are those of the solar day whose Dhuhr falls
// on date in that zone, which for zones far from the longitude's mean
// time is the neighbouring UT date.
func Compute(date solar.Date, loc geo.Coordinates, method Method, opts Options) Times {
	t := compute(date, loc, method, opts)
	if opts.Zone == nil {
		return t
	}
	days := int(math.Floor(t.Dhuhr / 24))
	if days == 0 {
		return t
	}
	t = compute(date.AddDays(-days), loc, method, opts).
		shift(func(float64) float64 { return float64(-24 * days) })
	t.Date = date
	return t
}

func compute(date solar.Date, loc geo.Coordinates, method Method, opts Options) Times {
	pos := solar.Compute(date, loc.Latitude, loc.Longitude)
	params := method.Params()
	decl := pos.Declination

	ut := Times{
		Date:    date,
		Fajr:    pos.Noon - solar.HourAngle(decl, loc.Latitude, -params.FajrAngle)/15,
		Sunrise: pos.Sunrise,
		Dhuhr:   pos.Noon,
		Asr:     pos.Noon + solar.HourAngle(decl, loc.Latitude, asrElevation(opts.Madhab.ShadowRatio(), loc.Latitude, decl))/15,
		Maghrib: pos.Sunset,
	}
	if params.IshaInterval > 0 {
		ut.Isha = pos.Sunset + params.IshaInterval.Hours()
	} else {
		ut.Isha = pos.Noon + solar.HourAngle(decl, loc.Latitude, -params.IshaAngle)/15
	}

	if opts.Zone == nil {
		return ut.shift(func(float64) float64 { return pos.MeanTimeOffset() })
	}
	return ut.shift(func(h float64) float64 { return zoneOffset(date, h, opts.Zone) })
}

// asrElevation returns the solar elevation in degrees at which an
// object's shadow is ratio times its height plus its noon shadow.
func asrElevation(ratio, latitude, declination float64) float64 {
	noonZenith := math.Abs(latitude*math.Pi/180 - declination)
	return math.Atan(1/(ratio+math.Tan(noonZenith))) * 180 / math.Pi
}

func (t Times) shift(offset func(ut float64) float64) Times {
	apply := func(h float64) float64 { return h + offset(h) }
	return Times{
		Date:    t.Date,
		Fajr:    apply(t.Fajr),
		Sunrise: apply(t.Sunrise),
		Dhuhr:   apply(t.Dhuhr),
		Asr:     apply(t.Asr),
		Maghrib: apply(t.Maghrib),
		Isha:    apply(t.Isha),
	}
}

// zoneOffset returns the UTC offset in hours of zone at ut hours after
// midnight UTC on date. Undefined instants use the offset at noon.
func zoneOffset(date solar.Date, ut float64, zone *time.Location) float64 {
	if math.IsNaN(ut) || math.IsInf(ut, 0) {
		ut = 12
	}
	instant := date.Time(time.UTC).Add(time.Duration(ut * float64(time.Hour)))
	_, off := instant.In(zone).Zone()
	return float64(off) / 3600
}

// Format renders every time as "HH:MM".
func (t Times) Format() PrayerTimes {
	return PrayerTimes{
		Fajr:    FormatClock(t.Fajr),
		Sunrise: FormatClock(t.Sunrise),
		Dhuhr:   FormatClock(t.Dhuhr),
		Asr:     FormatClock(t.Asr),
		Maghrib: FormatClock(t.Maghrib),
		Isha:    FormatClock(t.Isha),
	}
}

// FormatClock reduces hours modulo 24 and formats them as a zero-padded
// 24-hour "HH:MM", rounding to the nearest minute. Non-finite hours
// yield Undefined.
func FormatClock(hours float64) string {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return Undefined
	}
	minutes := int(math.Round(solar.Normalize(hours)*60)) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MeanTime returns a fixed zone for the longitude mean time at longitude,
// the clock Calculate reports in.
func MeanTime(longitude float64) *time.Location {
	return time.FixedZone("LMT", int(math.Round(longitude/15*3600)))
}
