package prayer

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/solar"
)

// Prayer represents a single prayer with its name and time.
type Prayer struct {
	Name string
	Time time.Time
}

// AllPrayerNames lists every time the calculator produces, in chronological order.
var AllPrayerNames = []string{
	"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha",
}

// DefaultPrayerNames are the prayers tracked by default.
var DefaultPrayerNames = AllPrayerNames

// Obligatory are the five daily prayers. Sunrise ends the Fajr window but
// is not itself a prayer.
var Obligatory = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// ShortNames maps full prayer names to single-character abbreviations.
var ShortNames = map[string]string{
	"Fajr":    "F",
	"Sunrise": "S",
	"Dhuhr":   "D",
	"Asr":     "A",
	"Maghrib": "M",
	"Isha":    "I",
}

// IsObligatory reports whether name is one of the five daily prayers.
func IsObligatory(name string) bool {
	for _, n := range Obligatory {
		if n == name {
			return true
		}
	}
	return false
}

// Clock returns the location the times of a calculation are expressed in:
// the configured zone, or the longitude mean time of loc.
func (o Options) Clock(loc geo.Coordinates) *time.Location {
	if o.Zone != nil {
		return o.Zone
	}
	return MeanTime(loc.Longitude)
}

// Prayers converts computed times into Prayer values on the clock of loc.
// Undefined times are omitted.
func (t Times) Prayers(loc *time.Location, selected []string) ([]Prayer, error) {
	hours := map[string]float64{
		"Fajr":    t.Fajr,
		"Sunrise": t.Sunrise,
		"Dhuhr":   t.Dhuhr,
		"Asr":     t.Asr,
		"Maghrib": t.Maghrib,
		"Isha":    t.Isha,
	}

	var prayers []Prayer
	for _, name := range selected {
		h, ok := hours[name]
		if !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", name)
		}
		if FormatClock(h) == Undefined {
			continue
		}
		minutes := int(math.Round(h * 60))
		prayers = append(prayers, Prayer{
			Name: name,
			Time: time.Date(t.Date.Year, t.Date.Month, t.Date.Day, 0, minutes, 0, 0, loc),
		})
	}
	return prayers, nil
}

// ParseTimes converts formatted times into a slice of Prayer structs for
// the given date, keeping only the selected names. Undefined times are
// omitted.
func ParseTimes(times PrayerTimes, date solar.Date, loc *time.Location, selected []string) ([]Prayer, error) {
	var prayers []Prayer
	for _, name := range selected {
		raw, ok := times.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", name)
		}
		if raw == Undefined {
			continue
		}

		t, err := parseTimeStr(raw, date, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", name, raw, err)
		}

		prayers = append(prayers, Prayer{Name: name, Time: t})
	}

	return prayers, nil
}

// NextPrayer finds the next upcoming prayer from the given slice, relative to now.
// If all prayers for today have passed, it returns nil.
func NextPrayer(prayers []Prayer, now time.Time) *Prayer {
	for i := range prayers {
		if prayers[i].Time.After(now) {
			return &prayers[i]
		}
	}
	return nil
}

// CurrentPrayer returns the latest prayer whose time is not after now, or
// nil before the first one.
func CurrentPrayer(prayers []Prayer, now time.Time) *Prayer {
	var cur *Prayer
	for i := range prayers {
		if prayers[i].Time.After(now) {
			break
		}
		cur = &prayers[i]
	}
	return cur
}

// ErrNoUpcoming is returned by Upcoming when none of the selected times
// is defined from yesterday to tomorrow, as happens near the poles.
var ErrNoUpcoming = errors.New("no upcoming prayer")

// Upcoming returns the first selected prayer after now at loc. Once the
// day's last prayer has passed it returns the first prayer of the next
// day. The previous day is searched too, since its Isha can fall after
// midnight.
func Upcoming(now time.Time, loc geo.Coordinates, method Method, opts Options, selected []string) (Prayer, error) {
	clock := opts.Clock(loc)
	today := solar.DateOf(now.In(clock))

	var best *Prayer
	for _, date := range []solar.Date{today.AddDays(-1), today, today.AddDays(1)} {
		prayers, err := Compute(date, loc, method, opts).Prayers(clock, selected)
		if err != nil {
			return Prayer{}, err
		}
		if next := NextPrayer(prayers, now); next != nil && (best == nil || next.Time.Before(best.Time)) {
			best = next
		}
	}
	if best == nil {
		return Prayer{}, ErrNoUpcoming
	}
	return *best, nil
}

// TimeRemaining returns the duration until the given prayer time.
func TimeRemaining(prayer Prayer, now time.Time) time.Duration {
	return prayer.Time.Sub(now)
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// parseTimeStr parses a time string like "15:02" or "15:02 (BST)" into a time.Time
// on the given date in the given location.
func parseTimeStr(raw string, date solar.Date, loc *time.Location) (time.Time, error) {
	// Strip a zone suffix like " (BST)".
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}

	return time.Date(date.Year, date.Month, date.Day, hour, min, 0, 0, loc), nil
}
