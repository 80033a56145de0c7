package api

import (
	"fmt"

	"github.com/revert-companion/prayer-times/internal/prayer"
)

// Diff is the difference between a local and a remote time.
type Diff struct {
	Name    string `json:"name"`
	Local   string `json:"local"`
	Remote  string `json:"remote"`
	Minutes int    `json:"minutes"` // local minus remote
	OK      bool   `json:"ok"`      // within tolerance
}

// Compare lines up local and remote timetables. Times within tolerance
// minutes of each other are OK; an undefined or unparseable time on either
// side never is.
func Compare(local, remote prayer.PrayerTimes, tolerance int) []Diff {
	diffs := make([]Diff, 0, len(prayer.AllPrayerNames))
	for _, name := range prayer.AllPrayerNames {
		l, _ := local.Get(name)
		r, _ := remote.Get(name)
		d := Diff{Name: name, Local: l, Remote: r}

		lm, lerr := minutes(l)
		rm, rerr := minutes(r)
		if lerr == nil && rerr == nil {
			d.Minutes = lm - rm
			// Times either side of midnight, e.g. Isha at 23:58 vs 00:01.
			if d.Minutes > 720 {
				d.Minutes -= 1440
			} else if d.Minutes < -720 {
				d.Minutes += 1440
			}
			d.OK = abs(d.Minutes) <= tolerance
		}
		diffs = append(diffs, d)
	}
	return diffs
}

// Agree reports whether every diff is within tolerance.
func Agree(diffs []Diff) bool {
	for _, d := range diffs {
		if !d.OK {
			return false
		}
	}
	return true
}

func minutes(hhmm string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return h*60 + m, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
