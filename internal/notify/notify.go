// Package notify works out when prayer reminders should fire. Delivering
// them is left to the caller.
package notify

import (
	"sort"
	"time"

	"github.com/revert-companion/prayer-times/internal/prayer"
)

// Preferences control reminders.
type Preferences struct {
	Enabled       bool `json:"enabled"`
	BeforeMinutes int  `json:"before_minutes"`
	Sound         bool `json:"sound"`
}

// Reminder is one scheduled notification.
type Reminder struct {
	Prayer   string    `json:"prayer"`
	PrayerAt time.Time `json:"prayer_at"`
	At       time.Time `json:"at"`
	Sound    bool      `json:"sound"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
}

// Schedule returns a reminder for each obligatory prayer in prayers, fired
// BeforeMinutes ahead of it. A reminder whose time has already passed is
// moved to the same clock time tomorrow. Results are ordered by firing
// time; disabled preferences yield none.
func Schedule(prayers []prayer.Prayer, now time.Time, prefs Preferences) []Reminder {
	if !prefs.Enabled {
		return nil
	}
	lead := time.Duration(max(prefs.BeforeMinutes, 0)) * time.Minute

	var out []Reminder
	for _, p := range prayers {
		if !prayer.IsObligatory(p.Name) {
			continue
		}
		at := p.Time.Add(-lead)
		prayerAt := p.Time
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
			prayerAt = prayerAt.AddDate(0, 0, 1)
		}
		out = append(out, Reminder{
			Prayer:   p.Name,
			PrayerAt: prayerAt,
			At:       at,
			Sound:    prefs.Sound,
			Title:    p.Name + " prayer",
			Body:     body(p.Name, prefs.BeforeMinutes),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func body(name string, minutes int) string {
	if minutes <= 0 {
		return "It's time for " + name + "."
	}
	return name + " in " + prayer.FormatRemaining(time.Duration(minutes)*time.Minute) + "."
}

// Next returns the first reminder due after now, or nil.
func Next(reminders []Reminder, now time.Time) *Reminder {
	for i := range reminders {
		if reminders[i].At.After(now) {
			return &reminders[i]
		}
	}
	return nil
}
