// Package progress tracks which of the five daily prayers were prayed,
// completed lessons, the running streak and the points they earn.
package progress

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/revert-companion/prayer-times/internal/solar"
)

// Points awarded by the tracker.
const (
	PointsPerCompleteDay = 50
	PointsPerLesson      = 25
)

// ErrUnknownPrayer is returned for names other than the five daily prayers.
var ErrUnknownPrayer = errors.New("unknown prayer")

// Day records the five prayers of one date.
type Day struct {
	Fajr    bool `json:"fajr" db:"fajr"`
	Dhuhr   bool `json:"dhuhr" db:"dhuhr"`
	Asr     bool `json:"asr" db:"asr"`
	Maghrib bool `json:"maghrib" db:"maghrib"`
	Isha    bool `json:"isha" db:"isha"`
}

// Complete reports whether all five prayers were prayed.
func (d Day) Complete() bool {
	return d.Fajr && d.Dhuhr && d.Asr && d.Maghrib && d.Isha
}

// Count returns how many of the five were prayed.
func (d Day) Count() int {
	n := 0
	for _, v := range []bool{d.Fajr, d.Dhuhr, d.Asr, d.Maghrib, d.Isha} {
		if v {
			n++
		}
	}
	return n
}

func (d *Day) set(name string, prayed bool) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fajr":
		d.Fajr = prayed
	case "dhuhr":
		d.Dhuhr = prayed
	case "asr":
		d.Asr = prayed
	case "maghrib":
		d.Maghrib = prayed
	case "isha":
		d.Isha = prayed
	default:
		return fmt.Errorf("%w %q: must be one of fajr, dhuhr, asr, maghrib, isha", ErrUnknownPrayer, name)
	}
	return nil
}

// Progress is everything the tracker persists.
type Progress struct {
	// DailyPrayers is keyed by date, YYYY-MM-DD.
	DailyPrayers     map[string]Day `json:"daily_prayers"`
	LessonsCompleted []string       `json:"lessons_completed"`
	Streak           int            `json:"streak"`
	TotalPoints      int            `json:"total_points"`
	// RewardedDays are the dates whose completion has been credited, so a
	// day earns its points once even if a prayer is unticked and ticked
	// again.
	RewardedDays []string `json:"rewarded_days,omitempty"`
}

// New returns empty progress.
func New() *Progress {
	return &Progress{DailyPrayers: map[string]Day{}}
}

func (p *Progress) rewarded(date string) bool {
	for _, d := range p.RewardedDays {
		if d == date {
			return true
		}
	}
	return false
}

func (p *Progress) hasLesson(id string) bool {
	for _, l := range p.LessonsCompleted {
		if l == id {
			return true
		}
	}
	return false
}

// Record sets one prayer of date. Completing a day for the first time
// earns PointsPerCompleteDay. The streak is recomputed as of today.
func (p *Progress) Record(date solar.Date, name string, prayed bool, today solar.Date) error {
	if p.DailyPrayers == nil {
		p.DailyPrayers = map[string]Day{}
	}
	key := date.String()
	day := p.DailyPrayers[key]
	if err := day.set(name, prayed); err != nil {
		return err
	}
	p.DailyPrayers[key] = day

	if day.Complete() && !p.rewarded(key) {
		p.RewardedDays = append(p.RewardedDays, key)
		sort.Strings(p.RewardedDays)
		p.TotalPoints += PointsPerCompleteDay
	}
	p.Streak = p.StreakAt(today)
	return nil
}

// CompleteLesson marks a lesson done. It reports false when the lesson
// was already complete, in which case no points are added.
func (p *Progress) CompleteLesson(id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, errors.New("lesson id must not be empty")
	}
	if p.hasLesson(id) {
		return false, nil
	}
	p.LessonsCompleted = append(p.LessonsCompleted, id)
	p.TotalPoints += PointsPerLesson
	return true, nil
}

// StreakAt counts consecutive complete days ending at today. A today that
// is not yet complete does not break the streak; it simply isn't counted.
func (p *Progress) StreakAt(today solar.Date) int {
	d := today
	if !p.DailyPrayers[d.String()].Complete() {
		d = d.AddDays(-1)
	}
	n := 0
	for p.DailyPrayers[d.String()].Complete() {
		n++
		d = d.AddDays(-1)
	}
	return n
}

// Stats summarise progress for display.
type Stats struct {
	Streak           int `json:"streak"`
	TotalPoints      int `json:"total_points"`
	TotalPrayers     int `json:"total_prayers"`
	DaysTracked      int `json:"days_tracked"`
	CompleteDays     int `json:"complete_days"`
	CompletionRate   int `json:"completion_rate"` // percent of tracked days that are complete
	LessonsCompleted int `json:"lessons_completed"`
}

// Stats computes the summary as of today.
func (p *Progress) Stats(today solar.Date) Stats {
	s := Stats{
		Streak:           p.StreakAt(today),
		TotalPoints:      p.TotalPoints,
		DaysTracked:      len(p.DailyPrayers),
		LessonsCompleted: len(p.LessonsCompleted),
	}
	for _, d := range p.DailyPrayers {
		s.TotalPrayers += d.Count()
		if d.Complete() {
			s.CompleteDays++
		}
	}
	if s.DaysTracked > 0 {
		s.CompletionRate = int(float64(s.CompleteDays)/float64(s.DaysTracked)*100 + 0.5)
	}
	return s
}

// Achievement is a milestone, locked or not.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// MaxAchievements caps how many achievements are listed.
const MaxAchievements = 6

// Achievements lists unlocked milestones first, followed by the streak
// milestones still to reach.
func (s Stats) Achievements() []Achievement {
	week := Achievement{ID: "week", Title: "Week Warrior", Description: "7-day prayer streak"}
	month := Achievement{ID: "month", Title: "Monthly Master", Description: "30-day prayer streak"}
	century := Achievement{ID: "century", Title: "Century Club", Description: "100 prayers completed"}
	learner := Achievement{ID: "learner", Title: "Dedicated Learner", Description: "10 lessons completed"}

	var out []Achievement
	unlock := func(a Achievement, ok bool) {
		if ok {
			a.Unlocked = true
			out = append(out, a)
		}
	}
	unlock(week, s.Streak >= 7)
	unlock(month, s.Streak >= 30)
	unlock(century, s.TotalPrayers >= 100)
	unlock(learner, s.LessonsCompleted >= 10)

	if s.Streak < 7 {
		week.ID += "_locked"
		out = append(out, week)
	}
	if s.Streak < 30 {
		month.ID += "_locked"
		out = append(out, month)
	}

	if len(out) > MaxAchievements {
		out = out[:MaxAchievements]
	}
	return out
}

// Today returns the calendar date of now in its own location.
func Today(now time.Time) solar.Date {
	return solar.DateOf(now)
}
