package cli

import (
	"testing"
	"time"

	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/solar"
)

func TestPadRight(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"Fajr", 7, "Fajr   "},
		{"Maghrib", 7, "Maghrib"},
		{"Sunrise", 3, "Sunrise"},
		{"", 2, "  "},
	}

	for _, tt := range tests {
		got := padRight(tt.input, tt.width)
		if got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"fajr", "Fajr"},
		{"MAGHRIB", "Maghrib"},
		{"Sunrise", "Sunrise"},
		{"witr", "witr"},
	}
	for _, tt := range tests {
		if got := canonicalName(tt.in); got != tt.want {
			t.Errorf("canonicalName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	got := splitNames(" fajr,, ISHA ,")
	if len(got) != 2 || got[0] != "Fajr" || got[1] != "Isha" {
		t.Errorf("splitNames = %v", got)
	}
}

func newTestSession(zone string, timeFormat string) *session {
	s := &session{
		loc: geo.Location{
			Coordinates: geo.Coordinates{Latitude: 40, Longitude: -74},
			Timezone:    zone,
		},
		method:  prayer.ISNA,
		opts:    prayer.Options{Madhab: prayer.Shafi},
		timeFmt: goTimeFormat(timeFormat),
	}
	s.opts.Zone = s.loc.Zone()
	s.clock = s.opts.Clock(s.loc.Coordinates)
	s.now = fixedNow.In(s.clock)
	return s
}

func TestSession_Clock(t *testing.T) {
	s := newTestSession("", "24h")
	if got := s.clockLabel(); got != "Local mean time (UTC-04:56)" {
		t.Errorf("clockLabel = %q", got)
	}
	if s.zoneName() != "" {
		t.Errorf("zoneName = %q, want empty for mean time", s.zoneName())
	}
	if got := s.now.Format("15:04"); got != "10:04" {
		t.Errorf("now = %s, want 10:04", got)
	}

	east := newTestSession("", "24h")
	east.loc.Longitude = 46.5
	east.clock = east.opts.Clock(east.loc.Coordinates)
	east.now = fixedNow.In(east.clock)
	if got := east.clockLabel(); got != "Local mean time (UTC+03:06)" {
		t.Errorf("clockLabel = %q", got)
	}
}

func TestSession_FormatTime(t *testing.T) {
	date := solar.Date{Year: 2024, Month: time.June, Day: 21}

	s24 := newTestSession("", "24h")
	s12 := newTestSession("", "12h")
	tests := []struct {
		s    *session
		in   string
		want string
	}{
		{s24, "21:10", "21:10"},
		{s12, "21:10", "9:10 PM"},
		{s12, "00:05", "12:05 AM"},
		{s12, prayer.Undefined, prayer.Undefined},
		{s12, "garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := tt.s.formatTime(tt.in, date); got != tt.want {
			t.Errorf("formatTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchedule_NextIsToday(t *testing.T) {
	date := solar.Date{Year: 2024, Month: time.June, Day: 21}
	clock := prayer.MeanTime(-74)

	today := &prayer.Prayer{Name: "Dhuhr", Time: time.Date(2024, 6, 21, 12, 2, 0, 0, clock)}
	tomorrow := &prayer.Prayer{Name: "Fajr", Time: time.Date(2024, 6, 22, 2, 54, 0, 0, clock)}

	if !(schedule{date: date, next: today}).nextIsToday() {
		t.Error("Dhuhr on the same day should be today")
	}
	if (schedule{date: date, next: tomorrow}).nextIsToday() {
		t.Error("Fajr of the next day should not be today")
	}
	if (schedule{date: date}).nextIsToday() {
		t.Error("no next prayer should not be today")
	}
}

func TestGoTimeFormat(t *testing.T) {
	if goTimeFormat("12h") != "3:04 PM" || goTimeFormat("24h") != "15:04" || goTimeFormat("") != "15:04" {
		t.Error("unexpected Go layouts")
	}
}
