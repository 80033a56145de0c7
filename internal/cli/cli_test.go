package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/revert-companion/prayer-times/internal/cache"
	"github.com/revert-companion/prayer-times/internal/config"
	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/notify"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/progress"
	"github.com/revert-companion/prayer-times/internal/solar"
)

// fixedNow is 2024-06-21 15:00 UTC: 10:04 local mean time in New York
// (longitude -74), 11:00 EDT.
var fixedNow = time.Date(2024, time.June, 21, 15, 0, 0, 0, time.UTC)

// nyc are the flags for the New York test location with ISNA angles.
var nyc = []string{"--latitude", "40", "--longitude", "-74", "--method", "ISNA"}

func TestMain(m *testing.M) {
	display.SetEnabled(false)
	os.Exit(m.Run())
}

// harness runs commands in-process against temporary config, cache and
// data directories with a pinned clock and no network.
type harness struct {
	t        *testing.T
	cacheDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("LOG_LEVEL", "")

	prevNow, prevDetect := nowFunc, detectFunc
	nowFunc = func() time.Time { return fixedNow }
	detectFunc = func(context.Context) (*geo.Location, error) {
		return nil, errors.New("offline")
	}
	t.Cleanup(func() { nowFunc, detectFunc = prevNow, prevDetect })

	return &harness{t: t, cacheDir: t.TempDir()}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--cache-dir", h.cacheDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	return v
}

func args(extra ...string) []string {
	return append(append([]string{}, nyc...), extra...)
}

// --- version and help ---

func TestVersionFlag(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("--version")
	if want := "prayer-times version test\n"; out != want {
		t.Errorf("--version = %q, want %q", out, want)
	}
}

func TestHelpFlag(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("--help")

	for _, sub := range []string{
		"next", "list", "week", "month", "query", "qibla",
		"track", "reminders", "verify", "serve", "config", "methods",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("--help output missing subcommand %q", sub)
		}
	}
}

// --- today ---

func TestToday_JSON(t *testing.T) {
	h := newHarness(t)
	got := decodeJSON[todayJSON](t, h.mustRun(args("--json")...))

	want := map[string]string{
		"fajr":    "02:54",
		"dhuhr":   "12:02",
		"asr":     "16:01",
		"maghrib": "19:32",
		"isha":    "21:10",
	}
	for name, tm := range want {
		if got.Timings[name] != tm {
			t.Errorf("timings[%s] = %q, want %q", name, got.Timings[name], tm)
		}
	}
	if got.Date != "2024-06-21" {
		t.Errorf("date = %q", got.Date)
	}
	if got.Location.Timezone != "LMT" || got.Location.Source != "flags" {
		t.Errorf("location = %+v", got.Location)
	}
	if got.Current != "sunrise" {
		t.Errorf("current = %q, want sunrise", got.Current)
	}
	if got.Next == nil || got.Next.Prayer != "dhuhr" || got.Next.Remaining != "1h 58m" {
		t.Errorf("next = %+v, want dhuhr in 1h 58m", got.Next)
	}
}

func TestToday_Hanafi(t *testing.T) {
	h := newHarness(t)
	got := decodeJSON[todayJSON](t, h.mustRun(args("--madhab", "hanafi", "--json")...))
	if got.Timings["asr"] != "17:15" {
		t.Errorf("hanafi asr = %q, want 17:15", got.Timings["asr"])
	}
	if got.Madhab != "hanafi" {
		t.Errorf("madhab = %q", got.Madhab)
	}
}

func TestToday_Timezone(t *testing.T) {
	h := newHarness(t)
	got := decodeJSON[todayJSON](t, h.mustRun(args("--timezone", "America/New_York", "--json")...))
	if got.Timings["fajr"] != "03:50" || got.Timings["dhuhr"] != "12:58" {
		t.Errorf("EDT timings = %v", got.Timings)
	}
	if got.Location.Timezone != "America/New_York" {
		t.Errorf("timezone = %q", got.Location.Timezone)
	}
}

func TestToday_TwelveHour(t *testing.T) {
	h := newHarness(t)
	got := decodeJSON[todayJSON](t, h.mustRun(args("--time-format", "12h", "--json")...))
	if got.Timings["isha"] != "9:10 PM" {
		t.Errorf("isha = %q, want 9:10 PM", got.Timings["isha"])
	}
}

func TestToday_Rich(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(args("--city", "New York", "--country", "USA")...)

	for _, want := range []string{
		"Prayer Times",
		"New York, USA",
		"Local mean time (UTC-04:56)",
		"Friday, 21 June 2024",
		"Dhuhr    12:02  <- next in 1h 58m",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestToday_InvalidFlags(t *testing.T) {
	h := newHarness(t)
	tests := [][]string{
		{"--method", "nope"},
		{"--madhab", "maliki"},
		{"--latitude", "95"},
		{"--timezone", "Mars/Olympus"},
		{"--time-format", "25h"},
	}
	for _, a := range tests {
		t.Run(strings.Join(a, " "), func(t *testing.T) {
			if _, err := h.run(a...); err == nil {
				t.Errorf("%v: expected error", a)
			}
		})
	}

	_, err := h.run("--method", "nope")
	if !errors.Is(err, prayer.ErrUnknownMethod) {
		t.Errorf("err = %v, want ErrUnknownMethod", err)
	}
}

// --- location resolution ---

func TestLocation_Fallback(t *testing.T) {
	h := newHarness(t)
	got := decodeJSON[todayJSON](t, h.mustRun("--no-detect", "--json"))
	if got.Location.Source != string(geo.SourceFallback) || got.Location.City != "Mecca" {
		t.Errorf("location = %+v, want the Mecca fallback", got.Location)
	}
	if got.Location.Timezone != "Asia/Riyadh" {
		t.Errorf("timezone = %q", got.Location.Timezone)
	}
}

func TestLocation_DetectedThenCached(t *testing.T) {
	h := newHarness(t)
	detectFunc = func(context.Context) (*geo.Location, error) {
		return &geo.Location{
			Coordinates: geo.Coordinates{Latitude: 51.5074, Longitude: -0.1278},
			City:        "London",
			Country:     "United Kingdom",
			Timezone:    "Europe/London",
			Source:      geo.SourceIP,
		}, nil
	}

	got := decodeJSON[todayJSON](t, h.mustRun("--json"))
	if got.Location.Source != string(geo.SourceIP) || got.Location.Timezone != "Europe/London" {
		t.Errorf("first run location = %+v", got.Location)
	}

	detectFunc = func(context.Context) (*geo.Location, error) {
		t.Error("detection should not run when a location is cached")
		return nil, errors.New("offline")
	}
	got = decodeJSON[todayJSON](t, h.mustRun("--json"))
	if got.Location.Source != string(geo.SourceCache) || got.Location.City != "London" {
		t.Errorf("second run location = %+v", got.Location)
	}
}

func TestLocation_ConfigBeatsDetection(t *testing.T) {
	h := newHarness(t)
	h.mustRun("config", "set", "latitude", "40")
	h.mustRun("config", "set", "longitude", "-74")
	h.mustRun("config", "set", "city", "New York")

	got := decodeJSON[todayJSON](t, h.mustRun("--json"))
	if got.Location.Source != string(geo.SourceConfig) || got.Location.City != "New York" {
		t.Errorf("location = %+v", got.Location)
	}

	// Coordinates on the command line drop the configured city.
	got = decodeJSON[todayJSON](t, h.mustRun("--latitude", "21.4225", "--json"))
	if got.Location.Source != string(geo.SourceFlags) || got.Location.City != "" {
		t.Errorf("location = %+v", got.Location)
	}
}

// --- precedence ---

func TestPrecedence_FlagsEnvFile(t *testing.T) {
	h := newHarness(t)
	h.mustRun("config", "set", "method", "Karachi")

	got := decodeJSON[todayJSON](t, h.mustRun("--latitude", "40", "--longitude", "-74", "--json"))
	if got.Method != "Karachi" {
		t.Errorf("file: method = %q", got.Method)
	}

	t.Setenv("PRAYER_TIMES_METHOD", "ISNA")
	got = decodeJSON[todayJSON](t, h.mustRun("--latitude", "40", "--longitude", "-74", "--json"))
	if got.Method != "ISNA" {
		t.Errorf("env: method = %q", got.Method)
	}

	got = decodeJSON[todayJSON](t, h.mustRun("--latitude", "40", "--longitude", "-74", "--method", "egypt", "--json"))
	if got.Method != "Egypt" {
		t.Errorf("flag: method = %q", got.Method)
	}
}

func TestPrecedence_InvalidEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv("PRAYER_TIMES_TIME_FORMAT", "13h")
	t.Setenv("PRAYER_TIMES_LATITUDE", "north")

	_, err := h.run(args()...)
	if err == nil {
		t.Fatal("expected error for invalid environment")
	}
	for _, name := range []string{"PRAYER_TIMES_TIME_FORMAT", "PRAYER_TIMES_LATITUDE"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestInvalidLogLevel(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(args("--log-level", "chatty")...); err == nil {
		t.Error("expected error for invalid --log-level")
	}
}

// --- next ---

func TestNext(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name  string
		extra []string
		want  string
	}{
		{"default", nil, "Dhuhr 12:02 (1h 58m)"},
		{"name-and-time", []string{"--format", "name-and-time"}, "Dhuhr 12:02"},
		{"template", []string{"--format", "{{.ShortName}} {{.Remaining}}"}, "D 1h 58m"},
		{"prayers", []string{"--prayers", "fajr, isha", "--format", "name-and-time"}, "Isha 21:10"},
		{"12h", []string{"--time-format", "12h", "--format", "next-prayer-time"}, "12:02 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.mustRun(args(append([]string{"next"}, tt.extra...)...)...)
			if got != tt.want {
				t.Errorf("next = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNext_RollsToTomorrow(t *testing.T) {
	h := newHarness(t)
	// 22:04 local mean time, after Isha.
	nowFunc = func() time.Time { return time.Date(2024, time.June, 22, 3, 0, 0, 0, time.UTC) }

	got := decodeJSON[nextJSON](t, h.mustRun(args("next", "--json")...))
	if got.Prayer != "fajr" || got.Date != "2024-06-22" {
		t.Errorf("next = %+v, want fajr on 2024-06-22", got)
	}
}

func TestNext_NoneNearPole(t *testing.T) {
	h := newHarness(t)
	// Midsummer at 80°N: the sun neither sets nor reaches Isha depth.
	out := h.mustRun("--latitude", "80", "--longitude", "0", "next", "--prayers", "Maghrib,Isha")
	if out != prayer.Undefined {
		t.Errorf("next = %q, want %q", out, prayer.Undefined)
	}
}

// --- list and query ---

func TestList_JSON(t *testing.T) {
	h := newHarness(t)
	got := decodeJSON[listJSONOutput](t, h.mustRun(args("list", "3", "--json")...))

	if len(got.Days) != 3 {
		t.Fatalf("days = %d, want 3", len(got.Days))
	}
	for i, date := range []string{"2024-06-21", "2024-06-22", "2024-06-23"} {
		if got.Days[i].Date != date {
			t.Errorf("day %d = %s, want %s", i, got.Days[i].Date, date)
		}
	}
	if got.Days[0].Timings["fajr"] != "02:54" {
		t.Errorf("first fajr = %q", got.Days[0].Timings["fajr"])
	}
}

func TestList_Aliases(t *testing.T) {
	h := newHarness(t)

	week := h.mustRun(args("week")...)
	if !strings.Contains(week, "7 Days") || !strings.Contains(week, "Fri 21 Jun") || !strings.Contains(week, "Thu 27 Jun") {
		t.Errorf("week output:\n%s", week)
	}

	month := decodeJSON[listJSONOutput](t, h.mustRun(args("month", "--json")...))
	if len(month.Days) != 30 {
		t.Errorf("month days = %d, want 30", len(month.Days))
	}
}

func TestList_InvalidDays(t *testing.T) {
	h := newHarness(t)
	for _, n := range []string{"0", "-2", "seven"} {
		if _, err := h.run(args("list", n)...); err == nil {
			t.Errorf("list %s: expected error", n)
		}
	}
}

func TestList_UsesCache(t *testing.T) {
	h := newHarness(t)
	h.mustRun(args("list", "2", "--json")...)

	c, err := cache.New(h.cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	key := cache.Key{
		Date:     solar.Date{Year: 2024, Month: time.June, Day: 22},
		Location: geo.Coordinates{Latitude: 40, Longitude: -74},
		Method:   prayer.ISNA,
		Madhab:   prayer.Shafi,
	}
	if _, err := c.LoadTimes(context.Background(), key); err != nil {
		t.Errorf("expected 2024-06-22 to be cached: %v", err)
	}
}

func TestQuery(t *testing.T) {
	h := newHarness(t)

	if got := h.mustRun(args("query", "FAJR")...); got != "Fajr 02:54\n" {
		t.Errorf("query = %q", got)
	}

	multi := decodeJSON[queryJSONMulti](t, h.mustRun(args("query", "isha", "--days", "week", "--json")...))
	if multi.Prayer != "isha" || len(multi.Days) != 7 {
		t.Errorf("query week = %+v", multi)
	}

	if _, err := h.run(args("query", "zuhr")...); err == nil {
		t.Error("expected error for unknown prayer")
	}
	if _, err := h.run(args("query", "fajr", "--days", "fortnight")...); err == nil {
		t.Error("expected error for invalid --days")
	}
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 1, false},
		{"week", 7, false},
		{"Month", 30, false},
		{"12", 12, false},
		{"0", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDays(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseDays(%q) = %d, %v", tt.in, got, err)
		}
	}
}

// --- qibla ---

func TestQibla(t *testing.T) {
	h := newHarness(t)
	got := decodeJSON[qiblaJSON](t, h.mustRun(args("qibla", "--json")...))

	if got.Bearing < 58.4 || got.Bearing > 58.6 {
		t.Errorf("bearing = %v, want about 58.5", got.Bearing)
	}
	if got.Cardinal != "ENE" {
		t.Errorf("cardinal = %q, want ENE", got.Cardinal)
	}
	if got.DistanceKm < 10300 || got.DistanceKm > 10400 {
		t.Errorf("distance = %d km", got.DistanceKm)
	}
	if got.Relative != nil {
		t.Errorf("relative = %v without --heading", *got.Relative)
	}

	got = decodeJSON[qiblaJSON](t, h.mustRun(args("qibla", "--heading", "90", "--json")...))
	if got.Relative == nil || *got.Relative < 328.4 || *got.Relative > 328.6 {
		t.Errorf("relative = %v, want about 328.5", got.Relative)
	}

	if _, err := h.run(args("qibla", "--heading", "400")...); err == nil {
		t.Error("expected error for heading out of range")
	}
}

func TestQibla_Rich(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(args("qibla", "--heading", "0")...)
	for _, want := range []string{"58.5° ENE", "km", "59° to the right", "↗"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTurnHint(t *testing.T) {
	tests := []struct {
		rel  float64
		want string
	}{
		{0, "you are facing the qibla"},
		{359.8, "you are facing the qibla"},
		{90, "90° to the right"},
		{180, "180° to the right"},
		{270, "90° to the left"},
	}
	for _, tt := range tests {
		if got := turnHint(tt.rel); got != tt.want {
			t.Errorf("turnHint(%v) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

// --- track ---

func TestTrack_Flow(t *testing.T) {
	h := newHarness(t)

	var out string
	for _, name := range prayer.Obligatory {
		out = h.mustRun("track", "record", strings.ToLower(name), "--date", "2024-06-21")
	}
	if !strings.Contains(out, "+50 points") {
		t.Errorf("completing the day should award points:\n%s", out)
	}

	// Unticking and reticking does not pay twice.
	h.mustRun("track", "record", "isha", "--missed")
	out = h.mustRun("track", "record", "isha")
	if strings.Contains(out, "points") {
		t.Errorf("day was rewarded twice:\n%s", out)
	}

	h.mustRun("track", "lesson", "wudu-basics")
	if out := h.mustRun("track", "lesson", "wudu-basics"); !strings.Contains(out, "already completed") {
		t.Errorf("second lesson completion: %q", out)
	}

	stats := decodeJSON[progress.Stats](t, h.mustRun("track", "stats", "--json"))
	if stats.TotalPoints != progress.PointsPerCompleteDay+progress.PointsPerLesson {
		t.Errorf("points = %d", stats.TotalPoints)
	}
	if stats.Streak != 1 || stats.TotalPrayers != 5 || stats.CompletionRate != 100 {
		t.Errorf("stats = %+v", stats)
	}

	show := h.mustRun("track")
	for _, want := range []string{"✓ Fajr", "✓ Isha", "1 days", "1 of 1 days (100%)"} {
		if !strings.Contains(show, want) {
			t.Errorf("track output missing %q:\n%s", want, show)
		}
	}

	achievements := decodeJSON[[]progress.Achievement](t, h.mustRun("track", "achievements", "--json"))
	if len(achievements) == 0 || achievements[0].ID != "week_locked" {
		t.Errorf("achievements = %+v", achievements)
	}

	h.mustRun("track", "reset")
	stats = decodeJSON[progress.Stats](t, h.mustRun("track", "stats", "--json"))
	if stats != (progress.Stats{}) {
		t.Errorf("stats after reset = %+v", stats)
	}
}

func TestTrack_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("track", "record", "tahajjud")
	if !errors.Is(err, progress.ErrUnknownPrayer) {
		t.Errorf("err = %v, want ErrUnknownPrayer", err)
	}
	if _, err := h.run("track", "record", "fajr", "--date", "21/06/2024"); err == nil {
		t.Error("expected error for bad date")
	}
	if _, err := h.run("track", "lesson", " "); err == nil {
		t.Error("expected error for blank lesson id")
	}
}

func TestTrack_DataDir(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	h.mustRun("track", "record", "fajr", "--data-dir", dir)

	if _, err := os.Stat(filepath.Join(dir, "progress.json")); err != nil {
		t.Errorf("progress not written to --data-dir: %v", err)
	}
}

// --- reminders ---

func TestReminders(t *testing.T) {
	h := newHarness(t)
	got := decodeJSON[[]notify.Reminder](t, h.mustRun(args("reminders", "--json")...))

	if len(got) != 5 {
		t.Fatalf("reminders = %d, want 5", len(got))
	}
	// Fajr has passed at 10:04, so Dhuhr's reminder is first and Fajr's last.
	if got[0].Prayer != "Dhuhr" || got[4].Prayer != "Fajr" {
		t.Errorf("order = %s ... %s", got[0].Prayer, got[4].Prayer)
	}
	if lead := got[0].PrayerAt.Sub(got[0].At); lead != config.DefaultReminderMinutes*time.Minute {
		t.Errorf("lead = %v", lead)
	}

	h.mustRun("config", "set", "notifications.before_minutes", "0")
	got = decodeJSON[[]notify.Reminder](t, h.mustRun(args("reminders", "--json")...))
	if !got[0].At.Equal(got[0].PrayerAt) || got[0].Body != "It's time for Dhuhr." {
		t.Errorf("zero lead reminder = %+v", got[0])
	}

	h.mustRun("config", "set", "notifications.enabled", "false")
	got = decodeJSON[[]notify.Reminder](t, h.mustRun(args("reminders", "--json")...))
	if len(got) != 0 {
		t.Errorf("disabled reminders = %d, want 0", len(got))
	}
	if out := h.mustRun(args("reminders")...); !strings.Contains(out, "disabled") {
		t.Errorf("disabled output = %q", out)
	}
}

// --- verify ---

// fakeAlAdhan answers with the given timetable on New York civil time.
func fakeAlAdhan(t *testing.T, times prayer.PrayerTimes) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/timings/21-06-2024" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if q := r.URL.Query(); q.Get("method") != "2" || q.Get("school") != "0" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		edt := func(s string) string { return s + " (EDT)" }
		resp := map[string]any{
			"code":   200,
			"status": "OK",
			"data": map[string]any{
				"timings": map[string]string{
					"Fajr":    edt(times.Fajr),
					"Sunrise": edt(times.Sunrise),
					"Dhuhr":   edt(times.Dhuhr),
					"Asr":     edt(times.Asr),
					"Sunset":  edt(times.Maghrib),
					"Maghrib": edt(times.Maghrib),
					"Isha":    edt(times.Isha),
				},
				"meta": map[string]any{"timezone": "America/New_York"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func edtTimes(t *testing.T) prayer.PrayerTimes {
	t.Helper()
	zone, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	date := solar.Date{Year: 2024, Month: time.June, Day: 21}
	return prayer.Compute(date, geo.Coordinates{Latitude: 40, Longitude: -74}, prayer.ISNA,
		prayer.Options{Madhab: prayer.Shafi, Zone: zone}).Format()
}

func TestVerify_Agree(t *testing.T) {
	h := newHarness(t)
	srv := fakeAlAdhan(t, edtTimes(t))

	got := decodeJSON[verifyJSON](t, h.mustRun(args("verify", "--api-url", srv.URL, "--json")...))
	if !got.Agree || got.Timezone != "America/New_York" {
		t.Errorf("verify = %+v", got)
	}
	for _, d := range got.Diffs {
		if d.Minutes != 0 {
			t.Errorf("%s differs by %d min", d.Name, d.Minutes)
		}
	}
	if got.Diffs[0].Local != "03:50" {
		t.Errorf("fajr compared on the wrong clock: %q", got.Diffs[0].Local)
	}
}

func TestVerify_Disagree(t *testing.T) {
	h := newHarness(t)
	times := edtTimes(t)
	times.Isha = "23:59"
	srv := fakeAlAdhan(t, times)

	out, err := h.run(args("verify", "--api-url", srv.URL)...)
	if err == nil {
		t.Fatal("expected error when times disagree")
	}
	if !strings.Contains(err.Error(), "1 of 6") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(out, "off") {
		t.Errorf("table should flag the Isha row:\n%s", out)
	}
}

func TestVerify_APIError(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := h.run(args("verify", "--api-url", srv.URL)...); err == nil {
		t.Error("expected error for API failure")
	}
	if _, err := h.run(args("verify", "--tolerance", "-1")...); err == nil {
		t.Error("expected error for negative tolerance")
	}
}

// --- config ---

func TestConfig(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("config", "set", "method", "isna"); out != "Set method = isna\n" {
		t.Errorf("set output = %q", out)
	}
	if out := h.mustRun("config", "get", "method"); out != "ISNA\n" {
		t.Errorf("get method = %q", out)
	}

	show := h.mustRun("config")
	for _, want := range []string{"ISNA (Islamic Society of North America (ISNA))", "shafi (default)", "(not set)"} {
		if !strings.Contains(show, want) {
			t.Errorf("config output missing %q:\n%s", want, show)
		}
	}

	path := h.mustRun("config", "path")
	if !strings.HasSuffix(strings.TrimSpace(path), filepath.Join("prayer-times", "config.json")) {
		t.Errorf("path = %q", path)
	}

	_, err := h.run("config", "set", "colour", "blue")
	if !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("err = %v, want ErrUnknownKey", err)
	}

	h.mustRun("config", "reset")
	if out := h.mustRun("config", "get", "method"); out != "\n" {
		t.Errorf("method after reset = %q", out)
	}
}

func TestConfig_NegativeCoordinates(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		key, value string
	}{
		{"longitude", "-0.1278"},
		{"latitude", "-33.87"},
		{"longitude", "-74"},
	}
	for _, tt := range tests {
		if out := h.mustRun("config", "set", tt.key, tt.value); out != fmt.Sprintf("Set %s = %s\n", tt.key, tt.value) {
			t.Errorf("set %s %s output = %q", tt.key, tt.value, out)
		}
		if out := h.mustRun("config", "get", tt.key); out != tt.value+"\n" {
			t.Errorf("get %s = %q, want %q", tt.key, out, tt.value)
		}
	}
}

func TestConfig_EnvNotPersisted(t *testing.T) {
	h := newHarness(t)
	t.Setenv("PRAYER_TIMES_MADHAB", "hanafi")

	if out := h.mustRun("config", "get", "madhab"); out != "hanafi\n" {
		t.Errorf("get madhab = %q", out)
	}
	if show := h.mustRun("config"); !strings.Contains(show, "[PRAYER_TIMES_MADHAB]") {
		t.Errorf("config output does not mark the env override:\n%s", show)
	}

	h.mustRun("config", "set", "city", "London")
	path, err := config.Path()
	if err != nil {
		t.Fatal(err)
	}
	saved, err := config.LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Madhab != "" {
		t.Errorf("env override was written to the config file: %q", saved.Madhab)
	}
}

// --- methods ---

func TestMethodsSubcommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("methods")

	for _, m := range []string{
		"ISNA",
		"Muslim World League",
		"Umm Al-Qura",
		"Jafari",
		"90 min",
	} {
		if !strings.Contains(out, m) {
			t.Errorf("methods output missing %q", m)
		}
	}
}

// --- serve wiring ---

func TestOpenStores_FileFallback(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{CacheDir: t.TempDir()}

	store, closeStore, err := openTimesStore(ctx, config.Server{}, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer closeStore()
	if _, ok := store.(*cache.Cache); !ok {
		t.Errorf("store = %T, want *cache.Cache", store)
	}

	prev := flagDataDir
	flagDataDir = t.TempDir()
	defer func() { flagDataDir = prev }()

	tracker, closeTracker, err := openTracker(ctx, config.Server{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer closeTracker()
	if err := tracker.Ping(ctx); err != nil {
		t.Errorf("file tracker ping: %v", err)
	}
}

func TestOpenStores_RedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := openTimesStore(ctx, config.Server{RedisAddress: "127.0.0.1:1"}, &config.Config{}, zerolog.Nop())
	if err == nil {
		t.Error("expected error for unreachable redis")
	}
}
