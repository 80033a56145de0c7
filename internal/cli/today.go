package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/solar"
)

// schedule is one day's times with the current and next prayer marked.
type schedule struct {
	date    solar.Date
	names   []string
	times   prayer.PrayerTimes
	current *prayer.Prayer
	next    *prayer.Prayer
}

func runToday(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	sched, err := s.schedule(cmd, s.cfg.PrayerNames(prayer.DefaultPrayerNames))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return printTodayJSON(w, s, sched)
	}
	printTodayRich(w, s, sched)
	return nil
}

func (s *session) schedule(cmd *cobra.Command, names []string) (schedule, error) {
	date := s.today()
	prayers, err := s.prayers(date, names)
	if err != nil {
		return schedule{}, err
	}
	next, err := s.upcoming(names)
	if err != nil {
		return schedule{}, err
	}
	return schedule{
		date:    date,
		names:   names,
		times:   s.timetable(cmd.Context(), date),
		current: prayer.CurrentPrayer(prayers, s.now),
		next:    next,
	}, nil
}

// nextIsToday reports whether the next prayer falls on the schedule's day.
func (sc schedule) nextIsToday() bool {
	return sc.next != nil && solar.DateOf(sc.next.Time) == sc.date
}

// printTodayRich renders the colored terminal output for today's prayer schedule.
func printTodayRich(w io.Writer, s *session, sc schedule) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintf(w, "  %s\n", s.clockLabel())
	fmt.Fprintf(w, "  %s\n", sc.date.Time(s.clock).Format("Monday, 02 January 2006"))
	fmt.Fprintf(w, "  %s\n", display.Dim(fmt.Sprintf("%s, %s Asr", s.method.Name(), s.opts.Madhab)))
	fmt.Fprintln(w)

	// Find the max prayer name length for alignment.
	maxNameLen := 0
	for _, name := range sc.names {
		if len(name) > maxNameLen {
			maxNameLen = len(name)
		}
	}

	for _, name := range sc.names {
		raw, _ := sc.times.Get(name)
		line := fmt.Sprintf("  %s  %s", padRight(name, maxNameLen), s.formatTime(raw, sc.date))

		switch {
		case raw == prayer.Undefined:
			fmt.Fprintln(w, display.Gray(line))
		case sc.current != nil && name == sc.current.Name:
			fmt.Fprintln(w, display.Dim(line))
		case sc.nextIsToday() && name == sc.next.Name:
			remaining := prayer.FormatRemaining(prayer.TimeRemaining(*sc.next, s.now))
			fmt.Fprintln(w, display.Accent(line)+display.Accent("  <- next in "+remaining))
		default:
			fmt.Fprintln(w, line)
		}
	}

	if sc.next != nil && !sc.nextIsToday() {
		remaining := prayer.FormatRemaining(prayer.TimeRemaining(*sc.next, s.now))
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", display.Accent(fmt.Sprintf("Next: %s tomorrow at %s (in %s)",
			sc.next.Name, sc.next.Time.Format(s.timeFmt), remaining)))
	}

	fmt.Fprintln(w)
}

// padRight pads a string to the given width with spaces.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location locationJSON      `json:"location"`
	Date     string            `json:"date"`
	Method   string            `json:"method"`
	Madhab   string            `json:"madhab"`
	Timings  map[string]string `json:"timings"`
	Current  string            `json:"current"`
	Next     *nextJSON         `json:"next"`
}

type locationJSON struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Source    string  `json:"source,omitempty"`
}

type nextJSON struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Date      string `json:"date"`
	Remaining string `json:"remaining"`
}

func newLocationJSON(s *session) locationJSON {
	tz := s.zoneName()
	if tz == "" {
		tz = "LMT"
	}
	return locationJSON{
		City:      s.loc.City,
		Country:   s.loc.Country,
		Timezone:  tz,
		Latitude:  s.loc.Latitude,
		Longitude: s.loc.Longitude,
		Source:    string(s.loc.Source),
	}
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(w io.Writer, s *session, sc schedule) error {
	timings := make(map[string]string)
	for _, name := range sc.names {
		raw, _ := sc.times.Get(name)
		timings[strings.ToLower(name)] = s.formatTime(raw, sc.date)
	}

	out := todayJSON{
		Location: newLocationJSON(s),
		Date:     sc.date.String(),
		Method:   string(s.method),
		Madhab:   string(s.opts.Madhab),
		Timings:  timings,
	}
	if sc.current != nil {
		out.Current = strings.ToLower(sc.current.Name)
	}
	if sc.next != nil {
		out.Next = &nextJSON{
			Prayer:    strings.ToLower(sc.next.Name),
			Time:      sc.next.Time.Format(s.timeFmt),
			Date:      solar.DateOf(sc.next.Time).String(),
			Remaining: prayer.FormatRemaining(prayer.TimeRemaining(*sc.next, s.now)),
		}
	}

	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
