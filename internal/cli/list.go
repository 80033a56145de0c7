package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/solar"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days (default: 7).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, 7)
		},
	}
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'. Display a grid of prayer times for 7 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 7)
		},
	}
}

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'. Display a grid of prayer times for 30 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 30)
		},
	}
}

// dayData holds a single day's times for list/query output.
type dayData struct {
	Date  solar.Date
	Times prayer.PrayerTimes
}

// runList is the handler for the list subcommand.
func runList(cmd *cobra.Command, args []string, defaultDays int) error {
	days := defaultDays
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid number of days: %q (must be a positive integer)", args[0])
		}
		days = n
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	selected := s.cfg.PrayerNames(prayer.DefaultPrayerNames)
	daysList := s.days(cmd, days)

	w := cmd.OutOrStdout()
	if FlagJSON {
		return printListJSON(w, s, daysList, selected)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(fmt.Sprintf("Prayer Times - %d Days", days)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintf(w, "  %s\n", s.clockLabel())
	fmt.Fprintln(w)

	headers := append([]string{"Date"}, selected...)
	tbl := display.NewTable(headers...)
	for i := range selected {
		tbl.SetAlign(i+1, display.AlignRight)
	}

	today := s.today()
	for i, dd := range daysList {
		row := []string{dd.Date.Time(s.clock).Format("Mon 02 Jan")}
		for _, name := range selected {
			raw, _ := dd.Times.Get(name)
			row = append(row, s.formatTime(raw, dd.Date))
		}
		tbl.AddRow(row...)

		if dd.Date == today {
			tbl.Highlight(i)
		}
	}

	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

// days returns the timetables of n consecutive days starting today.
func (s *session) days(cmd *cobra.Command, n int) []dayData {
	today := s.today()
	out := make([]dayData, 0, n)
	for i := 0; i < n; i++ {
		d := today.AddDays(i)
		out = append(out, dayData{Date: d, Times: s.timetable(cmd.Context(), d)})
	}
	return out
}

// listJSONOutput is the JSON structure for the list command.
type listJSONOutput struct {
	Location locationJSON  `json:"location"`
	Days     []listJSONDay `json:"days"`
}

type listJSONDay struct {
	Date    string            `json:"date"`
	Timings map[string]string `json:"timings"`
}

func printListJSON(w io.Writer, s *session, daysList []dayData, selected []string) error {
	out := listJSONOutput{Location: newLocationJSON(s)}

	for _, dd := range daysList {
		timings := make(map[string]string)
		for _, name := range selected {
			raw, _ := dd.Times.Get(name)
			timings[strings.ToLower(name)] = s.formatTime(raw, dd.Date)
		}
		out.Days = append(out.Days, listJSONDay{
			Date:    dd.Date.String(),
			Timings: timings,
		})
	}

	return writeJSON(w, out)
}
