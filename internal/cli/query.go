package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/prayer"
)

var flagQueryDays string

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long: "Query a specific prayer time for today, or across multiple days with --days.\n\n" +
			"Valid prayer names: " + strings.Join(prayer.AllPrayerNames, ", "),
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().StringVar(&flagQueryDays, "days", "", "Number of days to show (or 'week'/'month')")

	return cmd
}

// parseDays accepts a positive integer, "week" or "month".
func parseDays(v string) (int, error) {
	switch strings.ToLower(v) {
	case "":
		return 1, nil
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid --days value %q: must be a positive integer, 'week', or 'month'", v)
	}
	return n, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	prayerName := canonicalName(args[0])
	if _, ok := prayer.ShortNames[prayerName]; !ok {
		return fmt.Errorf("unknown prayer %q; valid names: %s", args[0], strings.Join(prayer.AllPrayerNames, ", "))
	}

	days, err := parseDays(flagQueryDays)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	daysList := s.days(cmd, days)
	w := cmd.OutOrStdout()

	// Single day: a one-line answer.
	if days == 1 {
		raw, _ := daysList[0].Times.Get(prayerName)
		timeStr := s.formatTime(raw, daysList[0].Date)
		if FlagJSON {
			return writeJSON(w, queryJSONSingle{
				Prayer: strings.ToLower(prayerName),
				Time:   timeStr,
				Date:   daysList[0].Date.String(),
			})
		}
		fmt.Fprintf(w, "%s %s\n", prayerName, timeStr)
		return nil
	}

	if FlagJSON {
		out := queryJSONMulti{Location: newLocationJSON(s), Prayer: strings.ToLower(prayerName)}
		for _, dd := range daysList {
			raw, _ := dd.Times.Get(prayerName)
			out.Days = append(out.Days, queryJSONDay{Date: dd.Date.String(), Time: s.formatTime(raw, dd.Date)})
		}
		return writeJSON(w, out)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(fmt.Sprintf("%s Times - %d Days", prayerName, days)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintln(w)

	tbl := display.NewTable("Date", prayerName).SetAlign(1, display.AlignRight)
	today := s.today()
	for i, dd := range daysList {
		raw, _ := dd.Times.Get(prayerName)
		tbl.AddRow(dd.Date.Time(s.clock).Format("Mon 02 Jan"), s.formatTime(raw, dd.Date))
		if dd.Date == today {
			tbl.Highlight(i)
		}
	}

	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

type queryJSONSingle struct {
	Prayer string `json:"prayer"`
	Time   string `json:"time"`
	Date   string `json:"date"`
}

type queryJSONMulti struct {
	Location locationJSON   `json:"location"`
	Prayer   string         `json:"prayer"`
	Days     []queryJSONDay `json:"days"`
}

type queryJSONDay struct {
	Date string `json:"date"`
	Time string `json:"time"`
}
