package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/api"
	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/solar"
)

var (
	flagTolerance  int
	flagVerifyDate string
	flagAPIURL     string
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare local times with the Al Adhan API",
		Long: "Fetch the day's timetable from api.aladhan.com for the same location, method and\n" +
			"madhab, and compare it with the local calculation. Exits non-zero when any time\n" +
			"differs by more than --tolerance minutes.",
		Args: cobra.NoArgs,
		RunE: runVerify,
	}
	cmd.Flags().IntVar(&flagTolerance, "tolerance", 2, "Allowed difference in minutes")
	cmd.Flags().StringVar(&flagVerifyDate, "date", "", "Date to compare, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&flagAPIURL, "api-url", "", "Al Adhan API base URL")
	_ = cmd.Flags().MarkHidden("api-url")
	return cmd
}

type verifyJSON struct {
	Date      string     `json:"date"`
	Timezone  string     `json:"timezone"`
	Method    string     `json:"method"`
	Tolerance int        `json:"tolerance"`
	Agree     bool       `json:"agree"`
	Diffs     []api.Diff `json:"diffs"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	if flagTolerance < 0 {
		return fmt.Errorf("invalid --tolerance %d: must not be negative", flagTolerance)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	date := s.today()
	if flagVerifyDate != "" {
		d, err := time.Parse(time.DateOnly, flagVerifyDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", flagVerifyDate)
		}
		date = solar.DateOf(d)
	}

	client := api.NewClient()
	if flagAPIURL != "" {
		client.BaseURL = flagAPIURL
	}
	resp, err := client.Timings(cmd.Context(), api.Query{
		Date:     date,
		Location: s.loc.Coordinates,
		Method:   s.method,
		Madhab:   s.opts.Madhab,
	})
	if err != nil {
		return err
	}

	// The API answers on the location's civil clock; compute on the same one.
	opts := s.opts
	tz := resp.Data.Meta.Timezone
	if tz != "" {
		zone, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("API returned unknown timezone %q: %w", tz, err)
		}
		opts.Zone = zone
	} else {
		tz = s.clock.String()
	}
	logger.Debug().Str("timezone", tz).Str("date", date.String()).Msg("comparing with Al Adhan")

	local := prayer.Compute(date, s.loc.Coordinates, s.method, opts).Format()
	diffs := api.Compare(local, resp.Data.Timings.PrayerTimes(), flagTolerance)
	agree := api.Agree(diffs)

	w := cmd.OutOrStdout()
	if FlagJSON {
		if err := writeJSON(w, verifyJSON{
			Date:      date.String(),
			Timezone:  tz,
			Method:    string(s.method),
			Tolerance: flagTolerance,
			Agree:     agree,
			Diffs:     diffs,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", display.Bold("Verification against Al Adhan"))
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", s.loc.Label())
		fmt.Fprintf(w, "  %s, %s\n", date, tz)
		fmt.Fprintf(w, "  %s\n", display.Dim(fmt.Sprintf("%s, %s Asr, tolerance %d min", s.method.Name(), s.opts.Madhab, flagTolerance)))
		fmt.Fprintln(w)

		tbl := display.NewTable("Prayer", "Local", "Al Adhan", "Diff", "")
		tbl.SetAlign(3, display.AlignRight)
		for _, d := range diffs {
			tbl.AddRow(d.Name, d.Local, d.Remote, fmt.Sprintf("%+d", d.Minutes), display.Verdict(d.OK))
		}
		fmt.Fprint(w, tbl.Render())
		fmt.Fprintln(w)
	}

	if !agree {
		off := 0
		for _, d := range diffs {
			if !d.OK {
				off++
			}
		}
		return fmt.Errorf("%d of %d times differ by more than %d min", off, len(diffs), flagTolerance)
	}
	return nil
}
