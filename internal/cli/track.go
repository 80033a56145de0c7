package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/progress"
	"github.com/revert-companion/prayer-times/internal/solar"
)

var (
	flagDataDir   string
	flagTrackDate string
	flagMissed    bool
)

func newTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Track daily prayers, streaks and lessons",
		Long: "Record the prayers you have prayed and see your streak, points and achievements.\n" +
			"Without a subcommand, shows today's prayers and your stats.",
		Args: cobra.NoArgs,
		RunE: runTrackShow,
	}
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Progress directory (default: ~/.local/share/prayer-times/)")

	record := &cobra.Command{
		Use:   "record <prayer>",
		Short: "Mark a prayer as prayed",
		Long:  "Mark one of fajr, dhuhr, asr, maghrib or isha as prayed (or missed with --missed).",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrackRecord,
	}
	record.Flags().StringVar(&flagTrackDate, "date", "", "Date to record, YYYY-MM-DD (default: today)")
	record.Flags().BoolVar(&flagMissed, "missed", false, "Clear the prayer instead of marking it")
	cmd.AddCommand(record)

	cmd.AddCommand(&cobra.Command{
		Use:   "lesson <id>",
		Short: "Mark a lesson as completed",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrackLesson,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show streak, points and completion rate",
		Args:  cobra.NoArgs,
		RunE:  runTrackStats,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "achievements",
		Short: "List achievements",
		Args:  cobra.NoArgs,
		RunE:  runTrackAchievements,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete all tracked progress",
		Args:  cobra.NoArgs,
		RunE:  runTrackReset,
	})

	return cmd
}

func newTracker() (*progress.Tracker, error) {
	store, err := progress.NewFileStore(flagDataDir)
	if err != nil {
		return nil, err
	}
	return progress.NewTrackerWithClock(store, nowFunc), nil
}

func trackToday() solar.Date {
	return progress.Today(nowFunc())
}

func runTrackShow(cmd *cobra.Command, args []string) error {
	t, err := newTracker()
	if err != nil {
		return err
	}
	p, err := t.Progress(cmd.Context())
	if err != nil {
		return err
	}

	today := trackToday()
	stats := p.Stats(today)
	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, trackJSON{
			Date:         today.String(),
			Today:        p.DailyPrayers[today.String()],
			Stats:        stats,
			Achievements: stats.Achievements(),
		})
	}

	day := p.DailyPrayers[today.String()]
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Today's Prayers"))
	fmt.Fprintf(w, "  %s\n", today.Time(time.Local).Format("Monday, 02 January 2006"))
	fmt.Fprintln(w)
	for _, name := range prayer.Obligatory {
		fmt.Fprintf(w, "  %s %s\n", display.Check(prayed(day, name)), name)
	}
	fmt.Fprintln(w)
	printStats(w, stats)
	return nil
}

func prayed(d progress.Day, name string) bool {
	switch name {
	case "Fajr":
		return d.Fajr
	case "Dhuhr":
		return d.Dhuhr
	case "Asr":
		return d.Asr
	case "Maghrib":
		return d.Maghrib
	case "Isha":
		return d.Isha
	}
	return false
}

func runTrackRecord(cmd *cobra.Command, args []string) error {
	date := trackToday()
	if flagTrackDate != "" {
		d, err := time.Parse(time.DateOnly, flagTrackDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", flagTrackDate)
		}
		date = solar.DateOf(d)
	}

	t, err := newTracker()
	if err != nil {
		return err
	}
	before, err := t.Progress(cmd.Context())
	if err != nil {
		return err
	}
	p, err := t.RecordPrayer(cmd.Context(), date, args[0], !flagMissed)
	if err != nil {
		return err
	}

	name := canonicalName(args[0])
	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, p)
	}
	if flagMissed {
		fmt.Fprintf(w, "%s %s cleared for %s\n", display.Check(false), name, date)
	} else {
		fmt.Fprintf(w, "%s %s recorded for %s\n", display.Check(true), name, date)
	}
	if gained := p.TotalPoints - before.TotalPoints; gained > 0 {
		fmt.Fprintf(w, "%s\n", display.Green(fmt.Sprintf("All five prayers done: +%d points (streak %d)", gained, p.Streak)))
	}
	return nil
}

func runTrackLesson(cmd *cobra.Command, args []string) error {
	t, err := newTracker()
	if err != nil {
		return err
	}
	before, err := t.Progress(cmd.Context())
	if err != nil {
		return err
	}
	p, err := t.MarkLessonComplete(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, p)
	}
	if p.TotalPoints == before.TotalPoints {
		fmt.Fprintf(w, "Lesson %q was already completed\n", args[0])
		return nil
	}
	fmt.Fprintf(w, "%s Lesson %q completed: +%d points\n", display.Check(true), args[0], progress.PointsPerLesson)
	return nil
}

func runTrackStats(cmd *cobra.Command, args []string) error {
	t, err := newTracker()
	if err != nil {
		return err
	}
	stats, err := t.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), stats)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	printStats(cmd.OutOrStdout(), stats)
	return nil
}

func printStats(w io.Writer, s progress.Stats) {
	rows := []struct {
		label, value string
	}{
		{"Streak", fmt.Sprintf("%d days", s.Streak)},
		{"Points", fmt.Sprint(s.TotalPoints)},
		{"Prayers", fmt.Sprint(s.TotalPrayers)},
		{"Complete", fmt.Sprintf("%d of %d days (%d%%)", s.CompleteDays, s.DaysTracked, s.CompletionRate)},
		{"Lessons", fmt.Sprint(s.LessonsCompleted)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-9s %s\n", r.label, r.value)
	}
	fmt.Fprintln(w)
}

func runTrackAchievements(cmd *cobra.Command, args []string) error {
	t, err := newTracker()
	if err != nil {
		return err
	}
	stats, err := t.Stats(cmd.Context())
	if err != nil {
		return err
	}

	achievements := stats.Achievements()
	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, achievements)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Achievements"))
	fmt.Fprintln(w)
	for _, a := range achievements {
		line := fmt.Sprintf("%-18s %s", a.Title, a.Description)
		if a.Unlocked {
			fmt.Fprintf(w, "  %s %s\n", display.Check(true), line)
		} else {
			fmt.Fprintf(w, "  %s %s\n", display.Check(false), display.Dim(line))
		}
	}
	fmt.Fprintln(w)
	return nil
}

func runTrackReset(cmd *cobra.Command, args []string) error {
	t, err := newTracker()
	if err != nil {
		return err
	}
	if err := t.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Progress reset.")
	return nil
}

type trackJSON struct {
	Date         string                 `json:"date"`
	Today        progress.Day           `json:"today"`
	Stats        progress.Stats         `json:"stats"`
	Achievements []progress.Achievement `json:"achievements"`
}
