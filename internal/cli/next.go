package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/prayer"
)

var (
	flagFormat  string
	flagPrayers string
)

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Display the next upcoming prayer time with a countdown.\nThis is equivalent to the tmux-prayer-times status line.",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, "Display format: "+strings.Join(prayer.Modes(), ", ")+", or a custom Go template")
	cmd.Flags().StringVar(&flagPrayers, "prayers", "", "Comma-separated list of prayers to track (overrides config)")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	// Priority: --prayers flag > config > defaults.
	selected := s.cfg.PrayerNames(prayer.DefaultPrayerNames)
	if cmd.Flags().Changed("prayers") && flagPrayers != "" {
		selected = splitNames(flagPrayers)
	}

	next, err := s.upcoming(selected)
	if err != nil {
		return err
	}
	if next == nil {
		// Near the poles none of the selected times may occur; show a
		// placeholder rather than breaking the status bar.
		fmt.Fprint(cmd.OutOrStdout(), prayer.Undefined)
		return nil
	}

	if FlagJSON {
		d := prayer.NewFormatData(*next, s.now, s.timeFmt)
		return writeJSON(cmd.OutOrStdout(), nextJSON{
			Prayer:    strings.ToLower(d.Name),
			Time:      d.Time,
			Date:      d.Date,
			Remaining: d.Remaining,
		})
	}

	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(*next, s.now, flagFormat, s.timeFmt))
	return nil
}

// splitNames parses a comma-separated prayer list, normalising case.
func splitNames(list string) []string {
	var names []string
	for _, n := range strings.Split(list, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		names = append(names, canonicalName(n))
	}
	return names
}

// canonicalName returns the calculator's spelling of a prayer name, or
// name unchanged when it is not one.
func canonicalName(name string) string {
	for _, known := range prayer.AllPrayerNames {
		if strings.EqualFold(known, name) {
			return known
		}
	}
	return name
}
