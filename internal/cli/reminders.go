package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/notify"
	"github.com/revert-companion/prayer-times/internal/prayer"
)

func newRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Show when prayer reminders are due",
		Long: "List the reminder for each of the five prayers, fired notifications.before_minutes\n" +
			"ahead of it. Reminders already past move to tomorrow. Configure them with\n" +
			"`prayer-times config set notifications.<key> <value>`.",
		Args: cobra.NoArgs,
		RunE: runReminders,
	}
}

func runReminders(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	n := s.cfg.Notifications
	prefs := notify.Preferences{
		Enabled:       n.RemindersEnabled(),
		BeforeMinutes: n.Lead(),
		Sound:         n.SoundEnabled(),
	}
	prayers, err := s.prayers(s.today(), prayer.Obligatory)
	if err != nil {
		return err
	}
	reminders := notify.Schedule(prayers, s.now, prefs)

	w := cmd.OutOrStdout()
	if FlagJSON {
		if reminders == nil {
			reminders = []notify.Reminder{}
		}
		return writeJSON(w, reminders)
	}

	if !prefs.Enabled {
		fmt.Fprintln(w, "Reminders are disabled. Enable them with `prayer-times config set notifications.enabled true`.")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Reminders"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Dim(fmt.Sprintf("%d min before each prayer, sound %s", prefs.BeforeMinutes, onOff(prefs.Sound))))
	fmt.Fprintln(w)

	tbl := display.NewTable("Prayer", "Time", "Reminder", "Message")
	for _, r := range reminders {
		when := r.At.Format(s.timeFmt)
		if r.At.YearDay() != s.now.YearDay() {
			when += " (tomorrow)"
		}
		tbl.AddRow(r.Prayer, r.PrayerAt.Format(s.timeFmt), when, r.Body)
	}
	if next := notify.Next(reminders, s.now); next != nil {
		for i := range reminders {
			if &reminders[i] == next {
				tbl.Highlight(i)
			}
		}
	}

	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
