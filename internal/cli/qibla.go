package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/qibla"
)

var flagHeading float64

func newQiblaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qibla",
		Short: "Show the direction of the Kaaba",
		Long: "Print the great-circle bearing from your location to the Kaaba in Mecca,\n" +
			"in degrees clockwise from true north, and the distance to it.",
		Args: cobra.NoArgs,
		RunE: runQibla,
	}
	cmd.Flags().Float64Var(&flagHeading, "heading", 0, "Your current compass heading; prints how far to turn")
	return cmd
}

type qiblaJSON struct {
	Location   locationJSON `json:"location"`
	Bearing    float64      `json:"bearing"`
	Cardinal   string       `json:"cardinal"`
	DistanceKm int          `json:"distance_km"`
	Relative   *float64     `json:"relative,omitempty"`
}

func runQibla(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("heading") && (flagHeading < 0 || flagHeading > 360) {
		return fmt.Errorf("invalid --heading %v: must be between 0 and 360", flagHeading)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	bearing := qibla.Bearing(s.loc.Coordinates)
	var relative *float64
	if cmd.Flags().Changed("heading") {
		r := qibla.Relative(bearing, flagHeading)
		relative = &r
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		out := qiblaJSON{
			Location:   newLocationJSON(s),
			Bearing:    math.Round(bearing*100) / 100,
			Cardinal:   qibla.Cardinal(bearing),
			DistanceKm: qibla.DistanceKm(s.loc.Coordinates),
		}
		if relative != nil {
			r := math.Round(*relative*100) / 100
			out.Relative = &r
		}
		return writeJSON(w, out)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Qibla Direction"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-9s %s\n", "Bearing", display.Accent(fmt.Sprintf("%.1f° %s", bearing, qibla.Cardinal(bearing))))
	fmt.Fprintf(w, "  %-9s %d km\n", "Distance", qibla.DistanceKm(s.loc.Coordinates))
	if relative != nil {
		fmt.Fprintf(w, "  %-9s %s\n", "Turn", turnHint(*relative))
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, display.Compass(bearing))
	fmt.Fprintln(w)
	return nil
}

// turnHint describes the shorter way to turn by a clockwise angle.
func turnHint(relative float64) string {
	switch {
	case relative < 0.5 || relative > 359.5:
		return "you are facing the qibla"
	case relative <= 180:
		return fmt.Sprintf("%.0f° to the right", relative)
	default:
		return fmt.Sprintf("%.0f° to the left", 360-relative)
	}
}
