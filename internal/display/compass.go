package display

import (
	"fmt"
	"math"
	"strings"
)

var arrows = []string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}

// Arrow returns the arrow nearest to a bearing in degrees clockwise from
// north.
func Arrow(bearing float64) string {
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	return arrows[int(math.Round(b/45))%len(arrows)]
}

// Compass draws a small rose with the qibla arrow in the centre, e.g.
//
//	    N
//	W   ↗   E
//	    S
func Compass(bearing float64) string {
	var sb strings.Builder
	sb.WriteString("      " + Dim("N") + "\n")
	fmt.Fprintf(&sb, "  %s   %s   %s\n", Dim("W"), Accent(Arrow(bearing)), Dim("E"))
	sb.WriteString("      " + Dim("S") + "\n")
	return sb.String()
}
