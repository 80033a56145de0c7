package prayer

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"
)

// Status-line display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Full prayer name, e.g. "Asr"
	ShortName string // Abbreviated name, e.g. "A"
	Time      string // Formatted prayer time, e.g. "15:02" or "3:02 PM"
	Remaining string // Time remaining, e.g. "2h 15m"
	Hours     int    // Whole hours remaining
	Minutes   int    // Remaining minutes after hours
	Date      string // Date of the prayer, YYYY-MM-DD
}

var modes = map[string]func(FormatData) string{
	FormatTimeRemaining:      func(d FormatData) string { return d.Remaining },
	FormatNextPrayerTime:     func(d FormatData) string { return d.Time },
	FormatNameAndTime:        func(d FormatData) string { return d.Name + " " + d.Time },
	FormatNameAndRemaining:   func(d FormatData) string { return d.Name + " " + d.Remaining },
	FormatShortNameAndTime:   func(d FormatData) string { return d.ShortName + " " + d.Time },
	FormatShortNameAndRemain: func(d FormatData) string { return d.ShortName + " " + d.Remaining },
	FormatFull:               func(d FormatData) string { return fmt.Sprintf("%s %s (%s)", d.Name, d.Time, d.Remaining) },
}

// Modes returns the names of the built-in display modes, sorted.
func Modes() []string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFormatData collects the template fields for p as seen at now.
// timeFormat is a Go layout such as "15:04" or "3:04 PM".
func NewFormatData(p Prayer, now time.Time, timeFormat string) FormatData {
	d := TimeRemaining(p, now)
	if d < 0 {
		d = 0
	}
	return FormatData{
		Name:      p.Name,
		ShortName: ShortNames[p.Name],
		Time:      p.Time.Format(timeFormat),
		Remaining: FormatRemaining(d),
		Hours:     int(d.Hours()),
		Minutes:   int(d.Minutes()) % 60,
		Date:      p.Time.Format(time.DateOnly),
	}
}

// FormatOutput formats a prayer for a status line according to mode.
//
// A mode containing "{{" is a Go template over FormatData, e.g.
// "{{.Name}} in {{.Remaining}}" renders "Asr in 2h 15m". Unknown modes
// fall back to name-and-time.
func FormatOutput(p Prayer, now time.Time, mode string, timeFormat string) string {
	data := NewFormatData(p, now, timeFormat)

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, data)
	}
	if render, ok := modes[mode]; ok {
		return render(data)
	}
	return modes[FormatNameAndTime](data)
}

func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("status").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	return sb.String()
}
