// Package display renders terminal output: ANSI colour, aligned tables
// and the qibla compass.
//
// Colour honours NO_COLOR (https://no-color.org/) and is switched off when
// stdout is not a terminal. FORCE_COLOR switches it on regardless.
package display

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape codes for styling.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	fgGray = "\033[90m" // bright black
)

var enabled = shouldEnable()

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetEnabled overrides the detected colour state, e.g. for --json output.
func SetEnabled(b bool) {
	enabled = b
}

// Enabled reports whether colour output is active.
func Enabled() bool {
	return enabled
}

func wrap(code, text string) string {
	if !enabled {
		return text
	}
	return code + text + reset
}

// Bold returns text rendered in bold.
func Bold(text string) string { return wrap(bold, text) }

// Dim returns text rendered faint.
func Dim(text string) string { return wrap(dim, text) }

// Green returns text rendered in green.
func Green(text string) string { return wrap(green, text) }

// Yellow returns text rendered in yellow.
func Yellow(text string) string { return wrap(yellow, text) }

// Red returns text rendered in red.
func Red(text string) string { return wrap(red, text) }

// Cyan returns text rendered in cyan.
func Cyan(text string) string { return wrap(cyan, text) }

// Gray returns text rendered in gray.
func Gray(text string) string { return wrap(fgGray, text) }

// Accent highlights the next prayer and today's row.
func Accent(text string) string { return wrap(bold+cyan, text) }

// Boldf formats and bolds a string.
func Boldf(format string, a ...any) string {
	return Bold(fmt.Sprintf(format, a...))
}

// Check renders a tracker cell: a green tick when done, a gray dot when not.
func Check(done bool) string {
	if done {
		return Green("✓")
	}
	return Gray("·")
}

// Verdict renders a pass/fail marker for verify output.
func Verdict(ok bool) string {
	if ok {
		return Green("ok")
	}
	return Red("off")
}
