package display

import (
	"strings"
	"testing"
)

func TestArrow(t *testing.T) {
	tests := []struct {
		bearing float64
		want    string
	}{
		{0, "↑"},
		{22.4, "↑"},
		{22.6, "↗"},
		{58.52, "↗"},
		{90, "→"},
		{118.99, "↘"},
		{180, "↓"},
		{270, "←"},
		{293, "↖"},
		{359, "↑"},
		{-90, "←"},
		{720, "↑"},
	}
	for _, tt := range tests {
		if got := Arrow(tt.bearing); got != tt.want {
			t.Errorf("Arrow(%v) = %s, want %s", tt.bearing, got, tt.want)
		}
	}
}

func TestCompass(t *testing.T) {
	withColor(t, false)

	out := Compass(90)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Compass has %d lines:\n%s", len(lines), out)
	}
	if strings.TrimSpace(lines[0]) != "N" || strings.TrimSpace(lines[2]) != "S" {
		t.Errorf("Compass =\n%s", out)
	}
	if lines[1] != "  W   →   E" {
		t.Errorf("middle line = %q", lines[1])
	}
}
