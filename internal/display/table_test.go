package display

import (
	"strings"
	"testing"
)

func TestTable_EmptyHeaders(t *testing.T) {
	if got := NewTable().Render(); got != "" {
		t.Errorf("Render = %q, want empty", got)
	}
}

func TestTable_BasicRender(t *testing.T) {
	withColor(t, false)

	tbl := NewTable("Prayer", "Time")
	tbl.AddRow("Fajr", "05:17")
	tbl.AddRow("Maghrib", "17:39")

	want := "" +
		"  Prayer   Time\n" +
		"  ───────  ─────\n" +
		"  Fajr     05:17\n" +
		"  Maghrib  17:39\n"
	if got := tbl.Render(); got != want {
		t.Errorf("Render =\n%s\nwant\n%s", got, want)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len = %d", tbl.Len())
	}
}

func TestTable_RightAlign(t *testing.T) {
	withColor(t, false)

	tbl := NewTable("Prayer", "Diff").SetAlign(1, AlignRight)
	tbl.AddRow("Fajr", "+2")
	tbl.AddRow("Isha", "-12")

	lines := strings.Split(tbl.Render(), "\n")
	if lines[2] != "  Fajr      +2" || lines[3] != "  Isha     -12" {
		t.Errorf("rows = %q", lines[2:4])
	}
}

func TestTable_WidthIgnoresColourAndCountsRunes(t *testing.T) {
	withColor(t, true)

	tbl := NewTable("F", "D")
	tbl.AddRow(Check(true), Check(false))

	// Each column is one screen column wide despite the escape codes and
	// multi-byte marks.
	lines := strings.Split(tbl.Render(), "\n")
	if got := width(lines[2]); got != len("  F  D") {
		t.Errorf("row width = %d, want %d (%q)", got, len("  F  D"), lines[2])
	}
}

func TestTable_Highlight(t *testing.T) {
	withColor(t, true)

	tbl := NewTable("Day")
	tbl.AddRow("Mon")
	tbl.AddRow("Tue")
	tbl.Highlight(1)

	out := tbl.Render()
	if !strings.Contains(out, Accent("Tue")) {
		t.Errorf("highlighted row not accented:\n%q", out)
	}
	if strings.Contains(out, Accent("Mon")) {
		t.Error("only the highlighted row should be accented")
	}
}

func TestTable_MissingAndExtraCells(t *testing.T) {
	withColor(t, false)

	tbl := NewTable("A", "B")
	tbl.AddRow("1")
	tbl.AddRow("1", "2", "3")

	lines := strings.Split(tbl.Render(), "\n")
	if lines[2] != "  1" {
		t.Errorf("short row = %q", lines[2])
	}
	if lines[3] != "  1  2" {
		t.Errorf("long row = %q", lines[3])
	}
}

func TestWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"05:17", 5},
		{"✓", 1},
		{"\033[32m✓\033[0m", 1},
		{"\033[1;36mAsr\033[0m", 3},
	}
	for _, tt := range tests {
		if got := width(tt.in); got != tt.want {
			t.Errorf("width(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
