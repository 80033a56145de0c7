package display

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Align is a column's alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders an aligned text table.
type Table struct {
	headers []string
	align   []Align
	rows    [][]string
	// highlight is the row drawn with Accent, typically today. -1 for none.
	highlight int
}

// NewTable creates a table with the given column headers, all left
// aligned.
func NewTable(headers ...string) *Table {
	return &Table{
		headers:   headers,
		align:     make([]Align, len(headers)),
		highlight: -1,
	}
}

// SetAlign sets the alignment of column col.
func (t *Table) SetAlign(col int, a Align) *Table {
	if col >= 0 && col < len(t.align) {
		t.align[col] = a
	}
	return t
}

// AddRow appends a row. Missing cells render blank; extra cells are
// dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Highlight marks row idx (0-based) for emphasis.
func (t *Table) Highlight(idx int) {
	t.highlight = idx
}

var ansi = regexp.MustCompile("\033\\[[0-9;]*m")

// width is the number of columns text occupies on screen, ignoring colour
// codes. Every rune is taken to be one column wide.
func width(text string) int {
	return utf8.RuneCountInString(ansi.ReplaceAllString(text, ""))
}

// Render produces the table with a two-space indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], width(cell))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("  " + Bold(t.formatRow(t.headers, widths)) + "\n")

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	sb.WriteString(Dim("  "+strings.Join(sep, "  ")) + "\n")

	for i, row := range t.rows {
		line := t.formatRow(row, widths)
		if i == t.highlight {
			line = Accent(line)
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

func (t *Table) formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", w-width(cell))
		if t.align[i] == AlignRight {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
