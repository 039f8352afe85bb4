package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RowState marks how a table row is highlighted.
type RowState int

const (
	RowNormal RowState = iota
	RowCurrent
	RowNext
	RowMuted
)

// Table renders an aligned text table with optional color support.
type Table struct {
	headers []string
	rows    [][]string
	states  map[int]RowState
}

// NewTable creates a new table with the given column headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		states:  make(map[int]RowState),
	}
}

// AddRow appends a row of values. The number of values should match the number of headers.
func (t *Table) AddRow(values []string) {
	t.rows = append(t.rows, values)
}

// SetRowState sets how the row at idx (0-based) is highlighted.
func (t *Table) SetRowState(idx int, s RowState) {
	if s == RowNormal {
		delete(t.states, idx)
		return
	}
	t.states[idx] = s
}

// RowState returns the highlight of the row at idx.
func (t *Table) RowState(idx int) RowState {
	return t.states[idx]
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render produces the formatted table string with leading indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var sb strings.Builder

	sb.WriteString("  " + Bold(formatRow(t.headers, widths)) + "\n")

	sepParts := make([]string, len(widths))
	for i, w := range widths {
		sepParts[i] = strings.Repeat("─", w)
	}
	sb.WriteString(Dim("  "+strings.Join(sepParts, "  ")) + "\n")

	for i, row := range t.rows {
		line := formatRow(row, widths)
		switch t.states[i] {
		case RowCurrent:
			line = Current(line)
		case RowNext:
			line = Accent(line)
		case RowMuted:
			line = Dim(line)
		}
		sb.WriteString("  " + line + "\n")
	}

	return sb.String()
}

// formatRow pads each cell to its column width by display width, so cells
// holding "—" line up with ASCII ones.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = cell + strings.Repeat(" ", max(0, w-lipgloss.Width(cell)))
	}
	return strings.Join(parts, "  ")
}
