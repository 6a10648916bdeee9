package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a simple ANSI-aware table printer
type Table struct {
	writer    io.Writer
	maxWidths map[int]int
	headers   []string
	rows      [][]string
	padding   int
}

// NewTable creates a new table writing to w
func NewTable(w io.Writer) *Table {
	return &Table{
		writer:    w,
		maxWidths: make(map[int]int),
		padding:   2,
	}
}

// SetHeaders sets the table headers
func (t *Table) SetHeaders(headers ...string) {
	t.headers = headers
}

// SetMaxWidth wraps cells of column col at width display cells
func (t *Table) SetMaxWidth(col, width int) {
	t.maxWidths[col] = width
}

// AddRow adds a row to the table
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render prints the table
func (t *Table) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	numCols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	var lines [][]string
	if len(t.headers) > 0 {
		lines = append(lines, t.headers)
	}
	for _, row := range t.rows {
		lines = append(lines, t.wrapRow(row)...)
	}

	colWidths := make([]int, numCols)
	for _, line := range lines {
		for i, col := range line {
			if w := VisibleLen(col); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	for _, line := range lines {
		t.printRow(line, colWidths)
	}
}

// wrapRow splits a row into several physical lines when a column has a max width.
// Styled cells are wrapped on their plain text.
func (t *Table) wrapRow(row []string) [][]string {
	cells := make([][]string, len(row))
	height := 1
	for i, col := range row {
		limit, ok := t.maxWidths[i]
		if !ok || VisibleLen(col) <= limit {
			cells[i] = []string{col}
			continue
		}
		cells[i] = strings.Split(runewidth.Wrap(StripANSI(col), limit), "\n")
		if len(cells[i]) > height {
			height = len(cells[i])
		}
	}

	out := make([][]string, height)
	for line := range out {
		out[line] = make([]string, len(row))
		for i := range row {
			if line < len(cells[i]) {
				out[line][i] = cells[i][line]
			}
		}
	}
	return out
}

func (t *Table) printRow(row []string, widths []int) {
	for i, col := range row {
		pad := widths[i] - VisibleLen(col)

		fmt.Fprint(t.writer, col)

		// Add padding if not last column
		if i < len(row)-1 {
			fmt.Fprint(t.writer, strings.Repeat(" ", pad+t.padding))
		}
	}
	fmt.Fprintln(t.writer)
}

// StripANSI removes ANSI escape codes from a string
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// VisibleLen returns the visible length of a string (excluding ANSI codes)
func VisibleLen(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}
