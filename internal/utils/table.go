package utils

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/maxkimambo/dagsched/internal/schedule"
)

// Table renders rows of cells with box-drawing borders
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table with the given column headers
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow appends a row. Missing cells are left blank, extra cells are an error.
func (t *Table) AddRow(cells ...string) error {
	if len(cells) > len(t.headers) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.headers))
	}
	row := make([]string, len(t.headers))
	copy(row, cells)
	for i, cell := range row {
		if w := utf8.RuneCountInString(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// String returns the formatted table
func (t *Table) String() string {
	var sb strings.Builder
	t.border(&sb, "┌", "┬", "┐")
	t.line(&sb, t.headers)
	t.border(&sb, "├", "┼", "┤")
	for _, row := range t.rows {
		t.line(&sb, row)
	}
	t.border(&sb, "└", "┴", "┘")
	return sb.String()
}

func (t *Table) line(sb *strings.Builder, cells []string) {
	sb.WriteString("│")
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(cell)
		sb.WriteString(strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell)))
		sb.WriteString(" │")
	}
	sb.WriteString("\n")
}

func (t *Table) border(sb *strings.Builder, left, middle, right string) {
	sb.WriteString(left)
	for i, w := range t.widths {
		sb.WriteString(strings.Repeat("─", w+2))
		if i < len(t.widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
}

// ParamsTable lists every parameter with its values, sorted by name
func ParamsTable(params schedule.Params) *Table {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	table := NewTable("Parameter", "Values")
	for _, name := range names {
		values := make([]string, 0, len(params[name]))
		for _, v := range params[name] {
			values = append(values, fmt.Sprint(v))
		}
		_ = table.AddRow(name, strings.Join(values, ", "))
	}
	return table
}
