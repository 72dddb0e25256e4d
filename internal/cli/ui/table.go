package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

const columnGap = "  "

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
}

// Table prints rows aligned under bold headers
type Table struct {
	w       io.Writer
	headers []string
	rows    [][]string
	header  *color.Color
	rule    *color.Color
}

// NewTable creates a table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	t := &Table{
		w:       w,
		headers: headers,
		header:  color.New(color.Bold, color.FgCyan),
		rule:    color.New(color.FgHiBlack),
	}
	if opts != nil && opts.NoColor {
		t.header.DisableColor()
		t.rule.DisableColor()
	}
	return t
}

// AddRow adds a row. Cells past the last header are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the headers, a rule and the rows. A table without headers
// writes nothing.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}
	widths := t.widths()

	t.line(widths, t.headers, t.header)
	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("─", width)
	}
	t.line(widths, rule, t.rule)
	for _, row := range t.rows {
		t.line(widths, row, nil)
	}
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}
	return widths
}

func (t *Table) line(widths []int, cells []string, c *color.Color) {
	n := min(len(cells), len(widths))
	for i := 0; i < n; i++ {
		cell := padRight(cells[i], widths[i])
		if i < n-1 {
			cell += columnGap
		}
		if c != nil {
			c.Fprint(t.w, cell)
		} else {
			fmt.Fprint(t.w, cell)
		}
	}
	fmt.Fprintln(t.w)
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// KeyValueTable prints "key: value" lines with the values aligned
type KeyValueTable struct {
	w    io.Writer
	keys []string
	vals []string
	key  *color.Color
}

// NewKeyValueTable creates a key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	t := &KeyValueTable{w: w, key: color.New(color.FgCyan)}
	if noColor {
		t.key.DisableColor()
	}
	return t
}

// AddRow adds a key-value pair
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.vals = append(t.vals, value)
}

// Render writes the pairs in insertion order
func (t *KeyValueTable) Render() {
	width := 0
	for _, key := range t.keys {
		width = max(width, utf8.RuneCountInString(key)+1)
	}
	for i, key := range t.keys {
		t.key.Fprint(t.w, padRight(key+":", width))
		fmt.Fprintf(t.w, " %s\n", t.vals[i])
	}
}

// Title writes a bold section title
func Title(w io.Writer, title string, noColor bool) {
	c := color.New(color.Bold, color.FgCyan)
	if noColor {
		c.DisableColor()
	}
	c.Fprintln(w, title)
}
