package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = "  "

// table lays out cells in columns sized to the widest display width.
type table struct {
	header  []string
	rows    [][]string
	numeric map[int]bool
}

func newTable(header ...string) *table {
	return &table{header: header, numeric: map[int]bool{}}
}

// alignRight marks columns whose cells are right aligned.
func (t *table) alignRight(cols ...int) *table {
	for _, c := range cols {
		t.numeric[c] = true
	}
	return t
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// lines renders the header, if any, followed by each row. Trailing padding
// is trimmed.
func (t *table) lines() []string {
	widths := t.columnWidths()
	if len(widths) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.rows)+1)
	if len(t.header) > 0 {
		out = append(out, t.render(t.header, widths))
	}
	for _, row := range t.rows {
		out = append(out, t.render(row, widths))
	}
	return out
}

func (t *table) columnWidths() []int {
	var widths []int
	grow := func(cells []string) {
		for i, cell := range cells {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	grow(t.header)
	for _, row := range t.rows {
		grow(row)
	}
	return widths
}

func (t *table) render(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", max(0, width-runewidth.StringWidth(cell)))
		if t.numeric[i] {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, columnGap), " ")
}
