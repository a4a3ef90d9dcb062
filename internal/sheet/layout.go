package sheet

import (
	"image"
	"math"
)

// Scale is an optional uniform multiplier of the cell size. Zero means
// absent and behaves exactly like 1.
type Scale float64

// Active reports whether cells are resized.
func (s Scale) Active() bool { return s != 0 && s != 1 }

// Apply multiplies n by the scale and truncates.
func (s Scale) Apply(n int) int {
	if !s.Active() {
		return n
	}
	return int(float64(n) * float64(s))
}

// Layout is the grid of one sheet.
type Layout struct {
	Columns    int
	Rows       int
	CellWidth  int
	CellHeight int
}

// NewLayout returns the square-ish grid for n cells of the given size:
// columns = ceil(sqrt(n)), rows = ceil(n / columns).
func NewLayout(n, cellW, cellH int) Layout {
	if n <= 0 {
		return Layout{CellWidth: cellW, CellHeight: cellH}
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	return Layout{Columns: cols, Rows: rows, CellWidth: cellW, CellHeight: cellH}
}

// Size returns the sheet dimensions in pixels.
func (l Layout) Size() (w, h int) {
	return l.Columns * l.CellWidth, l.Rows * l.CellHeight
}

// Cell returns the grid column and row of index i.
func (l Layout) Cell(i int) (col, row int) {
	return i % l.Columns, i / l.Columns
}

// Offset returns the top-left pixel of cell i.
func (l Layout) Offset(i int) image.Point {
	col, row := l.Cell(i)
	return image.Pt(col*l.CellWidth, row*l.CellHeight)
}
