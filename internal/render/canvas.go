package render

import (
	"math"
	"strings"
)

// RGB is a 24-bit terminal color.
type RGB struct {
	R, G, B uint8
}

// Cell represents a single terminal cell with full RGB color.
type Cell struct {
	Ch   rune
	Fg   RGB
	Bg   RGB
	Bold bool
}

// sentinel never equals a drawn cell, forcing a full repaint.
var sentinel = Cell{Ch: '\x00', Fg: RGB{R: 255}, Bg: RGB{B: 255}, Bold: true}

// Canvas is a grid of cells addressed by column and row.
type Canvas struct {
	width, height int
	cells         [][]Cell
}

func NewCanvas(width, height int, fill Cell) *Canvas {
	c := &Canvas{width: max(width, 0), height: max(height, 0)}
	c.cells = make([][]Cell, c.height)
	for y := range c.height {
		c.cells[y] = make([]Cell, c.width)
	}
	c.Fill(fill)
	return c
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

func (c *Canvas) Fill(fill Cell) {
	for y := range c.height {
		for x := range c.width {
			c.cells[y][x] = fill
		}
	}
}

// FillRows fills rows [from, to).
func (c *Canvas) FillRows(from, to int, fill Cell) {
	for y := max(from, 0); y < min(to, c.height); y++ {
		for x := range c.width {
			c.cells[y][x] = fill
		}
	}
}

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height
}

// At returns the cell at (x, y), or the zero Cell outside the canvas.
func (c *Canvas) At(x, y int) Cell {
	if !c.inside(x, y) {
		return Cell{}
	}
	return c.cells[y][x]
}

func (c *Canvas) Set(x, y int, cell Cell) {
	if c.inside(x, y) {
		c.cells[y][x] = cell
	}
}

// Stamp paints glyph over a w×h block with its top-left at (x, y).
// Glyphs without a background keep the one already on the canvas.
func (c *Canvas) Stamp(x, y, w, h int, g Glyph) {
	for row := range h {
		for col := range w {
			sx, sy := x+col, y+row
			if !c.inside(sx, sy) {
				continue
			}
			cell := Cell{Ch: g.Ch, Fg: g.Fg, Bold: g.Bold}
			if g.Bg != nil {
				cell.Bg = *g.Bg
			} else {
				cell.Bg = c.cells[sy][sx].Bg
			}
			c.cells[sy][sx] = cell
		}
	}
}

// StampAt converts a floating screen position and size to whole cells and
// stamps g there. Every sprite covers at least one cell.
func (c *Canvas) StampAt(px, py, w, h float64, g Glyph) {
	x, y := int(math.Floor(px)), int(math.Floor(py))
	c.Stamp(x, y, max(int(math.Round(w)), 1), max(int(math.Round(h)), 1), g)
}

// WriteText writes colored text into the bounded region [col, maxCol).
// Returns the next column position.
func (c *Canvas) WriteText(row, col, maxCol int, text string, fg, bg RGB, bold bool) int {
	for _, r := range text {
		if col >= maxCol || col >= c.width {
			break
		}
		c.Set(col, row, Cell{Ch: r, Fg: fg, Bg: bg, Bold: bold})
		col++
	}
	return col
}

// Diff appends the escape sequences that turn prev into c. With full set,
// every cell is written. prev must have the same size as c.
func (c *Canvas) Diff(sb *strings.Builder, prev *Canvas, full bool) {
	lastRow, lastCol := -1, -1
	wrote := false
	for y := range c.height {
		for x := range c.width {
			nc := c.cells[y][x]
			if full || nc != prev.cells[y][x] {
				// Only emit cursor position if not consecutive
				if y != lastRow || x != lastCol {
					sb.WriteString(MoveTo(y+1, x+1))
				}
				WriteCellSGR(sb, nc)
				lastRow = y
				lastCol = x + 1
				wrote = true
			}
		}
	}
	if wrote {
		sb.WriteString(Reset)
	}
}

// String renders the characters only, one line per row.
func (c *Canvas) String() string {
	var sb strings.Builder
	for y := range c.height {
		for x := range c.width {
			ch := c.cells[y][x].Ch
			if ch == 0 {
				ch = ' '
			}
			sb.WriteRune(ch)
		}
		if y < c.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
