package viz

import (
	"math"
	"strings"
)

const blank = 0x2800

// Dot bits of a braille cell, indexed [row][col]. A cell is two dots wide
// and four dots tall.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in dot coordinates.
type Canvas struct {
	Width, Height int // in cells
	cells         []rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([]rune, w*h)}
	c.Clear()
	return c
}

// SubSize is the canvas size in dots.
func (c *Canvas) SubSize() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (int, rune, bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, false
	}
	return row*c.Width + col, dotBits[y%4][x%2], true
}

func (c *Canvas) Set(x, y int) {
	if i, bit, ok := c.cell(x, y); ok {
		c.cells[i] |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if i, bit, ok := c.cell(x, y); ok {
		c.cells[i] &^= bit
	}
}

// IsSet reports whether the dot at (x, y) is on. Out of range dots are off.
func (c *Canvas) IsSet(x, y int) bool {
	i, bit, ok := c.cell(x, y)
	return ok && c.cells[i]&bit != 0
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = blank
	}
}

// DrawLine uses Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) { c.line(x0, y0, x1, y1, 0) }

// DrawDashed draws every other run of dash dots.
func (c *Canvas) DrawDashed(x0, y0, x1, y1, dash int) { c.line(x0, y0, x1, y1, dash) }

func (c *Canvas) line(x0, y0, x1, y1, dash int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for n := 0; ; n++ {
		if dash <= 0 || (n/dash)%2 == 0 {
			c.Set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawRay draws a segment of the given length from (x, y). Angles are in
// radians, counter-clockwise from +x, with y growing down the screen.
func (c *Canvas) DrawRay(x, y int, angle, length float64) {
	x1, y1 := polar(x, y, angle, length)
	c.DrawLine(x, y, x1, y1)
}

func polar(x, y int, angle, r float64) (int, int) {
	return x + int(math.Round(r*math.Cos(angle))), y - int(math.Round(r*math.Sin(angle)))
}

// DrawArc plots the arc of radius r around (cx, cy) between angles from and
// to, in radians.
func (c *Canvas) DrawArc(cx, cy int, r, from, to float64) {
	if to < from {
		from, to = to, from
	}
	if r <= 0 {
		return
	}
	step := 0.5 / r
	for a := from; a <= to+step/2; a += step {
		c.Set(polar(cx, cy, a, r))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for row := 0; row < c.Height; row++ {
		b.WriteString(string(c.cells[row*c.Width : (row+1)*c.Width]))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
