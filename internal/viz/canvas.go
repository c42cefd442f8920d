package viz

import (
	"math"
	"strings"
)

// Braille cells are 2 dots wide and 4 tall:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var dotMask = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a character grid addressed in braille sub-pixels, so a Width by
// Height canvas has 2*Width by 4*Height dots.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Set lights the dot at sub-pixel (x, y); out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, mask, ok := c.locate(x, y); ok {
		c.cells[row][col] |= mask
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, mask, ok := c.locate(x, y); ok {
		c.cells[row][col] &^= mask
	}
}

// IsSet reports whether the dot at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	row, col, mask, ok := c.locate(x, y)
	return ok && c.cells[row][col]&mask != 0
}

func (c *Canvas) locate(x, y int) (row, col int, mask rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, dotMask[y%4][x%2], true
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

// Viewport maps a rectangle of state space onto a canvas, with Y growing
// upwards.
type Viewport struct {
	XMin, XMax float64
	YMin, YMax float64
}

// ToDots converts a world point to sub-pixel coordinates. Points outside
// the viewport map outside the canvas and are clipped by Set.
func (v Viewport) ToDots(c *Canvas, x, y float64) (int, int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, false
	}
	w, h := c.Dots()
	fx := (x - v.XMin) / (v.XMax - v.XMin)
	fy := (y - v.YMin) / (v.YMax - v.YMin)
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return 0, 0, false
	}
	px := int(math.Round(fx * float64(w-1)))
	py := int(math.Round((1 - fy) * float64(h-1)))
	return px, py, true
}

// Plot lights the dot nearest to the world point (x, y).
func (c *Canvas) Plot(v Viewport, x, y float64) {
	if px, py, ok := v.ToDots(c, x, y); ok {
		c.Set(px, py)
	}
}

// PlotLine joins two world points. Segments with an endpoint outside the
// viewport are skipped.
func (c *Canvas) PlotLine(v Viewport, x0, y0, x1, y1 float64) {
	p0x, p0y, ok0 := v.ToDots(c, x0, y0)
	p1x, p1y, ok1 := v.ToDots(c, x1, y1)
	if ok0 && ok1 {
		c.DrawLine(p0x, p0y, p1x, p1y)
	}
}

// PlotFunc samples f once per horizontal dot and connects the samples.
func (c *Canvas) PlotFunc(v Viewport, f func(float64) float64) {
	w, _ := c.Dots()
	prevX, prevY, havePrev := 0.0, 0.0, false
	for i := 0; i < w; i++ {
		x := v.XMin + (v.XMax-v.XMin)*float64(i)/float64(w-1)
		y := f(x)
		if havePrev {
			c.PlotLine(v, prevX, prevY, x, y)
		} else {
			c.Plot(v, x, y)
		}
		prevX, prevY, havePrev = x, y, true
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
