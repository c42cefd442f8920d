package analysis

import (
	"math"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// Point is one sample of a planar trajectory.
type Point struct {
	X, Y float64
}

// PhasePortrait2D is a trajectory of a planar system.
type PhasePortrait2D struct {
	Points []Point
	// Frozen is set when the integrator stopped advancing on a non-finite
	// derivative before the horizon.
	Frozen bool
}

// GeneratePhasePortrait integrates a planar system from (x0, y0) and
// records every step up to duration.
func GeneratePhasePortrait(
	sys *dynamo.System,
	integ dynamo.Integrator,
	params dynamo.Params,
	x0, y0 float64,
	dt, duration float64,
) (*PhasePortrait2D, error) {
	if !sys.IsValid() {
		return nil, sys.Err()
	}
	if sys.Dim() != 2 {
		return nil, ErrNotPlanar
	}

	steps := int(duration / dt)
	portrait := &PhasePortrait2D{Points: make([]Point, 0, steps+1)}
	b := sys.Bind(params)
	x := dynamo.State{x0, y0}
	portrait.Points = append(portrait.Points, Point{x0, y0})

	for i := 0; i < steps; i++ {
		next, ok := integ.StepChecked(sys, b, x, dt)
		if !ok {
			portrait.Frozen = true
			break
		}
		x = next
		portrait.Points = append(portrait.Points, Point{x[0], x[1]})
	}
	return portrait, nil
}

// PhasePortraitToASCII plots the trajectory with axes through the origin
// when it is in view.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width <= 1 || height <= 1 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	c := newCanvas(width, height)
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		c.set(col, row, '•')
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if c.get(col, row) == ' ' {
				c.set(col, row, '│')
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if c.get(col, row) == ' ' {
				c.set(col, row, '─')
			}
		}
	}
	return c.String()
}

// FieldSample is the planar field evaluated at one grid point.
type FieldSample struct {
	X, Y   float64
	DX, DY float64
}

// VectorField evaluates a planar system on an nx by ny grid spanning the
// given rectangle, row by row from yMin.
func VectorField(sys *dynamo.System, params dynamo.Params, xMin, xMax, yMin, yMax float64, nx, ny int) ([]FieldSample, error) {
	if !sys.IsValid() {
		return nil, sys.Err()
	}
	if sys.Dim() != 2 {
		return nil, ErrNotPlanar
	}
	if nx < 2 || ny < 2 || !(xMin < xMax) || !(yMin < yMax) {
		return nil, ErrInvalidDomain
	}

	b := sys.Bind(params)
	out := make([]FieldSample, 0, nx*ny)
	for j := 0; j < ny; j++ {
		y := yMin + float64(j)*(yMax-yMin)/float64(ny-1)
		for i := 0; i < nx; i++ {
			x := xMin + float64(i)*(xMax-xMin)/float64(nx-1)
			dx, dy := sys.Field(b, x, y)
			out = append(out, FieldSample{X: x, Y: y, DX: dx, DY: dy})
		}
	}
	return out, nil
}

var arrows = [8]rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

// VectorFieldToASCII renders a grid from VectorField as arrows, nx per
// row, top row last in y. Zero or non-finite vectors are drawn as '·'.
func VectorFieldToASCII(field []FieldSample, nx int) string {
	if nx <= 0 || len(field) == 0 {
		return ""
	}
	ny := len(field) / nx
	c := newCanvas(nx*2, ny)
	for k, s := range field {
		i, j := k%nx, k/nx
		c.set(i*2, ny-1-j, arrowGlyph(s.DX, s.DY))
	}
	return c.String()
}

func arrowGlyph(dx, dy float64) rune {
	if (dx == 0 && dy == 0) || !finite(dx) || !finite(dy) {
		return '·'
	}
	angle := math.Atan2(dy, dx)
	sector := int(math.Round(angle/(math.Pi/4))) & 7
	return arrows[sector]
}
