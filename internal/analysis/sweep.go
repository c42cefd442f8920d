package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// SweepPoint is the phase line at one parameter value.
type SweepPoint struct {
	Param               float64              `yaml:"param" json:"param"`
	Equilibria          []Equilibrium        `yaml:"equilibria" json:"equilibria"`
	DegenerateIntervals []DegenerateInterval `yaml:"degenerate_intervals,omitempty" json:"degenerate_intervals,omitempty"`
}

// SweepParameter analyzes the phase line of sys for steps values of the
// parameter name evenly spaced over [pMin, pMax]. This is the bifurcation
// diagram of a one-dimensional system. Passes run in parallel; the result
// is ordered by parameter value.
func SweepParameter(
	sys *dynamo.System,
	params dynamo.Params,
	name string,
	pMin, pMax float64,
	steps int,
	xMin, xMax float64,
	cfg Config,
) ([]SweepPoint, error) {
	if !sys.IsValid() {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidSystem, sys.Err())
	}
	if !hasParam(sys, name) {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}
	if steps < 2 {
		steps = 2
	}
	stepSize := (pMax - pMin) / float64(steps-1)
	out := make([]SweepPoint, steps)
	errs := make([]error, steps)
	dynamo.ParallelFor(steps, 4, func(start, end int) {
		p := params.Clone()
		for i := start; i < end; i++ {
			v := pMin + float64(i)*stepSize
			p[name] = v
			pl, err := AnalyzePhaseLine(sys, p, xMin, xMax, cfg)
			if err != nil {
				errs[i] = fmt.Errorf("%s=%g: %w", name, v, err)
				continue
			}
			out[i] = SweepPoint{
				Param:               v,
				Equilibria:          pl.Equilibria,
				DegenerateIntervals: pl.DegenerateIntervals,
			}
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func hasParam(sys *dynamo.System, name string) bool {
	for _, p := range sys.ParamNames() {
		if p == name {
			return true
		}
	}
	return false
}

// SweepToASCII draws a sweep as a character grid: parameter on the
// horizontal axis, X vertically. Stable equilibria are '*', unstable 'o'
// and semi-stable '+'; degenerate intervals are shaded with '='.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range data {
		for _, eq := range p.Equilibria {
			minVal = math.Min(minVal, eq.X)
			maxVal = math.Max(maxVal, eq.X)
		}
		for _, iv := range p.DegenerateIntervals {
			minVal = math.Min(minVal, iv.XMin)
			maxVal = math.Max(maxVal, iv.XMax)
		}
	}
	if math.IsInf(minVal, 0) {
		return ""
	}
	if maxVal == minVal {
		minVal -= 0.5
		maxVal += 0.5
	}

	canvas := newCanvas(width, height)
	row := func(v float64) int {
		return height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
	}
	for i, p := range data {
		col := i * width / len(data)
		for _, iv := range p.DegenerateIntervals {
			for r := row(iv.XMax); r <= row(iv.XMin); r++ {
				canvas.set(col, r, '=')
			}
		}
		for _, eq := range p.Equilibria {
			canvas.set(col, row(eq.X), stabilityGlyph(eq.Stability))
		}
	}
	return canvas.String()
}

func stabilityGlyph(s Stability) rune {
	switch s {
	case Stable:
		return '*'
	case Unstable:
		return 'o'
	}
	return '+'
}

type canvas struct {
	w, h  int
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = []rune(strings.Repeat(" ", w))
	}
	return c
}

func (c *canvas) set(col, row int, r rune) {
	if row >= 0 && row < c.h && col >= 0 && col < c.w {
		c.cells[row][col] = r
	}
}

func (c *canvas) get(col, row int) rune {
	if row >= 0 && row < c.h && col >= 0 && col < c.w {
		return c.cells[row][col]
	}
	return 0
}

func (c *canvas) String() string {
	var sb strings.Builder
	for _, row := range c.cells {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
