// Package export renders analysis results as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/viz"
)

const (
	background  = "#0a0a0a"
	axisColor   = "#444466"
	curveColor  = "#00ccff"
	stableColor = "#00ff88"
	unstableCol = "#ff4444"
	semiColor   = "#ffcc00"
	degenColor  = "#8888ff"
)

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG draws every lit braille dot as a circle of diameter scale.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Dots()

	var sb strings.Builder
	header(&sb, float64(w)*scale, float64(h)*scale)
	sb.WriteString(`<g fill="#00ff00">` + "\n")
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, scale*0.4)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// frame maps a padded data rectangle onto width by height pixels.
type frame struct {
	minX, minY     float64
	rangeX, rangeY float64
	width, height  float64
}

func newFrame(minX, maxX, minY, maxY float64, width, height int) frame {
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	return frame{
		minX: minX, minY: minY,
		rangeX: rangeX * 1.2, rangeY: rangeY * 1.2,
		width: float64(width), height: float64(height),
	}
}

func (f frame) at(x, y float64) (float64, float64) {
	return (x - f.minX) / f.rangeX * f.width, f.height - (y-f.minY)/f.rangeY*f.height
}

// path writes a polyline, breaking it at non-finite samples.
func (f frame) path(sb *strings.Builder, xs, ys []float64, stroke string) {
	open := false
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			if open {
				sb.WriteString(`"/>` + "\n")
				open = false
			}
			continue
		}
		px, py := f.at(xs[i], ys[i])
		if !open {
			fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M%.1f,%.1f`, stroke, px, py)
			open = true
			continue
		}
		fmt.Fprintf(sb, " L%.1f,%.1f", px, py)
	}
	if open {
		sb.WriteString(`"/>` + "\n")
	}
}

// PortraitToSVG draws a planar trajectory scaled to its bounding box.
func PortraitToSVG(p *analysis.PhasePortrait2D, width, height int) string {
	if p == nil || len(p.Points) < 2 {
		return ""
	}
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, pt := range p.Points {
		xs[i], ys[i] = pt.X, pt.Y
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	f := newFrame(minX, maxX, minY, maxY, width, height)

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	f.path(&sb, xs, ys, curveColor)
	sx, sy := f.at(xs[0], ys[0])
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`+"\n", sx, sy, stableColor)
	sb.WriteString("</svg>")
	return sb.String()
}

// PhaseLineToSVG plots f over the phase line domain with the X axis,
// degenerate intervals as bands and equilibria as circles: filled when
// stable, hollow when unstable and half-filled when semi-stable.
func PhaseLineToSVG(pl *analysis.PhaseLine, f func(float64) float64, width, height int) string {
	if pl == nil || f == nil {
		return ""
	}
	const n = 400
	xs := make([]float64, n)
	ys := make([]float64, n)
	minY, maxY := 0.0, 0.0
	for i := range xs {
		xs[i] = pl.XMin + (pl.XMax-pl.XMin)*float64(i)/float64(n-1)
		ys[i] = f(xs[i])
		if finite(ys[i]) {
			minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
		}
	}
	fr := newFrame(pl.XMin, pl.XMax, minY, maxY, width, height)

	var sb strings.Builder
	header(&sb, float64(width), float64(height))

	for _, iv := range pl.DegenerateIntervals {
		x0, _ := fr.at(iv.XMin, 0)
		x1, _ := fr.at(iv.XMax, 0)
		fmt.Fprintf(&sb, `<rect x="%.1f" y="0" width="%.1f" height="%d" fill="%s" fill-opacity="0.25"/>`+"\n",
			x0, math.Max(x1-x0, 1), height, degenColor)
	}

	ax0, ay := fr.at(pl.XMin, 0)
	ax1, _ := fr.at(pl.XMax, 0)
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n", ax0, ay, ax1, ay, axisColor)
	fr.path(&sb, xs, ys, curveColor)

	for _, eq := range pl.Equilibria {
		cx, cy := fr.at(eq.X, 0)
		switch eq.Stability {
		case analysis.Stable:
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="5" fill="%s"/>`+"\n", cx, cy, stableColor)
		case analysis.Unstable:
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="5" fill="%s" stroke="%s" stroke-width="2"/>`+"\n", cx, cy, background, unstableCol)
		default:
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="5" fill="%s" stroke="%s" stroke-width="2"/>`+"\n", cx, cy, background, semiColor)
			fmt.Fprintf(&sb, `<path d="M%.1f,%.1f A5,5 0 0,%d %.1f,%.1f Z" fill="%s"/>`+"\n",
				cx, cy-5, halfSweep(eq.Direction), cx, cy+5, semiColor)
		}
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// halfSweep fills the side of a semi-stable marker that attracts.
func halfSweep(d analysis.Direction) int {
	if d == analysis.DirectionLeft {
		return 0
	}
	return 1
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
