package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/phasekit/internal/analysis"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(12)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	ActiveParam = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	ErrorBanner = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#aa2222")).
			Padding(0, 1)

	stableStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
	unstableStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)
	semiStableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00")).Bold(true)
	degenerateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8888ff"))
	flowStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
)

// Marker glyphs on a rendered phase line.
const (
	GlyphStable     = '●'
	GlyphUnstable   = '○'
	GlyphSemiStable = '◐'
	GlyphDegenerate = '═'
	GlyphRight      = '→'
	GlyphLeft       = '←'
	GlyphRest       = '·'
)

// StabilityMarker renders the glyph for s in its color.
func StabilityMarker(s analysis.Stability) string {
	switch s {
	case analysis.Stable:
		return stableStyle.Render(string(GlyphStable))
	case analysis.Unstable:
		return unstableStyle.Render(string(GlyphUnstable))
	}
	return semiStableStyle.Render(string(GlyphSemiStable))
}

// RenderPhaseLine draws the phase line as one row of width cells: flow
// arrows from the sign of f, equilibrium markers on top of them and
// degenerate intervals as a double bar. f may be nil, in which case only
// markers are drawn.
func RenderPhaseLine(pl *analysis.PhaseLine, f func(float64) float64, width int) string {
	if pl == nil || width < 2 {
		return ""
	}
	span := pl.XMax - pl.XMin
	cellX := func(i int) float64 { return pl.XMin + span*(float64(i)+0.5)/float64(width) }
	cellOf := func(x float64) int {
		i := int((x - pl.XMin) / span * float64(width))
		return min(max(i, 0), width-1)
	}

	cells := make([]string, width)
	for i := range cells {
		x := cellX(i)
		if f == nil {
			cells[i] = flowStyle.Render("─")
			continue
		}
		cells[i] = flowStyle.Render(string(flowGlyph(f(x))))
	}
	for _, iv := range pl.DegenerateIntervals {
		for i := cellOf(iv.XMin); i <= cellOf(iv.XMax); i++ {
			cells[i] = degenerateStyle.Render(string(GlyphDegenerate))
		}
	}
	for _, eq := range pl.Equilibria {
		cells[cellOf(eq.X)] = StabilityMarker(eq.Stability)
	}

	axis := fmt.Sprintf("%-*s%*s", width/2, fmt.Sprintf("%.3g", pl.XMin), width-width/2, fmt.Sprintf("%.3g", pl.XMax))
	return strings.Join(cells, "") + "\n" + Subtle.Render(axis)
}

func flowGlyph(v float64) rune {
	switch {
	case math.IsNaN(v):
		return ' '
	case v > 0:
		return GlyphRight
	case v < 0:
		return GlyphLeft
	}
	return GlyphRest
}

// EquilibriumTable lists equilibria and degenerate intervals, one per line.
func EquilibriumTable(pl *analysis.PhaseLine) string {
	if pl == nil {
		return ""
	}
	var b strings.Builder
	if len(pl.Equilibria) == 0 && len(pl.DegenerateIntervals) == 0 {
		b.WriteString(Subtle.Render("no equilibria in domain"))
		return b.String()
	}
	for _, eq := range pl.Equilibria {
		desc := eq.Stability.String()
		if eq.Direction != analysis.DirectionNone {
			desc += " (" + eq.Direction.String() + ")"
		}
		fmt.Fprintf(&b, "%s %s %s\n", StabilityMarker(eq.Stability), MetricValue.Render(fmt.Sprintf("%10.5g", eq.X)), desc)
	}
	for _, iv := range pl.DegenerateIntervals {
		fmt.Fprintf(&b, "%s [%.4g, %.4g] degenerate\n", degenerateStyle.Render(string(GlyphDegenerate)), iv.XMin, iv.XMax)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderError renders err as a single-line banner, or nothing for nil.
func RenderError(err error) string {
	if err == nil {
		return ""
	}
	return ErrorBanner.Render("error: " + err.Error())
}

// KeyHints renders alternating key/description pairs.
func KeyHints(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, Title.Render(pairs[i])+" "+KeyHint.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}
