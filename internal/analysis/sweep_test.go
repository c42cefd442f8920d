package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/integrators"
)

func TestSweepTranscritical(t *testing.T) {
	sys := system1D(t, "k*X*(1-X)", dynamo.Params{"k": 0.5})

	points, err := SweepParameter(sys, nil, "k", -1, 1, 5, -0.5, 1.5, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}

	for i, p := range points {
		wantParam := -1 + float64(i)*0.5
		if math.Abs(p.Param-wantParam) > 1e-12 {
			t.Errorf("point %d param %v, want %v", i, p.Param, wantParam)
		}
		if p.Param == 0 {
			if len(p.Equilibria) != 0 || len(p.DegenerateIntervals) != 1 {
				t.Errorf("k=0: expected a flat line, got %+v", p)
			}
			continue
		}
		if len(p.Equilibria) != 2 {
			t.Fatalf("k=%v: got %v", p.Param, p.Equilibria)
		}
		originStable := p.Equilibria[0].Stability == Stable
		if originStable != (p.Param < 0) {
			t.Errorf("k=%v: origin is %v", p.Param, p.Equilibria[0].Stability)
		}
	}

	art := SweepToASCII(points, 20, 10)
	for _, glyph := range []string{"*", "o", "="} {
		if !strings.Contains(art, glyph) {
			t.Errorf("sweep plot missing %q:\n%s", glyph, art)
		}
	}
	if lines := strings.Count(art, "\n"); lines != 10 {
		t.Errorf("expected 10 rows, got %d", lines)
	}
}

func TestSweepErrors(t *testing.T) {
	sys := system1D(t, "k*X", dynamo.Params{"k": 1})

	if _, err := SweepParameter(sys, nil, "r", 0, 1, 3, -1, 1, DefaultConfig()); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	_, err := SweepParameter(sys, nil, "k", 0, 1, 3, 1, -1, DefaultConfig())
	if !errors.Is(err, ErrInvalidDomain) {
		t.Errorf("expected ErrInvalidDomain, got %v", err)
	}
	if err != nil && !strings.HasPrefix(err.Error(), "k=0: ") {
		t.Errorf("error should name the failing parameter value: %v", err)
	}

	planar := dynamo.NewSystem2D("k*Y, -X", dynamo.Params{"k": 1})
	if _, err := SweepParameter(planar, nil, "k", 0, 1, 3, -1, 1, DefaultConfig()); !errors.Is(err, ErrNotOneDimensional) {
		t.Errorf("expected ErrNotOneDimensional, got %v", err)
	}
	if SweepToASCII(nil, 10, 10) != "" {
		t.Error("expected empty plot for no data")
	}
}

func TestPhasePortraitHarmonic(t *testing.T) {
	sys := dynamo.NewSystem2D("Y, -X", nil)

	dt, duration := 0.01, 2*math.Pi
	portrait, err := GeneratePhasePortrait(sys, integrators.NewRK4(), nil, 1, 0, dt, duration)
	if err != nil {
		t.Fatal(err)
	}
	if portrait.Frozen {
		t.Error("harmonic oscillator should not freeze")
	}
	if len(portrait.Points) != int(duration/dt)+1 {
		t.Errorf("got %d points", len(portrait.Points))
	}
	for i, p := range portrait.Points {
		if r := math.Hypot(p.X, p.Y); math.Abs(r-1) > 1e-4 {
			t.Fatalf("point %d off the unit circle: r=%v", i, r)
		}
	}

	art := PhasePortraitToASCII(portrait, 40, 20)
	if !strings.Contains(art, "•") || !strings.Contains(art, "│") || !strings.Contains(art, "─") {
		t.Errorf("unexpected portrait:\n%s", art)
	}
}

func TestPhasePortraitFreezes(t *testing.T) {
	sys := dynamo.NewSystem2D("1/X, 1", nil)
	portrait, err := GeneratePhasePortrait(sys, integrators.NewRK4(), nil, 0, 0, 0.01, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !portrait.Frozen || len(portrait.Points) != 1 {
		t.Errorf("expected a frozen single-point portrait, got frozen=%v len=%d", portrait.Frozen, len(portrait.Points))
	}

	rest := dynamo.NewSystem2D("-X, -Y", nil)
	portrait, _ = GeneratePhasePortrait(rest, integrators.NewRK4(), nil, 0, 0, 0.1, 1)
	if portrait.Frozen || len(portrait.Points) != 11 {
		t.Errorf("equilibrium start should not freeze: frozen=%v len=%d", portrait.Frozen, len(portrait.Points))
	}
}

func TestPhasePortraitConvergenceIsNotFrozen(t *testing.T) {
	sys := dynamo.NewSystem2D("-X, -2*Y", nil)
	portrait, err := GeneratePhasePortrait(sys, integrators.NewRK4(), nil, 1, 1, 0.05, 200)
	if err != nil {
		t.Fatal(err)
	}
	if portrait.Frozen || len(portrait.Points) != 4001 {
		t.Errorf("decay to the origin should run to the horizon: frozen=%v len=%d", portrait.Frozen, len(portrait.Points))
	}
}

func TestPhasePortraitRejects1D(t *testing.T) {
	sys := system1D(t, "X", nil)
	if _, err := GeneratePhasePortrait(sys, integrators.NewRK4(), nil, 0, 0, 0.1, 1); !errors.Is(err, ErrNotPlanar) {
		t.Errorf("expected ErrNotPlanar, got %v", err)
	}
	if _, err := VectorField(sys, nil, -1, 1, -1, 1, 3, 3); !errors.Is(err, ErrNotPlanar) {
		t.Errorf("expected ErrNotPlanar, got %v", err)
	}
}

func TestVectorField(t *testing.T) {
	sys := dynamo.NewSystem2D("a, -X", dynamo.Params{"a": 0})

	field, err := VectorField(sys, nil, -1, 1, -1, 1, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(field) != 9 {
		t.Fatalf("expected 9 samples, got %d", len(field))
	}
	if field[0].X != -1 || field[0].Y != -1 || field[8].X != 1 || field[8].Y != 1 {
		t.Errorf("grid corners wrong: %+v %+v", field[0], field[8])
	}

	art := VectorFieldToASCII(field, 3)
	want := "↑ · ↓ \n↑ · ↓ \n↑ · ↓ \n"
	if art != want {
		t.Errorf("got\n%q\nwant\n%q", art, want)
	}

	shifted, err := VectorField(sys, dynamo.Params{"a": 1}, -1, 1, -1, 1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := arrowGlyph(shifted[0].DX, shifted[0].DY); got != '↗' {
		t.Errorf("expected ↗ at (-1,-1), got %c", got)
	}
}
