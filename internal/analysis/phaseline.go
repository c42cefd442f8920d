package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// Config holds the tolerances of the phase-line analyzer.
type Config struct {
	// Samples is the number of grid points across the domain.
	Samples int `yaml:"samples"`
	// Epsilon is the absolute |f| below which a sample counts as zero for
	// degenerate-interval detection and tangent-root acceptance.
	Epsilon float64 `yaml:"epsilon"`
	// StabilityEpsilon is the |f| below which a stability probe counts as
	// absent flow.
	StabilityEpsilon float64 `yaml:"stability_epsilon"`
	// Probe is the distance of the stability probes from a root, as a
	// fraction of the domain width.
	Probe float64 `yaml:"probe"`
	// MinRun is the fewest consecutive near-zero samples that form a
	// degenerate interval.
	MinRun int `yaml:"min_run"`
	// MergeGap joins runs separated by at most this many samples.
	MergeGap int `yaml:"merge_gap"`
	// Iterations bounds bisection and ternary refinement.
	Iterations int `yaml:"iterations"`
}

func DefaultConfig() Config {
	return Config{
		Samples:          401,
		Epsilon:          1e-9,
		StabilityEpsilon: 1e-12,
		Probe:            1e-3,
		MinRun:           3,
		MergeGap:         1,
		Iterations:       80,
	}
}

// normalized fills zero fields from DefaultConfig.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Samples < 2 {
		c.Samples = d.Samples
	}
	if c.Epsilon <= 0 {
		c.Epsilon = d.Epsilon
	}
	if c.StabilityEpsilon <= 0 {
		c.StabilityEpsilon = d.StabilityEpsilon
	}
	if c.Probe <= 0 {
		c.Probe = d.Probe
	}
	if c.MinRun < 1 {
		c.MinRun = d.MinRun
	}
	if c.MergeGap < 0 {
		c.MergeGap = 0
	}
	if c.Iterations < 1 {
		c.Iterations = d.Iterations
	}
	return c
}

// Equilibrium is an isolated zero of f.
type Equilibrium struct {
	X         float64   `yaml:"x" json:"x"`
	Stability Stability `yaml:"stability" json:"stability"`
	Direction Direction `yaml:"direction,omitempty" json:"direction,omitempty"`
}

// DegenerateInterval is a maximal sub-interval where |f| < Epsilon at every
// sample.
type DegenerateInterval struct {
	XMin float64 `yaml:"x_min" json:"x_min"`
	XMax float64 `yaml:"x_max" json:"x_max"`
}

func (d DegenerateInterval) Contains(x, pad float64) bool {
	return x >= d.XMin-pad && x <= d.XMax+pad
}

// PhaseLine is the result of one analysis pass. Equilibria are sorted by X.
type PhaseLine struct {
	XMin                float64              `yaml:"x_min" json:"x_min"`
	XMax                float64              `yaml:"x_max" json:"x_max"`
	Equilibria          []Equilibrium        `yaml:"equilibria" json:"equilibria"`
	DegenerateIntervals []DegenerateInterval `yaml:"degenerate_intervals" json:"degenerate_intervals"`
}

// AnalyzePhaseLine locates the equilibria of X' = f(X) in [xMin, xMax] and
// the degenerate intervals where f vanishes on a continuum. Values in
// params override the system defaults.
//
// Delay systems are analyzed on the diagonal X_tau = X, where their
// equilibria lie; stability is that of the undelayed flow.
func AnalyzePhaseLine(sys *dynamo.System, params dynamo.Params, xMin, xMax float64, cfg Config) (*PhaseLine, error) {
	if !sys.IsValid() {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidSystem, sys.Err())
	}
	if sys.Dim() != 1 {
		return nil, ErrNotOneDimensional
	}
	if !(xMin < xMax) || math.IsInf(xMin, 0) || math.IsInf(xMax, 0) {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidDomain, xMin, xMax)
	}
	cfg = cfg.normalized()

	a := &phaseAnalyzer{sys: sys, b: sys.Bind(params), cfg: cfg}
	return a.run(xMin, xMax), nil
}

type phaseAnalyzer struct {
	sys *dynamo.System
	b   dynamo.Bindings
	cfg Config
}

func (a *phaseAnalyzer) f(x float64) float64 {
	a.sys.SetLagged(a.b, x)
	return a.sys.Derivative(a.b, x)
}

func (a *phaseAnalyzer) run(xMin, xMax float64) *PhaseLine {
	n := a.cfg.Samples
	step := (xMax - xMin) / float64(n-1)

	xs := make([]float64, n)
	fs := make([]float64, n)
	for i := range xs {
		xs[i] = xMin + float64(i)*step
		if i == n-1 {
			xs[i] = xMax
		}
		fs[i] = a.f(xs[i])
	}

	degenerate := a.degenerateIntervals(xs, fs)
	roots := a.roots(xs, fs)

	pad := step / 2
	delta := a.cfg.Probe * (xMax - xMin)
	pl := &PhaseLine{
		XMin:                xMin,
		XMax:                xMax,
		Equilibria:          make([]Equilibrium, 0, len(roots)),
		DegenerateIntervals: degenerate,
	}
	for _, r := range roots {
		if inAny(degenerate, r, pad) {
			continue
		}
		st, dir := classify(a.f(r-delta), a.f(r+delta), a.cfg.StabilityEpsilon)
		pl.Equilibria = append(pl.Equilibria, Equilibrium{X: r, Stability: st, Direction: dir})
	}
	return pl
}

// degenerateIntervals finds runs of at least MinRun near-zero samples,
// joining runs whose gap is at most MergeGap samples.
func (a *phaseAnalyzer) degenerateIntervals(xs, fs []float64) []DegenerateInterval {
	type run struct{ lo, hi int }
	var runs []run
	start := -1
	for i := 0; i <= len(fs); i++ {
		flat := i < len(fs) && math.Abs(fs[i]) < a.cfg.Epsilon
		if flat && start < 0 {
			start = i
		}
		if !flat && start >= 0 {
			runs = append(runs, run{start, i - 1})
			start = -1
		}
	}

	var merged []run
	for _, r := range runs {
		if k := len(merged); k > 0 && r.lo-merged[k-1].hi-1 <= a.cfg.MergeGap {
			merged[k-1].hi = r.hi
			continue
		}
		merged = append(merged, r)
	}

	out := make([]DegenerateInterval, 0, len(merged))
	for _, r := range merged {
		if r.hi-r.lo+1 < a.cfg.MinRun {
			continue
		}
		out = append(out, DegenerateInterval{XMin: xs[r.lo], XMax: xs[r.hi]})
	}
	return out
}

// roots returns the candidate zeros of f in ascending order: exact zero
// samples, refined sign changes and tangent zeros between samples.
func (a *phaseAnalyzer) roots(xs, fs []float64) []float64 {
	var roots []float64
	for i, v := range fs {
		if v == 0 {
			roots = append(roots, xs[i])
		}
	}

	for i := 0; i+1 < len(fs); i++ {
		lo, hi := fs[i], fs[i+1]
		if !finite(lo) || !finite(hi) || lo == 0 || hi == 0 {
			continue
		}
		if (lo < 0) != (hi < 0) {
			if x, ok := a.refine(xs[i], xs[i+1], lo, hi); ok {
				roots = append(roots, x)
			}
		}
	}

	for i := 1; i+1 < len(fs); i++ {
		l, m, r := fs[i-1], fs[i], fs[i+1]
		if !finite(l) || !finite(m) || !finite(r) || l == 0 || m == 0 || r == 0 {
			continue
		}
		if (l < 0) != (m < 0) || (m < 0) != (r < 0) {
			continue
		}
		if math.Abs(m) > math.Abs(l) || math.Abs(m) > math.Abs(r) {
			continue
		}
		if x, ok := a.tangent(xs[i-1], xs[i+1]); ok {
			roots = append(roots, x)
		}
	}

	sort.Float64s(roots)
	tol := 1e-9 * math.Max(1, math.Abs(xs[len(xs)-1]-xs[0]))
	out := roots[:0]
	for _, r := range roots {
		if len(out) > 0 && r-out[len(out)-1] <= tol {
			continue
		}
		out = append(out, r)
	}
	return out
}

// refine bisects a sign change and rejects it when f does not become small
// at the limit, as happens across a pole.
func (a *phaseAnalyzer) refine(lo, hi, flo, fhi float64) (float64, bool) {
	x := a.bisect(lo, hi, flo)
	v := math.Abs(a.f(x))
	if !finite(v) {
		return x, false
	}
	return x, v <= a.cfg.Epsilon || v <= math.Min(math.Abs(flo), math.Abs(fhi))
}

// bisect refines a sign change on [lo, hi] where f(lo) = flo.
func (a *phaseAnalyzer) bisect(lo, hi, flo float64) float64 {
	for i := 0; i < a.cfg.Iterations; i++ {
		mid := lo + (hi-lo)/2
		if mid <= lo || mid >= hi {
			break
		}
		fm := a.f(mid)
		if fm == 0 {
			return mid
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2
}

// tangent minimizes |f| on [lo, hi] by ternary search and accepts the
// minimum when it is within Epsilon of zero.
func (a *phaseAnalyzer) tangent(lo, hi float64) (float64, bool) {
	for i := 0; i < a.cfg.Iterations; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		if m1 >= m2 {
			break
		}
		if math.Abs(a.f(m1)) < math.Abs(a.f(m2)) {
			hi = m2
		} else {
			lo = m1
		}
	}
	x := lo + (hi-lo)/2
	return x, math.Abs(a.f(x)) < a.cfg.Epsilon
}

func inAny(ivs []DegenerateInterval, x, pad float64) bool {
	for _, iv := range ivs {
		if iv.Contains(x, pad) {
			return true
		}
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
