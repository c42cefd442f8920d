package viz

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/config"
	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/experiment"
	"github.com/san-kum/phasekit/internal/expr"
	"github.com/san-kum/phasekit/internal/integrators"
	"github.com/san-kum/phasekit/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 16
	historyCapacity = 600
	stepsPerFrame   = 4
	frameInterval   = time.Second / 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// particle is one animated trajectory and the trail it leaves.
type particle struct {
	start dynamo.State
	tr    *sim.Trajectory
	trail []dynamo.State
}

func (p *particle) record() {
	p.trail = append(p.trail, p.tr.State().Clone())
	if len(p.trail) > historyCapacity {
		p.trail = p.trail[1:]
	}
}

// Explorer animates trajectories of a system and keeps its phase line in
// sync with parameter and formula edits.
type Explorer struct {
	cfg   *config.Config
	cache *expr.Cache
	integ dynamo.DelayIntegrator
	sys   *dynamo.System

	params    dynamo.Params
	paramKeys []string
	selected  int

	particles []*particle
	phaseLine *analysis.PhaseLine

	running bool
	editing bool
	input   string
	err     error
	logger  *slog.Logger
}

// NewExplorer prepares an explorer for cfg with n particles spread across
// the domain. cache may be shared between explorers; nil allocates one.
func NewExplorer(cfg *config.Config, n int, cache *expr.Cache) (*Explorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = expr.NewCache(0)
	}
	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	params := cfg.Params()
	sys := dynamo.Build(systemKind(cfg), cfg.System.Formula, params, cache)
	if !sys.IsValid() {
		return nil, fmt.Errorf("formula %q: %w", cfg.System.Formula, sys.Err())
	}

	e := &Explorer{
		cfg:       cfg.Clone(),
		cache:     cache,
		integ:     integ,
		sys:       sys,
		params:    params,
		paramKeys: sortedKeys(params),
		running:   true,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, x0 := range e.starts(max(n, 1)) {
		e.particles = append(e.particles, &particle{start: x0})
	}
	e.respawn(true)
	e.analyze()
	return e, nil
}

// WithLogger routes edit and analysis diagnostics to l.
func (e *Explorer) WithLogger(l *slog.Logger) *Explorer {
	if l != nil {
		e.logger = l
	}
	return e
}

func systemKind(cfg *config.Config) dynamo.Kind {
	switch experiment.KindOf(cfg.System) {
	case dynamo.KindDelay.String():
		return dynamo.KindDelay
	case dynamo.Kind2D.String():
		return dynamo.Kind2D
	}
	return dynamo.Kind1D
}

func sortedKeys(p dynamo.Params) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// starts places the configured initial state first and spreads the rest
// evenly across the x domain.
func (e *Explorer) starts(n int) []dynamo.State {
	d := e.cfg.Domain
	out := []dynamo.State{e.cfg.InitState()}
	for i := 1; i < n; i++ {
		x := d.Min + (d.Max-d.Min)*float64(i)/float64(n)
		if e.sys.Dim() == 2 {
			out = append(out, dynamo.State{x, e.cfg.Init.Y})
			continue
		}
		out = append(out, dynamo.State{x})
	}
	return out
}

func (e *Explorer) simConfig() sim.Config {
	d := e.cfg.Domain
	return sim.Config{
		Dt:            e.cfg.Dt,
		Tau:           e.cfg.System.Tau,
		HistoryWindow: e.cfg.HistoryWindow,
		Bounds:        &sim.Bounds{XMin: d.Min, XMax: d.Max, YMin: d.YMin, YMax: d.YMax},
	}
}

// respawn restarts every particle under the current system. With fromStart
// the particles return to their initial states and trails are dropped;
// otherwise they continue from where they are.
func (e *Explorer) respawn(fromStart bool) {
	runner := sim.New(e.sys, e.integ, e.params)
	cfg := e.simConfig()
	for _, p := range e.particles {
		x0 := p.start
		if !fromStart && p.tr != nil && cfg.Bounds.Contains(p.tr.State()) {
			x0 = p.tr.State()
		}
		if fromStart {
			p.trail = p.trail[:0]
		}
		tr, err := runner.NewTrajectory(x0, cfg)
		if err != nil {
			e.err = err
			p.tr = nil
			continue
		}
		p.tr = tr
		p.record()
	}
}

// analyze recomputes the phase line; planar systems have none.
func (e *Explorer) analyze() {
	e.phaseLine = nil
	if e.sys.Dim() != 1 {
		return
	}
	pl, err := analysis.AnalyzePhaseLine(e.sys, e.params, e.cfg.Domain.Min, e.cfg.Domain.Max, e.cfg.Analysis)
	if err != nil {
		e.err = err
		return
	}
	e.phaseLine = pl
	e.logger.Debug("phase line updated", "equilibria", len(pl.Equilibria), "degenerate", len(pl.DegenerateIntervals))
}

// Step advances every live particle by one integrator step.
func (e *Explorer) Step() {
	for _, p := range e.particles {
		if p.tr == nil || p.tr.Done() {
			continue
		}
		if p.tr.Step() {
			p.record()
			continue
		}
		if err := p.tr.Err(); err != nil {
			e.err = err
		}
	}
}

// Reset returns the particles and parameters to their configured values.
func (e *Explorer) Reset() {
	e.params = e.cfg.Params()
	if sys, err := e.sys.WithParams(e.params); err == nil {
		e.sys = sys
	}
	e.err = nil
	e.respawn(true)
	e.analyze()
}

func (e *Explorer) cycleParam() {
	if len(e.paramKeys) == 0 {
		return
	}
	e.selected = (e.selected + 1) % len(e.paramKeys)
}

// AdjustParam nudges the selected parameter by dir steps of 5% of its
// magnitude (at least 0.01) and re-analyzes.
func (e *Explorer) AdjustParam(dir float64) {
	if len(e.paramKeys) == 0 {
		return
	}
	key := e.paramKeys[e.selected]
	v := e.params[key]
	v += dir * math.Max(0.05*math.Abs(v), 0.01)

	next := e.params.Clone()
	next[key] = v
	sys, err := e.sys.WithParams(next)
	if err != nil {
		e.err = err
		return
	}
	e.params, e.sys, e.err = next, sys, nil
	e.respawn(false)
	e.analyze()
}

// SetFormula recompiles the system with a new formula. Identifiers that are
// neither state variables nor known parameters become new parameters
// starting at 0. On failure the previous system stays active and the error
// is shown.
func (e *Explorer) SetFormula(formula string) error {
	kind := e.sys.Kind()
	params := e.params.Clone()
	added := newParamNames(kind, formula, params)
	for _, name := range added {
		params[name] = 0
	}

	sys := dynamo.Build(kind, formula, params, e.cache)
	if !sys.IsValid() {
		e.err = fmt.Errorf("formula %q: %w", formula, sys.Err())
		e.logger.Debug("formula rejected", "formula", formula, "err", sys.Err())
		return e.err
	}
	e.sys, e.err = sys, nil
	e.cfg.System.Formula = formula
	if len(added) > 0 {
		if e.cfg.System.Params == nil {
			e.cfg.System.Params = make(map[string]float64, len(added))
		}
		for _, name := range added {
			e.cfg.System.Params[name] = 0
		}
		e.params, e.paramKeys = params, sortedKeys(params)
		e.selected = min(e.selected, len(e.paramKeys)-1)
	}
	e.respawn(false)
	e.analyze()
	e.logger.Debug("formula compiled", "formula", formula, "added", added, "cached", e.cache.Len())
	return nil
}

// newParamNames lists the identifiers of formula, in order of appearance,
// that are not state variables of kind and not in known. A formula that
// does not parse yields none.
func newParamNames(kind dynamo.Kind, formula string, known dynamo.Params) []string {
	nodes, err := expr.ParseList(formula)
	if err != nil {
		return nil
	}
	state := map[string]bool{dynamo.VarX: true}
	switch kind {
	case dynamo.KindDelay:
		state[dynamo.VarTau] = true
	case dynamo.Kind2D:
		state[dynamo.VarY] = true
	}

	var names []string
	seen := make(map[string]bool)
	for _, n := range nodes {
		for _, name := range expr.Identifiers(n) {
			if state[name] || seen[name] {
				continue
			}
			seen[name] = true
			if _, ok := known[name]; !ok {
				names = append(names, name)
			}
		}
	}
	return names
}

func (e *Explorer) System() *dynamo.System         { return e.sys }
func (e *Explorer) Params() dynamo.Params          { return e.params.Clone() }
func (e *Explorer) PhaseLine() *analysis.PhaseLine { return e.phaseLine }
func (e *Explorer) Err() error                     { return e.err }
func (e *Explorer) Running() bool                  { return e.running }

// States returns the current state of every particle.
func (e *Explorer) States() []dynamo.State {
	out := make([]dynamo.State, 0, len(e.particles))
	for _, p := range e.particles {
		if p.tr != nil {
			out = append(out, p.tr.State())
		}
	}
	return out
}

func (e *Explorer) Init() tea.Cmd { return tick() }

// Update handles input events and steps the particles.
func (e *Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if e.editing {
			e.editKey(msg)
			return e, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return e, tea.Quit
		case " ":
			e.running = !e.running
		case "r":
			e.Reset()
		case "tab":
			e.cycleParam()
		case "]", "up", "k":
			e.AdjustParam(1)
		case "[", "down", "j":
			e.AdjustParam(-1)
		case "e":
			e.editing = true
			e.input = e.sys.Formula()
		}
	case TickMsg:
		if e.running {
			for i := 0; i < stepsPerFrame; i++ {
				e.Step()
			}
		}
		return e, tick()
	}
	return e, nil
}

func (e *Explorer) editKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		e.editing = false
		_ = e.SetFormula(strings.TrimSpace(e.input))
	case tea.KeyEsc:
		e.editing = false
	case tea.KeyBackspace:
		if r := []rune(e.input); len(r) > 0 {
			e.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		e.input += " "
	case tea.KeyRunes:
		e.input += string(msg.Runes)
	}
}

// derivative returns X' as a function of X, evaluating delay systems on
// the diagonal X_tau = X.
func derivative(sys *dynamo.System, p dynamo.Params) func(float64) float64 {
	b := sys.Bind(p)
	return func(x float64) float64 {
		sys.SetLagged(b, x)
		return sys.Derivative(b, x)
	}
}

func (e *Explorer) View() string {
	var main string
	if e.sys.Dim() == 2 {
		main = e.viewPlane()
	} else {
		main = e.viewLine()
	}

	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(e.name())) + "\n")
	s.WriteString(Subtle.Render(e.sys.String()) + "\n\n")
	if e.running {
		s.WriteString(StatusRunning.Render("RUNNING"))
	} else {
		s.WriteString(StatusPaused.Render("PAUSED"))
	}
	s.WriteString("\n\n")

	live, frozen, escaped := e.counts()
	s.WriteString(MetricLabel.Render("Time") + MetricValue.Render(fmt.Sprintf("%.2f", e.time())) + "\n")
	s.WriteString(MetricLabel.Render("Particles") + MetricValue.Render(fmt.Sprintf("%d live, %d frozen, %d out", live, frozen, escaped)) + "\n")

	s.WriteString("\nPARAMETERS\n")
	if len(e.paramKeys) == 0 {
		s.WriteString(Subtle.Render("  (none)") + "\n")
	}
	for i, k := range e.paramKeys {
		line := fmt.Sprintf("%-10s %10.4g", k, e.params[k])
		if i == e.selected {
			s.WriteString(ActiveParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}

	if e.phaseLine != nil {
		s.WriteString("\nEQUILIBRIA\n" + EquilibriumTable(e.phaseLine) + "\n")
	}

	if e.editing {
		s.WriteString("\n" + Title.Render("formula> ") + e.input + "_\n")
	}
	if e.err != nil {
		s.WriteString("\n" + RenderError(e.err) + "\n")
	}
	s.WriteString("\n" + KeyHints("space", "pause", "r", "reset", "tab", "param", "[ ]", "tune", "e", "edit", "q", "quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(main), statsStyle.Render(s.String()))
}

func (e *Explorer) name() string {
	if e.cfg.Name != "" {
		return e.cfg.Name
	}
	return "custom"
}

func (e *Explorer) time() float64 {
	t := 0.0
	for _, p := range e.particles {
		if p.tr != nil {
			t = math.Max(t, p.tr.Time())
		}
	}
	return t
}

func (e *Explorer) counts() (live, frozen, escaped int) {
	for _, p := range e.particles {
		switch {
		case p.tr == nil:
		case !p.tr.Done():
			live++
		case p.tr.Termination() == sim.Frozen:
			frozen++
		default:
			escaped++
		}
	}
	return live, frozen, escaped
}

// viewLine plots X(t) for every particle above the phase line.
func (e *Explorer) viewLine() string {
	series := make([][]float64, 0, len(e.particles))
	for _, p := range e.particles {
		if len(p.trail) < 2 {
			continue
		}
		xs := make([]float64, len(p.trail))
		for i, s := range p.trail {
			xs[i] = s[0]
		}
		series = append(series, xs)
	}

	var b strings.Builder
	if len(series) > 0 {
		chart := asciigraph.PlotMany(series,
			asciigraph.Height(canvasHeight),
			asciigraph.Width(canvasWidth),
			asciigraph.LowerBound(e.cfg.Domain.Min),
			asciigraph.UpperBound(e.cfg.Domain.Max),
			asciigraph.Caption("X(t)"))
		b.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	b.WriteString(RenderPhaseLine(e.phaseLine, derivative(e.sys, e.params), canvasWidth))
	return b.String()
}

// viewPlane draws particle trails in the (X, Y) plane.
func (e *Explorer) viewPlane() string {
	c := NewCanvas(canvasWidth, canvasHeight)
	d := e.cfg.Domain
	v := Viewport{XMin: d.Min, XMax: d.Max, YMin: d.YMin, YMax: d.YMax}
	c.PlotLine(v, d.Min, 0, d.Max, 0)
	c.PlotLine(v, 0, d.YMin, 0, d.YMax)
	for _, p := range e.particles {
		for i := 1; i < len(p.trail); i++ {
			a, b := p.trail[i-1], p.trail[i]
			c.PlotLine(v, a[0], a[1], b[0], b[1])
		}
	}
	return c.String()
}

// RunExplorer runs the explorer for cfg full-screen until the user quits.
func RunExplorer(cfg *config.Config, n int, logger *slog.Logger) error {
	e, err := NewExplorer(cfg, n, nil)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(e.WithLogger(logger), tea.WithAltScreen()).Run()
	return err
}
