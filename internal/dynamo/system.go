package dynamo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/phasekit/internal/expr"
)

// State variable names. Every system binds X; planar systems add Y and
// delay systems add the delayed value X_tau.
const (
	VarX   = "X"
	VarY   = "Y"
	VarTau = "X_tau"
)

// Kind distinguishes the three system shapes.
type Kind int

const (
	Kind1D Kind = iota
	KindDelay
	Kind2D
)

func (k Kind) String() string {
	switch k {
	case KindDelay:
		return "delay"
	case Kind2D:
		return "2d"
	}
	return "1d"
}

// System wraps the compiled derivative(s) of a dynamical system together
// with default parameter values. A System built from a bad formula still
// exists but reports IsValid() == false; evaluating it panics.
type System struct {
	kind    Kind
	formula string
	vocab   *expr.Vocabulary
	exprs   []*expr.Expression
	params  Params
	nstate  int
	err     error
	cache   *expr.Cache
}

// Bindings is a resolved slot vector for one System: state slots first,
// then parameters in vocabulary order. Each trajectory owns its own.
type Bindings []float64

// NewSystem1D compiles X' = f(X, params).
func NewSystem1D(formula string, params Params) *System {
	return Build(Kind1D, formula, params, nil)
}

// NewDelaySystem1D compiles X' = f(X, X_tau, params). The delayed value is
// supplied per step by the integrator; the system itself is delay-agnostic.
func NewDelaySystem1D(formula string, params Params) *System {
	return Build(KindDelay, formula, params, nil)
}

// NewSystem2D compiles a planar field written as "f, g", for example
// "-Y, -X".
func NewSystem2D(formula string, params Params) *System {
	return Build(Kind2D, formula, params, nil)
}

// NewSystem2DPair compiles a planar field from separate component formulas.
func NewSystem2DPair(f, g string, params Params) *System {
	s := newSystem(Kind2D, f+", "+g, params, VarX, VarY)
	if s.err == nil {
		s.compile([]string{f, g})
	}
	return s
}

// Build constructs a system of the given kind. When cache is non-nil the
// component expressions are compiled through it, so re-entering a formula
// already seen under the same vocabulary skips compilation.
func Build(kind Kind, formula string, params Params, cache *expr.Cache) *System {
	if kind == Kind2D {
		s := newSystem(Kind2D, formula, params, VarX, VarY)
		s.cache = cache
		if s.err != nil {
			return s
		}
		nodes, err := expr.ParseList(formula)
		if err != nil {
			s.err = err
			return s
		}
		if len(nodes) != 2 {
			s.err = fmt.Errorf("%w, got %d", ErrComponentCount, len(nodes))
			return s
		}
		s.compileNodes(nodes)
		return s
	}

	stateVars := []string{VarX}
	if kind == KindDelay {
		stateVars = append(stateVars, VarTau)
	}
	s := newSystem(kind, formula, params, stateVars...)
	s.cache = cache
	if s.err == nil {
		s.compile([]string{formula})
	}
	return s
}

func newSystem(kind Kind, formula string, params Params, stateVars ...string) *System {
	s := &System{
		kind:    kind,
		formula: formula,
		params:  params.Clone(),
		nstate:  len(stateVars),
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, sv := range stateVars {
			if name == sv {
				s.err = fmt.Errorf("%w: %q", ErrReservedName, name)
			}
		}
	}
	s.vocab = expr.NewVocabulary(append(stateVars, names...)...)
	return s
}

func (s *System) compile(sources []string) {
	for _, src := range sources {
		e, err := s.compileSource(src)
		if err != nil {
			s.err = err
			s.exprs = nil
			return
		}
		s.exprs = append(s.exprs, e)
	}
}

func (s *System) compileNodes(nodes []expr.Node) {
	for _, n := range nodes {
		var e *expr.Expression
		var err error
		if s.cache != nil {
			e, err = s.cache.GetOrCompile(n.String(), s.vocab)
		} else {
			e, err = expr.Compile(n, s.vocab)
		}
		if err != nil {
			s.err = err
			s.exprs = nil
			return
		}
		s.exprs = append(s.exprs, e)
	}
}

func (s *System) compileSource(src string) (*expr.Expression, error) {
	if s.cache != nil {
		return s.cache.GetOrCompile(src, s.vocab)
	}
	return expr.CompileString(src, s.vocab)
}

// IsValid reports whether every component compiled.
func (s *System) IsValid() bool {
	return s.err == nil
}

// Err returns the first parse or validation error, or nil.
func (s *System) Err() error {
	return s.err
}

// Kind returns the system shape.
func (s *System) Kind() Kind {
	return s.kind
}

// Dim is the state dimension: 1 for 1D and delay systems, 2 for planar ones.
func (s *System) Dim() int {
	if s.kind == Kind2D {
		return 2
	}
	return 1
}

func (s *System) IsDelay() bool {
	return s.kind == KindDelay
}

func (s *System) Formula() string {
	return s.formula
}

func (s *System) Vocabulary() *expr.Vocabulary {
	return s.vocab
}

// Components returns the compiled derivative expressions.
func (s *System) Components() []*expr.Expression {
	out := make([]*expr.Expression, len(s.exprs))
	copy(out, s.exprs)
	return out
}

// ParamNames lists the parameter names in slot order.
func (s *System) ParamNames() []string {
	return s.vocab.Names()[s.nstate:]
}

// Params returns a copy of the default parameter values.
func (s *System) Params() Params {
	return s.params.Clone()
}

// WithParams returns a copy of s whose defaults are overridden by p. The
// vocabulary is frozen, so names outside it are rejected.
func (s *System) WithParams(p Params) (*System, error) {
	for name := range p {
		if !s.vocab.Contains(name) || s.isStateVar(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
		}
	}
	c := *s
	c.params = s.params.Clone()
	for k, v := range p {
		c.params[k] = v
	}
	return &c, nil
}

// UsesDelay reports whether the formula actually references X_tau.
func (s *System) UsesDelay() bool {
	return s.kind == KindDelay && s.err == nil && s.exprs[0].Uses(VarTau)
}

func (s *System) isStateVar(name string) bool {
	i, ok := s.vocab.Index(name)
	return ok && i < s.nstate
}

// Bind resolves parameter values into a fresh slot vector. Values in p win
// over the system defaults; unknown names in p are ignored. State slots
// start at zero, except X_tau which is taken from p when present.
func (s *System) Bind(p Params) Bindings {
	s.mustBeValid()
	b := make(Bindings, s.vocab.Len())
	for i, name := range s.vocab.Names() {
		if i < s.nstate {
			if v, ok := p[name]; ok && name == VarTau {
				b[i] = v
			}
			continue
		}
		if v, ok := p[name]; ok {
			b[i] = v
		} else {
			b[i] = s.params[name]
		}
	}
	return b
}

// SetLagged stores the delayed value X_tau in b.
func (s *System) SetLagged(b Bindings, xTau float64) {
	if s.kind == KindDelay {
		b[1] = xTau
	}
}

// Derivative evaluates X' for a 1D or delay system. For delay systems the
// X_tau slot must already be set in b.
func (s *System) Derivative(b Bindings, x float64) float64 {
	b[0] = x
	return s.exprs[0].EvaluateSlots(b)
}

// Field evaluates (X', Y') for a planar system.
func (s *System) Field(b Bindings, x, y float64) (float64, float64) {
	b[0] = x
	b[1] = y
	return s.exprs[0].EvaluateSlots(b), s.exprs[1].EvaluateSlots(b)
}

// Derive writes the derivative of x into out, which must have len(x).
func (s *System) Derive(b Bindings, x State, out State) {
	if len(x) != s.Dim() || len(out) != len(x) {
		panic(fmt.Sprintf("%v: state %d, system %d", ErrDimensionMismatch, len(x), s.Dim()))
	}
	if s.kind == Kind2D {
		out[0], out[1] = s.Field(b, x[0], x[1])
		return
	}
	out[0] = s.Derivative(b, x[0])
}

// EvaluateDerivative evaluates X' = f(X, params) for a 1D system. Delay
// systems read X_tau from params and panic when it is missing.
func (s *System) EvaluateDerivative(x float64, p Params) float64 {
	s.mustBeValid()
	if s.kind == Kind2D {
		panic(fmt.Sprintf("%v: EvaluateDerivative on a planar system", ErrDimensionMismatch))
	}
	if s.kind == KindDelay {
		if _, ok := p[VarTau]; !ok {
			panic("dynamo: delay system evaluated without " + VarTau)
		}
	}
	return s.Derivative(s.Bind(p), x)
}

// EvaluateField evaluates (X', Y') for a planar system.
func (s *System) EvaluateField(x, y float64, p Params) (float64, float64) {
	s.mustBeValid()
	if s.kind != Kind2D {
		panic(fmt.Sprintf("%v: EvaluateField on a %s system", ErrDimensionMismatch, s.kind))
	}
	return s.Field(s.Bind(p), x, y)
}

// Finite reports whether the derivative at x is finite in every component.
func (s *System) Finite(b Bindings, x State) bool {
	out := make(State, len(x))
	s.Derive(b, x, out)
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s *System) String() string {
	var sb strings.Builder
	sb.WriteString(s.kind.String())
	sb.WriteString(" system ")
	sb.WriteString(s.formula)
	if len(s.params) > 0 {
		sb.WriteString(" with ")
		for i, name := range s.ParamNames() {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%g", name, s.params[name])
		}
	}
	return sb.String()
}

func (s *System) mustBeValid() {
	if s.err != nil {
		panic(fmt.Errorf("%w: %v", ErrInvalidSystem, s.err))
	}
}
