package metrics

import (
	"math"

	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/sim"
)

// Bounded is the fraction of observed states that lie inside bounds. A nil
// bounds counts every finite state.
type Bounded struct {
	bounds     *sim.Bounds
	violations int
	samples    int
}

func NewBounded(bounds *sim.Bounds) *Bounded {
	return &Bounded{bounds: bounds}
}

func (b *Bounded) Name() string { return "bounded" }

func (b *Bounded) OnStep(x dynamo.State, t float64) {
	b.samples++
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.violations++
			return
		}
	}
	if !b.bounds.Contains(x) {
		b.violations++
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}

// PathLength is the arc length travelled in state space.
type PathLength struct {
	prev   dynamo.State
	length float64
}

func NewPathLength() *PathLength { return &PathLength{} }

func (p *PathLength) Name() string { return "path_length" }

func (p *PathLength) OnStep(x dynamo.State, t float64) {
	if p.prev != nil {
		d := 0.0
		for i := range x {
			d += (x[i] - p.prev[i]) * (x[i] - p.prev[i])
		}
		p.length += math.Sqrt(d)
	}
	p.prev = append(p.prev[:0], x...)
}

func (p *PathLength) Value() float64 { return p.length }

func (p *PathLength) Reset() {
	p.prev = nil
	p.length = 0
}
