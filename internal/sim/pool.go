package sim

import (
	"sync"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// bindingsPool recycles slot vectors between ensemble particles. Each
// particle holds its own vector for the whole run.
type bindingsPool struct {
	pool     sync.Pool
	template dynamo.Bindings
}

func newBindingsPool(sys *dynamo.System, params dynamo.Params) *bindingsPool {
	p := &bindingsPool{template: sys.Bind(params)}
	p.pool.New = func() any {
		b := make(dynamo.Bindings, len(p.template))
		return &b
	}
	return p
}

func (p *bindingsPool) Get() *dynamo.Bindings {
	b := p.pool.Get().(*dynamo.Bindings)
	copy(*b, p.template)
	return b
}

func (p *bindingsPool) Put(b *dynamo.Bindings) {
	if len(*b) == len(p.template) {
		p.pool.Put(b)
	}
}
