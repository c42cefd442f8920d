package sim

import (
	"context"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// RunEnsemble runs one trajectory per initial state, in parallel. Every
// particle owns its bindings and delay history; the system is shared
// read-only. Observers are not notified. Results are in input order.
func (r *Runner) RunEnsemble(ctx context.Context, x0s []dynamo.State, cfg Config) ([]*Result, error) {
	for _, x0 := range x0s {
		if err := r.validate(x0, cfg); err != nil {
			return nil, err
		}
	}

	pool := newBindingsPool(r.sys, r.params)
	results := make([]*Result, len(x0s))
	errs := make([]error, len(x0s))

	dynamo.ParallelFor(len(x0s), 8, func(start, end int) {
		for i := start; i < end; i++ {
			b := pool.Get()
			results[i], errs[i] = r.record(ctx, *b, x0s[i], cfg, nil)
			pool.Put(b)
		}
	})

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
