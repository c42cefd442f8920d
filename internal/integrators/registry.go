package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/phasekit/internal/dynamo"
)

var registry = map[string]func() dynamo.DelayIntegrator{
	"rk4":   func() dynamo.DelayIntegrator { return NewRK4() },
	"euler": func() dynamo.DelayIntegrator { return NewEuler() },
}

// Get returns the integrator registered under name.
func Get(name string) (dynamo.DelayIntegrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

// Names lists the registered integrators.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
