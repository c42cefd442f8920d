package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/phasekit/internal/config"
	"github.com/san-kum/phasekit/internal/dynamo"
)

var systems = map[string]func(formula string, params dynamo.Params) *dynamo.System{
	dynamo.Kind1D.String():    dynamo.NewSystem1D,
	dynamo.KindDelay.String(): dynamo.NewDelaySystem1D,
	dynamo.Kind2D.String():    dynamo.NewSystem2D,
}

// KindOf maps a system configuration to its registry key.
func KindOf(sc config.SystemConfig) string {
	switch {
	case sc.Delay:
		return dynamo.KindDelay.String()
	case sc.Dim == 2:
		return dynamo.Kind2D.String()
	}
	return dynamo.Kind1D.String()
}

// BuildSystem compiles the configured formula. A formula that does not
// compile is reported as an error rather than as an invalid System.
func BuildSystem(sc config.SystemConfig) (*dynamo.System, error) {
	fn, ok := systems[KindOf(sc)]
	if !ok {
		return nil, fmt.Errorf("unknown system kind: %s", KindOf(sc))
	}
	sys := fn(sc.Formula, dynamo.Params(sc.Params))
	if !sys.IsValid() {
		return nil, fmt.Errorf("formula %q: %w", sc.Formula, sys.Err())
	}
	return sys, nil
}

func ListKinds() []string {
	names := make([]string, 0, len(systems))
	for name := range systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
