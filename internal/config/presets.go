package config

import (
	"sort"

	"github.com/san-kum/phasekit/internal/analysis"
)

func preset1D(formula string, params map[string]float64, x0, lo, hi, duration float64) *Config {
	return &Config{
		System:     SystemConfig{Formula: formula, Dim: 1, Params: params},
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   duration,
		Init:       InitConfig{X: x0},
		Domain:     DomainConfig{Min: lo, Max: hi},
		Analysis:   analysis.DefaultConfig(),
	}
}

func preset2D(formula string, params map[string]float64, x0, y0, span, duration float64) *Config {
	return &Config{
		System:     SystemConfig{Formula: formula, Dim: 2, Params: params},
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   duration,
		Init:       InitConfig{X: x0, Y: y0},
		Domain:     DomainConfig{Min: -span, Max: span, YMin: -span, YMax: span},
		Analysis:   analysis.DefaultConfig(),
	}
}

var Presets = map[string]*Config{
	"logistic": preset1D("k*X*(1-X)", map[string]float64{"k": 0.5}, 0.1, -0.5, 1.5, 20),
	"decay":    preset1D("-k*X", map[string]float64{"k": 1}, 1, -2, 2, 10),
	"allee":    preset1D("r*X*(X/a - 1)*(1 - X/K)", map[string]float64{"r": 1, "a": 0.2, "K": 1}, 0.3, -0.5, 1.5, 20),
	"flat":     preset1D("0*X", nil, 0.5, -1, 1, 5),

	"harmonic":    preset2D("Y, -w*w*X", map[string]float64{"w": 1}, 1, 0, 2, 20),
	"saddle":      preset2D("X, -Y", nil, 0.01, 1, 3, 5),
	"van_der_pol": preset2D("Y, mu*(1 - X^2)*Y - X", map[string]float64{"mu": 1}, 2, 0, 4, 30),

	"delay_logistic": func() *Config {
		c := preset1D("k*X*(1-X_tau)", map[string]float64{"k": 1}, 0.1, -0.5, 1.5, 40)
		c.System.Delay = true
		c.System.Tau = 1
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := cfg.Clone()
	cp.Name = name
	return cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
