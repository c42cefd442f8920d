// Package automation runs scripted batches of experiments: YAML scenarios
// and Monte Carlo perturbations of an initial state.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/config"
	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/experiment"
	"github.com/san-kum/phasekit/internal/sim"
	"github.com/san-kum/phasekit/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and overrides the
// fields it sets.
type ScenarioStep struct {
	Preset     string               `yaml:"preset"`
	System     *config.SystemConfig `yaml:"system"`
	Params     map[string]float64   `yaml:"params"`
	Integrator string               `yaml:"integrator"`
	Duration   float64              `yaml:"duration"`
	Dt         float64              `yaml:"dt"`
	Init       *config.InitConfig   `yaml:"init"`
	Domain     *config.DomainConfig `yaml:"domain"`
	Analyze    bool                 `yaml:"analyze"`
	SaveAs     string               `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name      string
	RunID     string
	Result    *sim.Result
	PhaseLine *analysis.PhaseLine
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Config resolves the step into a full run configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.System != nil {
		cfg.System = *s.System
		if cfg.System.Dim == 0 {
			cfg.System.Dim = 1
		}
	}
	if len(s.Params) > 0 {
		params := dynamo.Params(cfg.System.Params).Clone()
		for k, v := range s.Params {
			params[k] = v
		}
		cfg.System.Params = params
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Init != nil {
		cfg.Init = *s.Init
	}
	if s.Domain != nil {
		cfg.Domain = *s.Domain
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order. Runs are saved to st when it is
// non-nil. The first failing step ends the scenario; results of the steps
// before it are returned.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp.WithLogger(logger)
		logger.Info("running step", "step", i+1, "of", len(scenario.Steps), "system", exp.System())

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		sr := StepResult{Name: exp.Metadata().Name, Result: result}

		if step.Analyze && exp.System().Dim() == 1 {
			if sr.PhaseLine, err = exp.Analyze(); err != nil {
				return results, fmt.Errorf("step %d analyze: %w", i+1, err)
			}
		}

		if st != nil {
			if sr.RunID, err = st.Save(exp.Metadata(), result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			if sr.PhaseLine != nil {
				if err := st.SaveAnalysis(sr.RunID, sr.PhaseLine); err != nil {
					return results, fmt.Errorf("step %d save: %w", i+1, err)
				}
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds the outcome of one perturbed trial.
type MonteCarloResult struct {
	TrialID     int
	InitState   dynamo.State
	FinalState  dynamo.State
	Termination sim.Termination
	// Basin indexes the phase line equilibrium (stable or semi-stable) the
	// trial settled on, or is -1.
	Basin int
}

// RunMonteCarlo perturbs the configured initial state uniformly by up to
// Perturbation in every component and integrates all trials concurrently.
// For one-dimensional systems each trial is assigned to the basin of the
// attracting equilibrium it ends near.
func RunMonteCarlo(ctx context.Context, exp *experiment.Experiment, cfg MonteCarloConfig) ([]MonteCarloResult, *analysis.PhaseLine, error) {
	if cfg.NumTrials <= 0 {
		return nil, nil, fmt.Errorf("monte carlo needs at least one trial, got %d", cfg.NumTrials)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	base := exp.Config().InitState()
	x0s := make([]dynamo.State, cfg.NumTrials)
	for trial := range x0s {
		x0 := make(dynamo.State, len(base))
		for i, v := range base {
			x0[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}
		x0s[trial] = x0
	}

	var pl *analysis.PhaseLine
	if exp.System().Dim() == 1 {
		var err error
		if pl, err = exp.Analyze(); err != nil {
			return nil, nil, err
		}
	}

	runs, err := exp.RunFrom(ctx, x0s)
	if err != nil {
		return nil, pl, err
	}

	d := exp.Config().Domain
	tol := 1e-2 * (d.Max - d.Min)
	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID:     i,
			InitState:   x0s[i],
			FinalState:  r.Final(),
			Termination: r.Termination,
			Basin:       basinOf(pl, r.Final(), tol),
		}
	}
	return results, pl, nil
}

func basinOf(pl *analysis.PhaseLine, final dynamo.State, tol float64) int {
	if pl == nil || len(final) != 1 {
		return -1
	}
	best, bestDist := -1, tol
	for i, eq := range pl.Equilibria {
		if eq.Stability == analysis.Unstable {
			continue
		}
		if d := math.Abs(final[0] - eq.X); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// MonteCarloSummary counts trials by termination and by basin.
type MonteCarloSummary struct {
	Terminations map[sim.Termination]int
	Basins       map[int]int
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) MonteCarloSummary {
	s := MonteCarloSummary{
		Terminations: make(map[sim.Termination]int),
		Basins:       make(map[int]int),
	}
	for _, r := range results {
		s.Terminations[r.Termination]++
		s.Basins[r.Basin]++
	}
	return s
}
