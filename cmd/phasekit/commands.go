package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/automation"
	"github.com/san-kum/phasekit/internal/config"
	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/experiment"
	"github.com/san-kum/phasekit/internal/export"
	"github.com/san-kum/phasekit/internal/integrators"
	"github.com/san-kum/phasekit/internal/metrics"
	"github.com/san-kum/phasekit/internal/sim"
	"github.com/san-kum/phasekit/internal/storage"
	"github.com/san-kum/phasekit/internal/viz"
)

var (
	ensemble   int
	asYAML     bool
	saveTo     string
	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
	fieldSize  int
	particles  int
	invariant  string
	svgPath    string
	dryRun     bool
	trials     int
	spread     float64
	seed       int64
)

func openStore() *storage.Store {
	return storage.New(dataDir).WithLogger(slog.Default())
}

func newExperiment(cmd *cobra.Command) (*experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd, sf)
	if err != nil {
		return nil, err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return nil, err
	}
	return exp.WithLogger(slog.Default()), nil
}

func checkFormula(cmd *cobra.Command, args []string) error {
	params, err := parseParams(sf.params)
	if err != nil {
		return err
	}
	sc := config.SystemConfig{Formula: args[0], Dim: sf.dim, Params: params, Delay: sf.delay}
	sys, err := experiment.BuildSystem(sc)
	if err != nil {
		return err
	}

	fmt.Printf("ok: %s\n", sys)
	fmt.Printf("kind: %s\n", sys.Kind())
	for i, e := range sys.Components() {
		fmt.Printf("component %d: %s\n", i, e)
	}
	if names := sys.ParamNames(); len(names) > 0 {
		fmt.Printf("parameters: %s\n", strings.Join(names, ", "))
	}
	if sys.IsDelay() && !sys.UsesDelay() {
		fmt.Println("note: formula does not reference X_tau")
	}
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d := exp.Config().Domain
	set := metrics.Default(&sim.Bounds{XMin: d.Min, XMax: d.Max, YMin: d.YMin, YMax: d.YMax})
	if invariant != "" {
		m, err := metrics.NewInvariantDrift(exp.System(), nil, invariant)
		if err != nil {
			return err
		}
		set.Add(m)
	}
	exp.Runner().AddObserver(set)

	fmt.Printf("running %s...\n", exp.System())
	start := time.Now()
	result, err := exp.Run(ctx)
	if result == nil || (err != nil && !errors.Is(err, context.Canceled)) {
		return err
	}
	elapsed := time.Since(start)

	st := openStore()
	runID, saveErr := st.Save(exp.Metadata(), result)
	if saveErr != nil {
		return saveErr
	}
	if exp.System().Dim() == 1 {
		if pl, err := exp.Analyze(); err == nil {
			if err := st.SaveAnalysis(runID, pl); err != nil {
				return err
			}
		} else {
			slog.Warn("phase line analysis failed", "err", err)
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("termination: %s\n", result.Termination)
	if len(result.States) > 0 {
		fmt.Printf("final state: %v\n", result.Final())
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	fmt.Println("\nmetrics:")
	values := set.Values()
	for _, name := range set.Names() {
		fmt.Printf("  %s: %.6g\n", name, values[name])
	}

	if ensemble > 0 && err == nil {
		results, err := exp.RunEnsemble(ctx, ensemble)
		if err != nil {
			return err
		}
		counts := map[sim.Termination]int{}
		for _, r := range results {
			counts[r.Termination]++
		}
		fmt.Printf("\nensemble of %d particles:\n", len(results))
		for _, t := range []sim.Termination{sim.Horizon, sim.OutOfBounds, sim.Frozen, sim.Canceled} {
			if counts[t] > 0 {
				fmt.Printf("  %-14s %d\n", t, counts[t])
			}
		}
	}
	return err
}

func analyzePhaseLine(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	pl, err := exp.Analyze()
	if err != nil {
		return err
	}

	if saveTo != "" {
		if err := openStore().SaveAnalysis(saveTo, pl); err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
	}

	sys := exp.System()
	f := derivative(sys)
	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.PhaseLineToSVG(pl, f, 800, 400)), 0644); err != nil {
			return err
		}
		slog.Info("wrote phase line", "path", svgPath)
	}

	if asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(pl)
	}

	fmt.Printf("%s on [%g, %g]\n\n", sys, pl.XMin, pl.XMax)
	fmt.Println(viz.EquilibriumTable(pl))
	fmt.Println()
	fmt.Println(viz.RenderPhaseLine(pl, f, 72))
	fmt.Println()

	const n = 72
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = f(pl.XMin + (pl.XMax-pl.XMin)*float64(i)/float64(n-1))
	}
	fmt.Println(asciigraph.Plot(ys,
		asciigraph.Height(12),
		asciigraph.Width(n),
		asciigraph.Caption("f(X)"),
	))
	return nil
}

// derivative evaluates X' as a function of X, reading delay systems on the
// diagonal X_tau = X.
func derivative(sys *dynamo.System) func(float64) float64 {
	b := sys.Bind(nil)
	return func(x float64) float64 {
		sys.SetLagged(b, x)
		return sys.Derivative(b, x)
	}
}

func sweepParameter(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	data, err := exp.Sweep(sweepParam, sweepFrom, sweepTo, sweepSteps)
	if err != nil {
		return err
	}

	fmt.Printf("%s, %s from %g to %g\n\n", exp.System(), sweepParam, sweepFrom, sweepTo)
	fmt.Print(analysis.SweepToASCII(data, 72, 20))
	fmt.Println("\n* stable  o unstable  + semi-stable  = degenerate")
	return nil
}

func phasePortrait(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	portrait, err := exp.Portrait()
	if err != nil {
		return err
	}

	fmt.Printf("%s from (%g, %g)\n\n", exp.System(), exp.Config().Init.X, exp.Config().Init.Y)
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 72, 24))
	if portrait.Frozen {
		fmt.Println("\ntrajectory froze on a non-finite derivative")
	}
	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.PortraitToSVG(portrait, 600, 600)), 0644); err != nil {
			return err
		}
		slog.Info("wrote portrait", "path", svgPath)
	}

	if fieldSize > 0 {
		field, err := exp.VectorField(fieldSize)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(analysis.VectorFieldToASCII(field, fieldSize))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := openStore().List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tFORMULA\tTIME\tDURATION\tDT\tINTEG\tEND")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.4f\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.Formula,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Termination,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := openStore()
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("system: %s %s\n", meta.Kind, meta.Formula)
	fmt.Printf("samples: %d\n\n", len(states))

	captions := []string{"X vs time", "Y vs time"}
	for dim := 0; dim < len(states[0]) && dim < len(captions); dim++ {
		data := make([]float64, len(states))
		for i := range states {
			data[i] = states[i][dim]
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[dim]),
		))
		fmt.Println()
	}

	if pl, err := st.LoadAnalysis(args[0]); err == nil {
		fmt.Println(viz.EquilibriumTable(pl))
	}

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.CanvasToSVG(trajectoryCanvas(states, times), 4)), 0644); err != nil {
			return err
		}
		slog.Info("wrote svg", "path", svgPath)
	}
	return nil
}

// trajectoryCanvas draws X against Y for planar runs and X against time
// otherwise.
func trajectoryCanvas(states []dynamo.State, times []float64) *viz.Canvas {
	xs := make([]float64, len(states))
	ys := make([]float64, len(states))
	for i, s := range states {
		if len(s) > 1 {
			xs[i], ys[i] = s[0], s[1]
		} else {
			xs[i], ys[i] = times[i], s[0]
		}
	}
	v := viz.Viewport{XMin: math.Inf(1), XMax: math.Inf(-1), YMin: math.Inf(1), YMax: math.Inf(-1)}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		v.XMin, v.XMax = math.Min(v.XMin, xs[i]), math.Max(v.XMax, xs[i])
		v.YMin, v.YMax = math.Min(v.YMin, ys[i]), math.Max(v.YMax, ys[i])
	}
	if v.XMax <= v.XMin {
		v.XMin, v.XMax = v.XMin-1, v.XMin+1
	}
	if v.YMax <= v.YMin {
		v.YMin, v.YMax = v.YMin-1, v.YMin+1
	}

	c := viz.NewCanvas(80, 24)
	for i := 1; i < len(xs); i++ {
		c.PlotLine(v, xs[i-1], ys[i-1], xs[i], ys[i])
	}
	return c
}

// storedResult reassembles a stored run.
func storedResult(st *storage.Store, runID string) (*storage.RunMetadata, *sim.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, &sim.Result{
		States:      states,
		Times:       times,
		StepsTaken:  meta.Steps,
		Termination: meta.Termination,
	}, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := storedResult(openStore(), args[0])
	if err != nil {
		return err
	}
	if len(result.States) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteCSV(os.Stdout, result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := openStore()
	meta, result, err := storedResult(st, args[0])
	if err != nil {
		return err
	}
	pl, err := st.LoadAnalysis(args[0])
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, result, pl)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tFORMULA\tPARAMS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, experiment.KindOf(cfg.System), cfg.System.Formula, formatParams(cfg.System.Params))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nkinds: %s\nintegrators: %s\n", strings.Join(experiment.ListKinds(), ", "), strings.Join(integrators.Names(), ", "))
	return nil
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if dryRun {
		for i, step := range sc.Steps {
			cfg, err := step.Config()
			if err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			fmt.Printf("%d: %s %s dt=%g duration=%g\n", i+1, experiment.KindOf(cfg.System), cfg.System.Formula, cfg.Dt, cfg.Duration)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	results, err := automation.RunScenario(ctx, sc, openStore(), slog.Default())
	for _, r := range results {
		fmt.Printf("  %-20s %-28s %s\n", r.Name, r.RunID, r.Result.Termination)
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, pl, err := automation.RunMonteCarlo(ctx, exp, automation.MonteCarloConfig{
		Perturbation: spread,
		NumTrials:    trials,
		Seed:         seed,
	})
	if err != nil {
		return err
	}
	stats := automation.MonteCarloStats(results)

	fmt.Printf("%s, %d trials around %v (spread %g)\n\n", exp.System(), len(results), exp.Config().InitState(), spread)
	for _, t := range []sim.Termination{sim.Horizon, sim.OutOfBounds, sim.Frozen} {
		if n := stats.Terminations[t]; n > 0 {
			fmt.Printf("  %-14s %d\n", t, n)
		}
	}
	if pl != nil {
		fmt.Println("\nbasins:")
		for i, eq := range pl.Equilibria {
			if n := stats.Basins[i]; n > 0 {
				fmt.Printf("  %s X=%-10.5g %d\n", viz.StabilityMarker(eq.Stability), eq.X, n)
			}
		}
		if n := stats.Basins[-1]; n > 0 {
			fmt.Printf("  unsettled      %d\n", n)
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("preset") && !flags.Changed("config") && !flags.Changed("formula") {
		return viz.RunPicker(particles, slog.Default())
	}
	cfg, err := resolveConfig(cmd, sf)
	if err != nil {
		return err
	}
	return viz.RunExplorer(cfg, particles, slog.Default())
}
