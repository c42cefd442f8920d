package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/phasekit/internal/config"
	"github.com/san-kum/phasekit/internal/viz"
)

// systemFlags holds the flags shared by every command that builds a system.
type systemFlags struct {
	preset     string
	configFile string
	formula    string
	dim        int
	delay      bool
	tau        float64
	params     []string
	integrator string
	dt         float64
	duration   float64
	x0, y0     float64
	min, max   float64
	yMin, yMax float64
	samples    int
}

var (
	dataDir string
	verbose bool
	sf      systemFlags
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "phasekit",
		Short:         "phase line analysis and simulation of one-dimensional and planar flows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(verbose))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunPicker(particles, slog.Default())
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".phasekit", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	checkCmd := &cobra.Command{
		Use:   "check [formula]",
		Short: "compile a formula and report its parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  checkFormula,
	}
	checkCmd.Flags().IntVar(&sf.dim, "dim", 1, "state dimension (1 or 2)")
	checkCmd.Flags().BoolVar(&sf.delay, "delay", false, "delay system (X_tau available)")
	checkCmd.Flags().StringArrayVarP(&sf.params, "param", "p", nil, "parameter name=value (repeatable)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate a trajectory and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSystemFlags(runCmd)
	runCmd.Flags().IntVar(&ensemble, "ensemble", 0, "also run N particles across the domain")
	runCmd.Flags().StringVar(&invariant, "invariant", "", "conserved quantity to track, e.g. \"Y^2 + X^2\"")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "find equilibria and their stability on the phase line",
		Args:  cobra.NoArgs,
		RunE:  analyzePhaseLine,
	}
	addSystemFlags(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&asYAML, "yaml", false, "print the report as YAML")
	analyzeCmd.Flags().StringVar(&saveTo, "save", "", "attach the report to a stored run")
	analyzeCmd.Flags().StringVar(&svgPath, "svg", "", "also write the phase line as SVG")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "track equilibria as one parameter varies",
		Args:  cobra.NoArgs,
		RunE:  sweepParameter,
	}
	addSystemFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "vary", "", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first parameter value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "last parameter value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 60, "number of parameter values")
	_ = sweepCmd.MarkFlagRequired("vary")

	portraitCmd := &cobra.Command{
		Use:   "portrait",
		Short: "plot a planar trajectory and its vector field",
		Args:  cobra.NoArgs,
		RunE:  phasePortrait,
	}
	addSystemFlags(portraitCmd)
	portraitCmd.Flags().IntVar(&fieldSize, "field", 0, "also draw an NxN direction field")
	portraitCmd.Flags().StringVar(&svgPath, "svg", "", "also write the trajectory as SVG")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML batch of experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve steps without storing runs")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "integrate perturbed copies of the initial state and count basins",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addSystemFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&spread, "spread", 0.1, "maximum perturbation per component")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the trajectory as SVG dots")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run states to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data and analysis to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in systems",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "explore a system interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSystemFlags(liveCmd)
	liveCmd.Flags().IntVar(&particles, "particles", 5, "number of animated particles")
	rootCmd.Flags().IntVar(&particles, "particles", 5, "number of animated particles")

	rootCmd.AddCommand(checkCmd, runCmd, analyzeCmd, sweepCmd, portraitCmd, plotCmd, listCmd, exportCSVCmd, exportJSONCmd, presetsCmd, liveCmd, scenarioCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
}

func addSystemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&sf.preset, "preset", "", "start from a built-in system")
	f.StringVar(&sf.configFile, "config", "", "config file path (yaml)")
	f.StringVarP(&sf.formula, "formula", "f", "", "right-hand side; planar systems use \"f, g\"")
	f.IntVar(&sf.dim, "dim", 1, "state dimension (1 or 2)")
	f.BoolVar(&sf.delay, "delay", false, "delay system (X_tau available)")
	f.Float64Var(&sf.tau, "tau", 0, "delay lag")
	f.StringArrayVarP(&sf.params, "param", "p", nil, "parameter name=value (repeatable)")
	f.StringVar(&sf.integrator, "integrator", "rk4", "integrator")
	f.Float64Var(&sf.dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&sf.duration, "time", config.DefaultDuration, "duration")
	f.Float64Var(&sf.x0, "x0", 0.1, "initial X")
	f.Float64Var(&sf.y0, "y0", 0, "initial Y")
	f.Float64Var(&sf.min, "min", config.DefaultDomainLo, "domain lower bound for X")
	f.Float64Var(&sf.max, "max", config.DefaultDomainHi, "domain upper bound for X")
	f.Float64Var(&sf.yMin, "ymin", config.DefaultDomainLo, "domain lower bound for Y")
	f.Float64Var(&sf.yMax, "ymax", config.DefaultDomainHi, "domain upper bound for Y")
	f.IntVar(&sf.samples, "samples", 0, "phase line sample count")
}

// resolveConfig layers the built-in defaults, the preset, the config file
// and then every flag the user actually set.
func resolveConfig(cmd *cobra.Command, flags systemFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.preset != "" {
		cfg = config.GetPreset(flags.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", flags.preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if flags.configFile != "" {
		if err := config.LoadInto(flags.configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("formula") {
		cfg.System.Formula = flags.formula
		if !changed("preset") && !changed("config") {
			// A bare formula should not inherit the default logistic parameters.
			cfg.System.Params = map[string]float64{}
		}
	}
	if changed("dim") {
		cfg.System.Dim = flags.dim
	}
	if changed("delay") {
		cfg.System.Delay = flags.delay
	}
	if changed("tau") {
		cfg.System.Tau = flags.tau
	}
	if changed("param") {
		params, err := parseParams(flags.params)
		if err != nil {
			return nil, err
		}
		if cfg.System.Params == nil {
			cfg.System.Params = map[string]float64{}
		}
		for k, v := range params {
			cfg.System.Params[k] = v
		}
	}
	if changed("integrator") {
		cfg.Integrator = flags.integrator
	}
	if changed("dt") {
		cfg.Dt = flags.dt
	}
	if changed("time") {
		cfg.Duration = flags.duration
	}
	if changed("x0") {
		cfg.Init.X = flags.x0
	}
	if changed("y0") {
		cfg.Init.Y = flags.y0
	}
	if changed("min") {
		cfg.Domain.Min = flags.min
	}
	if changed("max") {
		cfg.Domain.Max = flags.max
	}
	if changed("ymin") {
		cfg.Domain.YMin = flags.yMin
	}
	if changed("ymax") {
		cfg.Domain.YMax = flags.yMax
	}
	if changed("samples") {
		cfg.Analysis.Samples = flags.samples
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseParams reads name=value pairs.
func parseParams(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %q: %w", pair, err)
		}
		out[name] = v
	}
	return out, nil
}
