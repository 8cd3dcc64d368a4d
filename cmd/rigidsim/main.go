package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/telemetry"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/san-kum/rigidsim/internal/world"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	dim         int
	precision   int
	dt          float64
	duration    float64
	iterations  int
	integrator  string
	count       int
	sampleEvery int
	noSave      bool
	verbose     bool
	// plot
	series    string
	bodyLabel string
	// export
	outFile string
)

var (
	logger   = log.New(os.Stderr, "rigidsim: ", log.LstdFlags)
	registry = experiment.NewRegistry()
	shutdown = func(context.Context) error { return nil }
)

// main registers commands and flags and executes the root command. Without
// a subcommand the interactive scene menu opens.
func main() {
	rootCmd := &cobra.Command{
		Use:           "rigidsim",
		Short:         "rigid-body simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			shutdown, err = telemetry.Setup(cmd.Context(), "rigidsim")
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return shutdown(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default $RIGIDSIM_DATA or ./data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log solver warnings")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	simFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a series of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "", "series to plot: "+strings.Join(seriesNames(), ", "))
	plotCmd.Flags().StringVar(&bodyLabel, "body", "", "body label for coordinate series")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the samples of a stored run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	simFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark a scene in every dimension and precision",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	simFlags(benchCmd)
	benchCmd.Flags().Int("parallel", 1, "worlds stepped at once (0 for all)")

	compareCmd := &cobra.Command{
		Use:   "compare [scene] [integrator...]",
		Short: "compare integrators on the same scene",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	simFlags(compareCmd)
	compareCmd.Flags().Int("parallel", 0, "worlds stepped at once (0 for all)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list scenes and their presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, liveCmd, benchCmd, compareCmd, presetsCmd)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		logger.Print(err)
		os.Exit(1)
	}
}

func simFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&dim, "dim", config.DefaultDim, "dimension (2 or 3)")
	f.IntVar(&precision, "precision", config.DefaultPrecision, "float precision (32 or 64)")
	f.Float64Var(&dt, "dt", 1.0/60, "timestep")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	f.IntVar(&iterations, "iterations", 10, "solver iterations")
	f.StringVar(&integrator, "integrator", "symplectic", "integrator: "+strings.Join(registry.ListIntegrators(), ", "))
	f.IntVar(&count, "count", 0, "body count for stack, chain and pile")
	f.IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "record every n steps")
}

// resolveConfig layers defaults, preset, file and environment, then applies
// the flags the user set.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	o, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}
	scene := ""
	if len(args) > 0 {
		scene = args[0]
	}
	cfg, err := config.Resolve(scene, preset, configFile, o)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("dim") {
		cfg.Dim = dim
	}
	if f.Changed("precision") {
		cfg.Precision = precision
	}
	if f.Changed("dt") {
		cfg.Params.Dt = dt
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("iterations") {
		cfg.Params.Iterations = iterations
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("count") {
		cfg.Scene.Count = count
	}
	if f.Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func worldOptions() []world.Option {
	if !verbose {
		return nil
	}
	return []world.Option{world.WithLogger(logger)}
}

// parallelism reads the --parallel flag of cmd; each command has its own
// default.
func parallelism(cmd *cobra.Command) int {
	n, _ := cmd.Flags().GetInt("parallel")
	return n
}

func openStore() (*storage.Store, error) {
	dir := dataDir
	if dir == "" {
		o, err := config.ParseEnv()
		if err != nil {
			return nil, err
		}
		dir = o.DataDir
	}
	st := storage.New(dir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func integratorOf(w sim.World, cfg *config.Config) string {
	if n, ok := w.(interface{ Integrator() string }); ok {
		return n.Integrator()
	}
	return cfg.Integrator
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(registry, cfg, worldOptions()...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%s)...\n", cfg.Name(), experiment.Instantiation(cfg.Dim, cfg.Precision))
	start := time.Now()
	result, err := exp.Run(ctx)
	if errors.Is(err, context.Canceled) && result != nil {
		logger.Printf("interrupted after %d steps, keeping partial run", result.StepsTaken)
	} else if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if final, ok := result.Final(); ok {
		fmt.Printf("bodies: %d (%d asleep)\n", len(final.Bodies), result.Stats[len(result.Stats)-1].Sleeping)
	}
	fmt.Println("\nmetrics:")
	for _, name := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Save(cmd.Context(), storage.RunMetadata{
		Scene:      cfg.Name(),
		Dim:        cfg.Dim,
		Precision:  cfg.Precision,
		Dt:         exp.World().Dt(),
		Duration:   cfg.Duration,
		Integrator: integratorOf(exp.World(), cfg),
		Gravity:    experiment.Gravity(cfg),
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tWORLD\tBODIES\tSTEPS\tDT\tINTEG")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.4fs\t%s\n",
			run.ID,
			run.Scene,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			experiment.Instantiation(run.Dim, run.Precision),
			run.Bodies,
			run.Steps,
			run.Dt,
			run.Integrator,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadSamples(cmd.Context(), meta.ID)
	if err != nil {
		return err
	}
	if len(result.Snapshots) < 2 {
		return fmt.Errorf("run %s has too few samples to plot", meta.ID)
	}

	names := []string{series}
	if series == "" {
		names = []string{"energy", "kinetic"}
		if bodyLabel != "" {
			names = []string{"y", "speed"}
		}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s (%s)\n", meta.Scene, experiment.Instantiation(meta.Dim, meta.Precision))
	fmt.Printf("samples: %d\n\n", len(result.Snapshots))
	for _, name := range names {
		fn, caption, err := seriesFunc(name, bodyLabel, meta.Gravity)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(result.Series(fn),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

// output opens the export destination; the returned close is a no-op for
// stdout.
func output() (io.Writer, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func loadRun(ctx context.Context, runID string) (*storage.RunMetadata, *sim.Result, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadSamples(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, result, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	w, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, *meta, result); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	w, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportCSV(w, result); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Printf("exported %d samples to %s\n", len(result.Snapshots), outFile)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && preset == "" && configFile == "" {
		return runMenu()
	}
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	opts := worldOptions()
	build := func() (sim.World, error) { return registry.Build(cfg, opts...) }
	return viz.Run(cfg.Name(), experiment.Gravity(cfg), build)
}

// runMenu opens the scene picker. Scenes are built from their generated
// configuration or a preset, with environment overrides applied.
func runMenu() error {
	var entries []viz.Entry
	for _, name := range registry.ListScenes() {
		entries = append(entries, viz.Entry{
			Name:    name,
			About:   registry.Describe(name),
			Presets: config.ListPresets(name),
		})
	}
	opts := worldOptions()
	open := func(scene, name string) (viz.Builder, []float64, error) {
		o, err := config.ParseEnv()
		if err != nil {
			return nil, nil, err
		}
		cfg, err := config.Resolve(scene, name, "", o)
		if err != nil {
			return nil, nil, err
		}
		build := func() (sim.World, error) { return registry.Build(cfg, opts...) }
		return build, experiment.Gravity(cfg), nil
	}
	return viz.RunInteractive(entries, open)
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	type variant struct{ dim, precision int }
	variants := []variant{{2, 64}, {2, 32}, {3, 64}, {3, 32}}
	if cmd.Flags().Changed("dim") || cmd.Flags().Changed("precision") {
		variants = []variant{{cfg.Dim, cfg.Precision}}
	}

	worlds := make([]sim.World, len(variants))
	for i, v := range variants {
		c := config.Clone(cfg)
		c.Dim, c.Precision = v.dim, v.precision
		if len(c.Scene.Bodies) > 0 && v.dim != cfg.Dim {
			return fmt.Errorf("scene %s lists explicit bodies; bench it with --dim %d", cfg.Name(), cfg.Dim)
		}
		if worlds[i], err = registry.Build(c, worldOptions()...); err != nil {
			return err
		}
	}

	ens := sim.NewEnsemble(worlds, parallelism(cmd))
	simCfg := sim.Config{Duration: cfg.Duration, SampleEvery: 1 << 30, Label: cfg.Name()}

	fmt.Printf("benchmarking %s for %.1fs of simulated time\n\n", cfg.Name(), cfg.Duration)
	start := time.Now()
	results, err := ens.Run(cmd.Context(), simCfg)
	if err != nil {
		return err
	}
	total := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORLD\tBODIES\tSTEPS\tTIME\tSTEPS/SEC\tSLEEPING")
	for i, v := range variants {
		res := results[i]
		final := res.Stats[len(res.Stats)-1]
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3fs\t%.0f\t%d\n",
			experiment.Instantiation(v.dim, v.precision),
			final.Bodies,
			res.StepsTaken,
			res.Elapsed,
			float64(res.StepsTaken)/res.Elapsed,
			final.Sleeping,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nwall time: %v\n", total)
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	names := args[1:]
	if len(names) == 0 {
		names = registry.ListIntegrators()
	}

	worlds := make([]sim.World, len(names))
	for i, name := range names {
		c := config.Clone(cfg)
		c.Integrator = name
		if worlds[i], err = registry.Build(c, worldOptions()...); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	ens := sim.NewEnsemble(worlds, parallelism(cmd))
	for i := range names {
		for _, m := range registry.DefaultMetrics(cfg) {
			ens.Runner(i).AddMetric(m)
		}
	}

	simCfg := sim.Config{Duration: cfg.Duration, SampleEvery: cfg.SampleEvery, Label: cfg.Name()}
	results, err := ens.Run(cmd.Context(), simCfg)
	if err != nil {
		return err
	}

	gravity := experiment.Gravity(cfg)
	fmt.Printf("comparing integrators for %s (dt=%.4f, duration=%.1fs)\n\n", cfg.Name(), worlds[0].Dt(), cfg.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tENERGY_DRIFT\tMOMENTUM\tSTABILITY\tSLEEP_RATIO\tTIME_MS")
	energies := make([][]float64, len(results))
	for i, res := range results {
		fmt.Fprintf(w, "%s\t%.2e\t%.4f\t%.3f\t%.3f\t%.2f\n",
			names[i],
			res.Metrics["energy_drift"],
			res.Metrics["momentum"],
			res.Metrics["stability"],
			res.Metrics["sleep_ratio"],
			res.Elapsed*1000,
		)
		energies[i] = res.Series(func(s world.Snapshot, _ world.Stats) float64 {
			return metrics.Mechanical(s, gravity)
		})
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(asciigraph.PlotMany(energies,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("mechanical energy: "+strings.Join(names, ", ")),
	))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	scenes := registry.ListScenes()
	if len(args) > 0 {
		scenes = args
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tPRESETS\tDESCRIPTION")
	for _, name := range scenes {
		if _, err := registry.Scene(name, config.DefaultDim, 0); err != nil {
			return err
		}
		presets := config.ListPresets(name)
		list := "-"
		if len(presets) > 0 {
			list = strings.Join(presets, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, list, registry.Describe(name))
	}
	return w.Flush()
}
