package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/analysis"
	"github.com/san-kum/rigidsim/internal/automation"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/export"
	"github.com/san-kum/rigidsim/internal/optim"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/space"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/san-kum/rigidsim/internal/world"
	"github.com/spf13/cobra"
)

var errNoMovingBodies = errors.New("no moving bodies")

var (
	// sweep
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepMetric string
	// montecarlo
	trials  int
	perturb float64
	seed    uint64
	// export-svg
	frame    int
	paths    bool
	svgScale float64
	svgCols  int
	svgRows  int
	// analyze
	coord    string
	maxFreq  float64
	crossing float64
	// tune
	grid       []string
	tuneMetric string
)

func batchCommands() []*cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "run a scene across a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "restitution", "parameter: "+strings.Join(automation.Params(), ", "))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of runs")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to plot against the parameter")
	sweepCmd.Flags().Int("parallel", 0, "worlds stepped at once (0 for all)")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [scene]",
		Short: "run trials with randomly perturbed initial velocities",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	simFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.5, "largest velocity offset per axis")
	mcCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	mcCmd.Flags().Int("parallel", 0, "worlds stepped at once (0 for all)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the steps")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a frame or the body paths of a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	svgCmd.Flags().IntVar(&frame, "frame", -1, "sample index to render (default last)")
	svgCmd.Flags().BoolVar(&paths, "paths", false, "draw body trajectories instead of a frame")
	svgCmd.Flags().Float64Var(&svgScale, "scale", 4, "pixels per dot")
	svgCmd.Flags().IntVar(&svgCols, "cols", 100, "canvas width in cells")
	svgCmd.Flags().IntVar(&svgRows, "rows", 40, "canvas height in cells")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and phase analysis of a body in a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&bodyLabel, "body", "", "body label (default first moving body)")
	analyzeCmd.Flags().StringVar(&coord, "coord", "y", "coordinate: "+strings.Join(analysis.Coordinates, ", "))
	analyzeCmd.Flags().Float64Var(&maxFreq, "max-freq", 5, "highest frequency plotted, in Hz")
	analyzeCmd.Flags().Float64Var(&crossing, "poincare", math.NaN(), "also print the section where the coordinate rises through this level")

	tuneCmd := &cobra.Command{
		Use:   "tune [scene]",
		Short: "grid search world parameters minimising a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScene,
	}
	simFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "param=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_penetration", "metric to minimise")

	return []*cobra.Command{sweepCmd, mcCmd, scenarioCmd, svgCmd, analyzeCmd, tuneCmd}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	sw := automation.Sweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps, Parallel: parallelism(cmd)}
	results, err := automation.RunSweep(cmd.Context(), registry, cfg, sw)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %s over %s (%d runs, %.1fs each)\n\n", sweepParam, cfg.Name(), len(results), cfg.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tKINETIC\tENERGY_DRIFT\tSTABILITY\tSLEEP_RATIO\tENERGY_MIN\tENERGY_MAX\tCONTACTS\n", strings.ToUpper(sweepParam))
	values := make([]float64, len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%.4g\t%.4f\t%.2e\t%.3f\t%.3f\t%.3f\t%.3f\t%d\n",
			r.Value,
			r.Metrics["kinetic_energy"],
			r.Metrics["energy_drift"],
			r.Metrics["stability"],
			r.Metrics["sleep_ratio"],
			r.MinEnergy,
			r.MaxEnergy,
			r.Final.Contacts,
		)
		v, ok := r.Metrics[sweepMetric]
		if !ok {
			return fmt.Errorf("unknown metric %q", sweepMetric)
		}
		values[i] = v
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(values) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(values,
			asciigraph.Height(10),
			asciigraph.Caption(fmt.Sprintf("%s vs %s [%g, %g]", sweepMetric, sweepParam, sweepMin, sweepMax)),
		))
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	mc := automation.MonteCarlo{Trials: trials, Perturbation: perturb, Seed: seed, Parallel: parallelism(cmd)}
	results, err := automation.RunMonteCarlo(cmd.Context(), registry, cfg, mc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTABLE\tENERGY_DRIFT\tMAX_PENETRATION\tSLEEPING")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%t\t%.2e\t%.4f\t%d\n",
			r.Trial,
			r.Stable,
			r.Metrics["energy_drift"],
			r.Metrics["max_penetration"],
			r.Final.Sleeping,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\n%d stable, %d unstable (%.1f%%)\n", stable, unstable, 100*float64(stable)/float64(len(results)))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	o, err := config.ParseEnv()
	if err != nil {
		return err
	}
	base := config.DefaultConfig()
	o.Apply(base)
	sc, err := automation.LoadScenario(args[0], base)
	if err != nil {
		return err
	}
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}

	var st *storage.Store
	if !noSave {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	_, err = automation.RunScenario(cmd.Context(), registry, sc, func(step automation.Step, res *sim.Result) error {
		cfg := step.Config
		fmt.Printf("%s: %d steps, drift %.2e\n", cfg.Name(), res.StepsTaken, res.Metrics["energy_drift"])
		if st == nil {
			return nil
		}
		meta := storage.RunMetadata{
			Scene:      cfg.Name(),
			Dim:        cfg.Dim,
			Precision:  cfg.Precision,
			Dt:         stepDt(cfg),
			Duration:   cfg.Duration,
			Integrator: cfg.Integrator,
			Gravity:    experiment.Gravity(cfg),
		}
		if step.SaveAs != "" {
			meta.ID = fmt.Sprintf("%s_%d", step.SaveAs, time.Now().UnixNano())
		}
		id, err := st.Save(cmd.Context(), meta, res)
		if err != nil {
			return err
		}
		fmt.Printf("  run id: %s\n", id)
		return nil
	})
	return err
}

// stepDt returns the configured timestep or the world default.
func stepDt(cfg *config.Config) float64 {
	if cfg.Params.Dt > 0 {
		return cfg.Params.Dt
	}
	return world.DefaultParams[float64, mgl64.Vec2](space.Plane64{}).Dt
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(result.Snapshots) == 0 {
		return fmt.Errorf("run %s has no samples", meta.ID)
	}
	w, closeOut, err := output()
	if err != nil {
		return err
	}

	cam := viz.NewCamera(meta.Dim)
	if paths {
		ps := trajectories(result, cam)
		if len(ps) == 0 {
			closeOut()
			return fmt.Errorf("run %s: %w", meta.ID, errNoMovingBodies)
		}
		err = export.PathsToSVG(w, ps, svgCols*8, svgRows*8)
	} else {
		i := frame
		if i < 0 || i >= len(result.Snapshots) {
			i = len(result.Snapshots) - 1
		}
		snap := result.Snapshots[i]
		canvas := viz.NewCanvas(svgCols, svgRows)
		dw, dh := canvas.Dots()
		viz.Draw(canvas, viz.NewProjector(cam, viz.Fit(snap, cam), dw, dh), snap)
		err = export.CanvasToSVG(w, canvas, svgScale)
	}
	if err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

// trajectories projects the path of every moving body through cam.
func trajectories(result *sim.Result, cam *viz.Camera) []export.Path {
	var out []export.Path
	index := map[string]int{}
	for _, s := range result.Snapshots {
		for _, b := range s.Bodies {
			if b.Status == body.Static {
				continue
			}
			var p mgl64.Vec3
			copy(p[:], b.Position)
			q := cam.Project(p)
			i, ok := index[b.Label]
			if !ok {
				i = len(out)
				index[b.Label] = i
				out = append(out, export.Path{Label: b.Label})
			}
			out[i].Points = append(out[i].Points, [2]float64{q[0], q[1]})
		}
	}
	return out
}

// movingBody returns the label of the first non-static body.
func movingBody(s world.Snapshot) (string, bool) {
	for _, b := range s.Bodies {
		if b.Status != body.Static {
			return b.Label, true
		}
	}
	return "", false
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(result.Snapshots) < analysis.MinSamples {
		return fmt.Errorf("run %s has too few samples to analyze", meta.ID)
	}
	label := bodyLabel
	if label == "" {
		var ok bool
		if label, ok = movingBody(result.Snapshots[0]); !ok {
			return fmt.Errorf("run %s: %w", meta.ID, errNoMovingBodies)
		}
	}

	phase, err := analysis.PhaseOf(result.Snapshots, label, coord)
	if err != nil {
		return err
	}
	if len(phase.Points) < analysis.MinSamples {
		return fmt.Errorf("%s appears in only %d samples", label, len(phase.Points))
	}
	positions := make([]float64, len(phase.Points))
	for i, p := range phase.Points {
		positions[i] = p.X
	}
	interval := (phase.Times[len(phase.Times)-1] - phase.Times[0]) / float64(len(phase.Times)-1)
	spectrum, err := analysis.PowerSpectrum(positions, interval)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s, body %s, coordinate %s\n\n", meta.Scene, label, coord)
	if plotData := spectrum.Below(maxFreq); len(plotData) > 1 {
		fmt.Println(asciigraph.Plot(plotData,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("amplitude spectrum of %s.%s, 0-%.1f Hz", label, coord, maxFreq)),
		))
		fmt.Println()
	}
	freq, amp := spectrum.Dominant()
	fmt.Printf("dominant frequency: %.3f hz (amplitude %.4f)\n", freq, amp)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1/freq)
	}

	fmt.Printf("\nphase portrait (%s against its velocity):\n", coord)
	fmt.Println(phase.Plot(60, 15, true))

	if !math.IsNaN(crossing) {
		section, err := analysis.Poincare(result.Snapshots, label, coord, crossing)
		if err != nil {
			return err
		}
		fmt.Printf("\n%d crossings of %s = %g\n", len(section.Points), coord, crossing)
		for i, p := range section.Points {
			fmt.Printf("  t=%.3f  v=%.4f\n", section.Times[i], p.Y)
		}
	}
	return nil
}

// parseGrid splits param=v1,v2 flags into names and value lists.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	var names []string
	var ranges [][]float64
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, nil, fmt.Errorf("grid %q: expected param=v1,v2", entry)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %q: %w", entry, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tuneScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	fmt.Printf("tuning %s: %d runs minimising %s\n\n", cfg.Name(), g.Size(), tuneMetric)
	best, trials, err := g.Search(cmd.Context(), registry, cfg, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(tuneMetric))
	for _, t := range trials {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", t.Params[n])
		}
		fmt.Fprintf(w, "%.6g\n", t.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Print("\nbest:")
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best.Params[n])
	}
	fmt.Printf(" (%s %.6g)\n", tuneMetric, best.Value)
	return nil
}
