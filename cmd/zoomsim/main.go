package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/zoomsim/internal/analysis"
	"github.com/san-kum/zoomsim/internal/automation"
	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/experiment"
	"github.com/san-kum/zoomsim/internal/export"
	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/optics"
	"github.com/san-kum/zoomsim/internal/optim"
	"github.com/san-kum/zoomsim/internal/sim"
	"github.com/san-kum/zoomsim/internal/storage"
	"github.com/san-kum/zoomsim/internal/viz"
)

var (
	dataDir    string
	debug      bool
	configFile string
	preset     string

	dt           float64
	duration     float64
	maxZoom      float64
	slewRate     float64
	topic        string
	referenceFov float64
	hfovDeg      float64
	commands     []string
	teardownAt   float64
	renderDelay  int

	outDir  string
	jsonOut string
	csvOut  string
	theme   string
	watch   bool
	save    bool
	minSlew float64
	maxSlew float64
	steps   int
	workers int
	trials  int
	numCmds int
	seed    int64

	deadline   float64
	tuneParam  string
	tuneValues []float64
	tuneMetric string
)

var logger *logging.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:   "zoomsim",
		Short: "motorized zoom lens simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".zoomsim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug log to the data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a zoom scenario and store the samples",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also write the run as JSON to this file")
	runCmd.Flags().StringVar(&csvOut, "csv", "", "also write the samples as CSV to this file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive the zoom lens interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().BoolVar(&watch, "watch", false, "rebuild when the config file changes")
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemeStudio.Name, fmt.Sprintf("color theme %v", viz.ThemeNames()))

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot fov, focal length and zoom of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render run charts and the final frustum as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&outDir, "out", ".", "output directory")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMAX ZOOM\tSLEW\tCOMMANDS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%g\t%s\t%s\n", name, p.Plugin.MaxZoom, formatSlew(p.Plugin.SlewRate), formatCommands(p.Commands))
			}
			return w.Flush()
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch [suite.yaml]",
		Short: "run every scenario of a suite",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&save, "save", false, "store every run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compare slew rates on one scenario",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&minSlew, "min", 0.001, "lowest slew rate [m/s]")
	sweepCmd.Flags().Float64Var(&maxSlew, "max", 0.1, "highest slew rate [m/s]")
	sweepCmd.Flags().IntVar(&steps, "steps", 8, "number of slew rates")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs, 0 for one per CPU")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "random zoom commands against the lens limits",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	scenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().IntVar(&numCmds, "commands", 10, "commands per trial")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 for time based")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response of every zoom goal in a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search a plugin parameter under a settle deadline",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	scenarioFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneParam, "param", "slew_rate", fmt.Sprintf("parameter to search %v", optim.ParamNames()))
	tuneCmd.Flags().Float64SliceVar(&tuneValues, "values", []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1}, "candidate values")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_focal_step", "metric to minimize")
	tuneCmd.Flags().Float64Var(&deadline, "deadline", 2.0, "latest acceptable settle time [s], 0 for none")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, batchCmd, sweepCmd, monteCarloCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep [s]")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration [s]")
	cmd.Flags().Float64Var(&maxZoom, "max-zoom", config.DefaultMaxZoom, "maximum zoom factor")
	cmd.Flags().Float64Var(&slewRate, "slew", 0, "focal length slew rate [m/s], 0 for instant")
	cmd.Flags().StringVar(&topic, "topic", "", "zoom command topic")
	cmd.Flags().Float64Var(&referenceFov, "ref-fov", 0, "fov at zoom 1.0 [rad], 0 uses the camera")
	cmd.Flags().Float64Var(&hfovDeg, "hfov", optics.Degrees(config.DefaultHfov), "initial camera horizontal fov [deg]")
	cmd.Flags().StringSliceVar(&commands, "cmd", nil, "zoom command as time:zoom, repeatable")
	cmd.Flags().Float64Var(&teardownAt, "teardown", 0, "tear down rendering at this time [s]")
	cmd.Flags().IntVar(&renderDelay, "render-delay", config.DefaultRenderDelay, "ticks before the renderer loads")
}

// setupLogging sends debug output to the data directory. Without --debug,
// warnings still reach stderr for the commands that do not own the terminal.
func setupLogging(cmd *cobra.Command) error {
	if _, err := logging.Setup(debug, dataDir); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if debug || cmd.Name() == "live" {
		logger = logging.Default()
		return nil
	}
	logger = logging.New(log.New(os.Stderr, "", 0), false)
	return nil
}

// resolveConfig applies preset, then config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Name = "custom"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if cfg.Name == "" {
			cfg.Name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("max-zoom") {
		cfg.Plugin.MaxZoom = maxZoom
	}
	if flags.Changed("slew") {
		cfg.Plugin.SlewRate = slewRate
		if slewRate == 0 {
			cfg.Plugin.SlewRate = math.Inf(1)
		}
	}
	if flags.Changed("topic") {
		cfg.Plugin.Topic = topic
	}
	if flags.Changed("hfov") {
		cfg.Camera.Hfov = optics.Radians(hfovDeg)
	}
	if flags.Changed("ref-fov") {
		cfg.Plugin.ReferenceFov = referenceFov
	}
	if flags.Changed("cmd") {
		parsed, err := parseCommands(commands)
		if err != nil {
			return nil, err
		}
		cfg.Commands = parsed
	}
	if flags.Changed("teardown") {
		cfg.TeardownAt = teardownAt
	}
	if flags.Changed("render-delay") {
		cfg.RenderDelay = renderDelay
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseCommands(raw []string) ([]config.Command, error) {
	out := make([]config.Command, 0, len(raw))
	for _, r := range raw {
		at, zoom, ok := strings.Cut(r, ":")
		if !ok {
			return nil, fmt.Errorf("invalid command %q, expected time:zoom", r)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(at), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid command time %q: %w", at, err)
		}
		z, err := strconv.ParseFloat(strings.TrimSpace(zoom), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid command zoom %q: %w", zoom, err)
		}
		out = append(out, config.Command{Time: t, Zoom: z})
	}
	return out, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s scenario...\n", cfg.Name)
	start := time.Now()

	result, err := experiment.NewRegistry().RunConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, cfg, result); err != nil {
			return err
		}
	}
	if csvOut != "" {
		if err := storage.ExportCSV(csvOut, result); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if len(result.Errors) > 0 {
		fmt.Printf("errors: %d (first: %v)\n", len(result.Errors), result.Errors[0])
	}
	if final, ok := result.Final(); ok {
		fmt.Printf("final hfov: %.4f rad (%.2f deg), zoom %.2fx\n", final.Hfov, optics.Degrees(final.Hfov), final.Zoom)
	}
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	fmt.Println("\nmetrics:")
	for _, name := range experiment.NewRegistry().ListMetrics() {
		if v, ok := m[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, v)
		}
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var watcher *config.Watcher
	if watch {
		if configFile == "" {
			return fmt.Errorf("--watch needs --config")
		}
		watcher, err = config.Watch(configFile)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	m, err := viz.NewModel(cfg, watcher, logger)
	if err != nil {
		return err
	}
	return viz.Run(m.WithTheme(viz.GetTheme(theme)))
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tMAX ZOOM\tSLEW\tCOMMANDS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%g\t%s\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.MaxZoom,
			formatSlew(run.SlewRateValue()),
			len(run.Commands),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(s sim.Sample) float64
	}{
		{"hfov [deg]", func(s sim.Sample) float64 { return optics.Degrees(s.Hfov) }},
		{"goal fov [deg]", func(s sim.Sample) float64 { return optics.Degrees(s.GoalFov) }},
		{"focal length [mm]", func(s sim.Sample) float64 { return s.FocalLength * 1000 }},
		{"zoom", func(s sim.Sample) float64 { return s.Zoom }},
	}

	for _, sr := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = sr.value(s)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to analyze")
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("step response: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Name)

	segments := analysis.Segments(samples, config.DefaultTolerance)
	if len(segments) == 0 {
		fmt.Println("camera never bound")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tFROM\tTO\tFINAL\tRISE\tSETTLE\tOVERSHOOT\tMONOTONIC")
	for _, seg := range segments {
		fmt.Fprintf(w, "%.2fs\t%.2f°\t%.2f°\t%.2f°\t%s\t%s\t%.2e\t%v\n",
			seg.Start,
			optics.Degrees(seg.StartFov),
			optics.Degrees(seg.GoalFov),
			optics.Degrees(seg.FinalFov),
			formatSettle(seg.RiseTime),
			formatSettle(seg.SettleTime),
			seg.Overshoot,
			seg.Monotonic,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	spectrum := analysis.MotorSpectrum(samples, meta.Dt)
	if len(spectrum.Power) > 2 {
		graph := asciigraph.Plot(spectrum.Power[1:],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("focal length rate power spectrum"),
		)
		fmt.Println()
		fmt.Println(graph)
	}
	if freq, _ := spectrum.Dominant(); freq > 0 {
		fmt.Printf("\ndominant motor frequency: %.3f hz\n", freq)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteCSV(os.Stdout, samples)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	return storage.WriteJSON(os.Stdout, storage.NewExportData(*meta, samples))
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}

	final := samples[len(samples)-1]
	ref := meta.ReferenceFov
	if ref == 0 {
		ref = samples[0].Hfov
	}
	canvas := viz.NewCanvas(60, 20)
	viz.Frustum{Hfov: final.Hfov, GoalFov: final.GoalFov, RefFov: ref}.Draw(canvas)

	files := map[string]string{
		runID + "_fov.svg":     export.FovTrajectorySVG(samples, 800, 400),
		runID + "_focal.svg":   export.FocalLengthSVG(samples, 800, 400),
		runID + "_frustum.svg": export.CanvasToSVG(canvas, 6),
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	for name, svg := range files {
		if svg == "" {
			continue
		}
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	suite, err := automation.LoadSuite(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("suite: %s\n", suite.Name)
	if suite.Description != "" {
		fmt.Printf("%s\n", suite.Description)
	}

	outcomes, err := automation.RunSuite(ctx, suite, experiment.NewRegistry(), logger, os.Stdout)
	if err != nil {
		return err
	}

	var st *storage.Store
	if save {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nNAME\tSTEPS\tERRORS\tSETTLE\tFINAL ERR\tRUN ID")
	for _, o := range outcomes {
		runID := "-"
		if st != nil {
			if runID, err = st.Save(o.Config, o.Result); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%.2e\t%s\n",
			o.Config.Name,
			o.Result.StepsTaken,
			len(o.Result.Errors),
			formatSettle(o.Result.Metrics["settle_time"]),
			o.Result.Metrics["final_fov_error"],
			runID,
		)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.SlewSweep{Base: cfg, Min: minSlew, Max: maxSlew, NumSteps: steps, Workers: workers}
	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLEW\tSETTLE\tMAX STEP\tTRAVEL\tFINAL ERR")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%.3e\t%.4f\t%.2e\n",
			formatSlew(r.SlewRate),
			formatSettle(r.SettleTime),
			r.MaxFocalStep,
			r.FocalTravel,
			r.FinalError,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nsettled: %.0f%%\n", automation.SettledFraction(results)*100)
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	mc := &automation.MonteCarloConfig{Base: cfg, NumTrials: trials, NumCommands: numCmds, Seed: seed}
	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry(), logger, os.Stdout)
	if err != nil {
		return err
	}

	passed, failed := automation.MonteCarloStats(results)
	fmt.Printf("\npassed: %d\nfailed: %d\n", passed, failed)
	for _, r := range results {
		if !r.WithinLimits || !r.RateLimited {
			fmt.Printf("  trial %d: within limits %v, rate limited %v, commands %s\n",
				r.TrialID, r.WithinLimits, r.RateLimited, formatCommands(r.Commands))
		}
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	g, err := optim.NewGridSearch([]string{tuneParam}, [][]float64{tuneValues})
	if err != nil {
		return err
	}

	var constraints []optim.Constraint
	if deadline > 0 {
		constraints = append(constraints, optim.SettlesWithin(deadline))
	}

	registry := experiment.NewRegistry()
	if _, err := registry.GetMetric(tuneMetric, cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, err := g.Search(ctx, cfg, registry, tuneMetric, logger, constraints...)
	if err != nil {
		return err
	}

	fmt.Printf("tried: %d\n", best.Tried)
	fmt.Printf("best %s: %g\n", tuneParam, best.Params[tuneParam])
	fmt.Printf("%s: %.6g\n", tuneMetric, best.Value)
	printMetrics(best.Metrics)
	return nil
}

func formatSlew(rate float64) string {
	if math.IsInf(rate, 1) {
		return "instant"
	}
	return fmt.Sprintf("%g m/s", rate)
}

func formatSettle(v float64) string {
	if v < 0 {
		return "never"
	}
	return fmt.Sprintf("%.2fs", v)
}

func formatCommands(cmds []config.Command) string {
	parts := make([]string, len(cmds))
	for i, c := range cmds {
		parts[i] = fmt.Sprintf("%g:%g", c.Time, c.Zoom)
	}
	return strings.Join(parts, " ")
}
