package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/jointsync/internal/config"
	"github.com/san-kum/jointsync/internal/export"
	"github.com/san-kum/jointsync/internal/logging"
	"github.com/san-kum/jointsync/internal/metrics"
	"github.com/san-kum/jointsync/internal/scene"
	"github.com/san-kum/jointsync/internal/sim"
	"github.com/san-kum/jointsync/internal/storage"
	"github.com/san-kum/jointsync/internal/telemetry"
	"github.com/san-kum/jointsync/internal/viz"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	logLevel    string
	dataDir     string
	backend     string
	preset      string
	metricsAddr string

	dt             float64
	duration       float64
	driftThreshold float64
	exportPath     string
	saveRun        bool
	theme          string
	svgPath        string
	settleTime     float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "jointsync",
		Short:         "constraint synchronization for physics scenes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&dataDir, "data", "./runs", "run data directory")
	pf.StringVar(&backend, "backend", config.BackendBox2D, "physics backend (box2d, memory)")
	pf.StringVar(&preset, "preset", "", "world preset")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	syncCmd := &cobra.Command{
		Use:   "sync [scene]",
		Short: "create the joints of a scene and report the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runSync,
	}
	syncCmd.Flags().StringVar(&exportPath, "export", "", "write the report as JSON")
	syncCmd.Flags().BoolVar(&saveRun, "save", false, "store the result as a run")

	simulateCmd := &cobra.Command{
		Use:   "simulate [scene]",
		Short: "create joints, step the world and track joint separation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	simulateCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	simulateCmd.Flags().Float64Var(&driftThreshold, "drift-threshold", 0.05, "separation drift counted as a violation")

	compareCmd := &cobra.Command{
		Use:   "compare [scene] [preset] [preset]...",
		Short: "simulate a scene under several world presets concurrently",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCompare,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	compareCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	compareCmd.Flags().Float64Var(&driftThreshold, "drift-threshold", 0.05, "separation drift counted as a violation")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "step a scene with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scene]",
		Short: "write an svg of the scene's bodies and joints",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().StringVarP(&svgPath, "output", "o", "scene.svg", "svg output path")
	snapshotCmd.Flags().Float64Var(&settleTime, "settle", 0, "seconds to step before drawing")

	fingerprintCmd := &cobra.Command{
		Use:   "fingerprint [scene]",
		Short: "print the content fingerprint of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := scene.Load(args[0])
			if err != nil {
				return err
			}
			fp, err := desc.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Println(fp)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run with its joints and separation plot",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list world presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tGRAVITY\tDT\tDURATION\tITERATIONS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t(%.2f, %.2f)\t%.4fs\t%.1fs\t%d/%d\n",
					name, p.Gravity[0], p.Gravity[1], p.Dt, p.Duration,
					p.VelocityIterations, p.PositionIterations)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(syncCmd, simulateCmd, compareCmd, liveCmd, snapshotCmd, fingerprintCmd, listCmd, showCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig layers the config file, the preset and explicitly set flags, in
// that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if flags.Changed("dt") {
		cfg.World.Dt = dt
	}
	if flags.Changed("time") {
		cfg.World.Duration = duration
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	reg     *prometheus.Registry
	metrics *telemetry.Metrics
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &env{
		cfg:     cfg,
		logger:  logging.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr),
		reg:     reg,
		metrics: telemetry.New(reg),
	}, nil
}

// serveMetrics exposes the registry until ctx is done. It is a no-op
// without a metrics address.
func (e *env) serveMetrics(ctx context.Context) {
	if e.cfg.MetricsAddr == "" {
		return
	}
	srv := &http.Server{Addr: e.cfg.MetricsAddr, Handler: telemetry.Handler(e.reg)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server failed", "addr", e.cfg.MetricsAddr, "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	e.logger.Info("serving metrics", "addr", e.cfg.MetricsAddr)
}

func runSync(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := newSession(e.cfg, e.cfg.World, e.logger, e.metrics, args[0])
	if err != nil {
		return err
	}
	report, err := s.start(ctx)
	if err != nil {
		return err
	}

	fmt.Print(viz.RenderReport(report))
	fmt.Printf("\nfingerprint: %s\n", s.sync.Fingerprint())

	if exportPath != "" {
		if err := storage.ExportJSON(exportPath, args[0], s.sync.Fingerprint(), report); err != nil {
			return err
		}
		fmt.Printf("exported: %s\n", exportPath)
	}

	if saveRun {
		st := storage.New(e.cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runMetadata(e.cfg, s, nil), s.sync.Records(), nil)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	e.serveMetrics(ctx)

	s, err := newSession(e.cfg, e.cfg.World, e.logger, e.metrics, args[0])
	if err != nil {
		return err
	}
	if _, err := s.start(ctx); err != nil {
		return err
	}

	simulator, sep := newSimulator(s)
	simCfg := sim.Config{
		Dt:             e.cfg.World.Dt,
		Duration:       e.cfg.World.Duration,
		ValidateBodies: true,
		Watch:          s.jointedBodies(),
	}

	fmt.Printf("simulating %s (%d joints)...\n", args[0], s.sync.Count())
	start := time.Now()
	result, err := simulator.Run(ctx, simCfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, simErr := range result.Errors {
		e.logger.Warn("simulation stopped early", "err", simErr)
	}

	st := storage.New(e.cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(runMetadata(e.cfg, s, result), s.sync.Records(), sep.Samples())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	series := make(map[string][]float64)
	for _, rec := range s.sync.Records() {
		series[string(rec.Key)] = sep.Series(rec.Key)
	}
	fmt.Println()
	fmt.Println(viz.PlotSeparation(series, 80, 10))
	return nil
}

func newSimulator(s *session) (*sim.Simulator, *metrics.Separation) {
	sep := metrics.NewSeparation(s.sync.Records())
	simulator := sim.New(s.host)
	simulator.AddMetric(sep)
	simulator.AddMetric(metrics.NewStability(driftThreshold, sep))
	return simulator, sep
}

func runCompare(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	path, names := args[0], args[1:]
	sessions := make([]*session, len(names))
	sims := make([]*sim.Simulator, len(names))
	var watch []string

	for i, name := range names {
		wc := config.GetPreset(name)
		if wc == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		s, err := newSession(e.cfg, *wc, e.logger.With("preset", name), e.metrics, path)
		if err != nil {
			return err
		}
		if _, err := s.start(ctx); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		sessions[i] = s
		sims[i], _ = newSimulator(s)
		watch = s.jointedBodies()
	}

	results, err := sim.NewEnsemble(sims...).Run(ctx, sim.Config{
		Dt:             e.cfg.World.Dt,
		Duration:       e.cfg.World.Duration,
		ValidateBodies: true,
		Watch:          watch,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tJOINTS\tSTEPS\tMAX DRIFT\tSTABILITY")
	for i, name := range names {
		r := results[i]
		fmt.Fprintf(w, "%s\t%d\t%d\t%.6f\t%.3f\n",
			name,
			sessions[i].sync.Count(),
			r.StepsTaken,
			r.Metrics["max_separation_drift"],
			r.Metrics["stability"],
		)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	e.serveMetrics(ctx)

	// The terminal belongs to the live view; keep logs to warnings.
	logger := logging.NewLogger("warn", e.cfg.LogFormat, os.Stderr)
	s, err := newSession(e.cfg, e.cfg.World, logger, e.metrics, args[0])
	if err != nil {
		return err
	}
	if _, err := s.start(ctx); err != nil {
		return err
	}

	m := viz.NewLiveModel(s.host, s.sync, s.desc.ObjectIDs(), viz.LiveConfig{
		Dt:    e.cfg.World.Dt,
		Theme: theme,
		Rebuild: func() error {
			return s.reload(ctx)
		},
	})
	return viz.Run(m)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := newSession(e.cfg, e.cfg.World, e.logger, e.metrics, args[0])
	if err != nil {
		return err
	}
	if _, err := s.start(ctx); err != nil {
		return err
	}

	for t := 0.0; t < settleTime; t += e.cfg.World.Dt {
		s.host.Step(e.cfg.World.Dt)
	}

	snap := export.Snapshot{Bodies: make(map[string]mgl64.Vec3), Joints: s.sync.Records()}
	for _, id := range s.desc.ObjectIDs() {
		if p, ok := s.host.Position(id); ok {
			snap.Bodies[id] = p
		}
	}

	if err := os.WriteFile(svgPath, []byte(export.SceneToSVG(snap, 800, 600)), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bodies, %d joints)\n", svgPath, len(snap.Bodies), len(snap.Joints))
	return nil
}

func runMetadata(cfg *config.Config, s *session, result *sim.Result) storage.RunMetadata {
	meta := storage.RunMetadata{
		Scene:       s.path,
		Fingerprint: s.sync.Fingerprint(),
		Backend:     cfg.Backend,
		Dt:          cfg.World.Dt,
		Duration:    cfg.World.Duration,
		Warnings:    s.sync.Warnings(),
	}
	if s.report != nil {
		meta.Created = len(s.report.Created)
		meta.Skipped = len(s.report.Skipped)
		meta.Duplicates = s.report.Duplicates()
	}
	if result != nil {
		meta.Metrics = result.Metrics
	}
	return meta
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tBACKEND\tJOINTS\tSKIPPED\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.4f\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Backend,
			run.Created,
			run.Skipped,
			run.Metrics["max_separation_drift"],
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runID := args[0]
	st := storage.New(cfg.DataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	joints, err := st.LoadJoints(runID)
	if err != nil {
		return err
	}
	series, times, err := st.LoadSeparation(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("fingerprint: %s\n", meta.Fingerprint)
	fmt.Printf("backend: %s\n", meta.Backend)
	fmt.Printf("joints: %d created, %d skipped (%d duplicates)\n", meta.Created, meta.Skipped, meta.Duplicates)
	for _, warning := range meta.Warnings {
		fmt.Println(viz.WarningText.Render("  ! " + warning))
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tKIND\tBODY A\tBODY B")
	for _, j := range joints {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", j.Key, j.Kind, j.BodyA, j.BodyB)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(times) == 0 {
		return nil
	}
	fmt.Printf("\nsamples: %d (%.2fs to %.2fs)\n\n", len(times), times[0], times[len(times)-1])
	fmt.Println(viz.PlotSeparation(series, 80, 10))
	return nil
}
