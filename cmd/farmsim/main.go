// Command farmsim runs the dairy farm simulation as a service, or
// headless for a fixed number of days.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/talgya/dairy-sim/internal/api"
	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/config"
	"github.com/talgya/dairy-sim/internal/engine"
	"github.com/talgya/dairy-sim/internal/metrics"
	"github.com/talgya/dairy-sim/internal/persistence"
	"github.com/talgya/dairy-sim/internal/scenario"
	"github.com/talgya/dairy-sim/internal/scheduler"
)

var (
	envFile  string
	scenID   string
	seed     int64
	fresh    bool
	days     int
	slotName string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "farmsim",
		Short: "Dairy farm simulation",
		Long: `Simulates a pasture-based dairy farm hour by hour: weather, grass,
herd, market prices and running costs, driven by player commands over HTTP.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", "", "Path to .env file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the farm with the HTTP API, autosave and metrics",
		RunE:  runServer,
	}
	runCmd.Flags().StringVarP(&scenID, "scenario", "s", "", "Scenario for a new farm (overrides FARMSIM_SCENARIO)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for a new farm (overrides FARMSIM_SEED)")
	runCmd.Flags().BoolVar(&fresh, "fresh", false, "Start a new farm even if an autosave exists")

	simCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a new farm headless for a number of days and print the results",
		RunE:  runHeadless,
	}
	simCmd.Flags().StringVarP(&scenID, "scenario", "s", scenario.Default, "Scenario id")
	simCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	simCmd.Flags().IntVarP(&days, "days", "d", 30, "Days to simulate")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the starting scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			printScenarios(os.Stdout, scenario.List())
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarise the latest save in the database",
		RunE:  runInspect,
	}
	inspectCmd.Flags().StringVar(&slotName, "slot", persistence.DefaultSlot, "Save slot")

	rootCmd.AddCommand(runCmd, simCmd, scenariosCmd, inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(cfg.Log.Handler(os.Stdout)))
	return cfg, nil
}

func openDB(path string) (*persistence.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "path", path)
	return db, nil
}

// ── run ────────────────────────────────────────────────────────────────

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if scenID != "" {
		cfg.Sim.Scenario = scenID
	}
	if cmd.Flags().Changed("seed") {
		cfg.Sim.Seed = seed
	}

	// ── Database ──────────────────────────────────────────────────────
	db, err := openDB(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// ── Simulation ────────────────────────────────────────────────────
	recorder := metrics.New()
	sim := engine.NewSimulation(engine.Options{
		AutoChores: cfg.Sim.AutoChores,
		Incidents:  cfg.Sim.Incidents,
		OnReject:   recorder.Reject,
	})

	resumed, err := resume(sim, db)
	if err != nil {
		return err
	}
	if !resumed {
		p, err := scenario.Get(cfg.Sim.Scenario)
		if err != nil {
			return err
		}
		if err := sim.Initialize(p, cfg.Sim.Seed); err != nil {
			return err
		}
		if _, err := sim.SetTimeScale(cfg.Sim.Speed); err != nil {
			return err
		}
		if _, err := db.Checkpoint(sim, persistence.DefaultSlot); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Events go to the database in batches.
	subID, events := sim.Subscribe()
	flushed := make(chan struct{})
	go func() {
		persistEvents(db, events)
		close(flushed)
	}()

	eng := engine.NewEngine(sim)
	eng.Interval = cfg.Sim.TickInterval
	eng.OnDay = func(d engine.DailyStats) {
		recorder.Day(d)
		if err := db.SaveDailyStats([]engine.DailyStats{d}); err != nil {
			slog.Error("daily stats save failed", "error", err)
		}
	}

	// ── Autosave ──────────────────────────────────────────────────────
	sched := scheduler.New(sim, db, cfg.Storage.KeepSaves)
	if err := sched.Start(cfg.Storage.AutosaveCron); err != nil {
		return err
	}
	defer sched.Stop()

	// ── Metrics ───────────────────────────────────────────────────────
	go func() {
		t := time.NewTicker(2 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				recorder.Observe(sim.State())
			}
		}
	}()

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.Server.AdminKey == "" {
		slog.Warn("FARMSIM_ADMIN_KEY not set: admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:         sim,
		DB:          db,
		Metrics:     recorder,
		Port:        cfg.Server.Port,
		AdminKey:    cfg.Server.AdminKey,
		RelayKey:    cfg.Server.RelayKey,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	apiServer.Start(ctx)

	// ── Start ─────────────────────────────────────────────────────────
	st := sim.State()
	title := color.New(color.FgGreen, color.Bold)
	title.Printf("\n%s is open: %d cows on %.0f ha (%s).\n", st.Farm.Name, st.Herd.Total, st.Farm.SizeHa, st.Scenario)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	if resumed {
		fmt.Printf("Resuming at %s\n", engine.GameTime(st.Calendar.Time))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	if err := eng.Run(ctx); err != nil {
		return err
	}

	// Final save on shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	sim.Unsubscribe(subID)
	<-flushed

	slog.Info("final save...")
	if _, err := db.Checkpoint(sim, persistence.DefaultSlot); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Simulation stopped. Farm saved.")
	return nil
}

// resume loads the latest autosave unless a fresh farm was asked for.
func resume(sim *engine.Simulation, db *persistence.DB) (bool, error) {
	if fresh {
		return false, nil
	}
	rec, err := db.LoadLatest(persistence.DefaultSlot)
	if errors.Is(err, persistence.ErrNoSave) {
		slog.Info("no saved farm found, starting a new one")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load autosave: %w", err)
	}
	if err := sim.Load(rec); err != nil {
		return false, fmt.Errorf("restore autosave: %w", err)
	}
	return true, nil
}

// persistEvents writes events in batches until ch is closed.
func persistEvents(db *persistence.DB, ch <-chan engine.Event) {
	const batchSize = 100
	flush := time.NewTicker(5 * time.Second)
	defer flush.Stop()

	var batch []engine.Event
	write := func() {
		if err := db.SaveEvents(batch); err != nil {
			slog.Error("event save failed", "error", err, "events", len(batch))
		}
		batch = batch[:0]
	}
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				write()
				return
			}
			batch = append(batch, e)
			if len(batch) >= batchSize {
				write()
			}
		case <-flush.C:
			write()
		}
	}
}

// ── simulate ───────────────────────────────────────────────────────────

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := scenario.Get(scenID)
	if err != nil {
		return err
	}
	sim := engine.NewSimulation(engine.Options{AutoChores: true, Incidents: cfg.Sim.Incidents})
	if err := sim.Initialize(p, seed); err != nil {
		return err
	}

	color.New(color.FgCyan, color.Bold).Printf("\n%s: %d days from %s\n\n",
		p.FarmName, days, engine.GameTime(sim.Now()))
	res := sim.AdvanceHours(days * calendar.HoursPerDay)

	printDays(os.Stdout, res.Days)
	printFarm(os.Stdout, sim.State())
	return nil
}

// ── inspect ────────────────────────────────────────────────────────────

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := db.LoadLatest(slotName)
	if err != nil {
		return err
	}
	color.New(color.FgCyan, color.Bold).Printf("\nSave %s (%s), saved %s\n\n",
		rec.ID, rec.State.Scenario, rec.SavedAt.Local().Format(time.DateTime))
	printFarm(os.Stdout, rec.State)

	history, err := db.DailyStats(14)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		fmt.Println("\nRecent days:")
		printDays(os.Stdout, history)
	}
	return nil
}
