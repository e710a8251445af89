package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/torus-coding/internal/api"
	"github.com/talgya/torus-coding/internal/engine"
	"github.com/talgya/torus-coding/internal/persistence"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation daemon with the HTTP API",
		Long: `serve runs the frame loop, exposes observables and control commands
over HTTP, and archives every run to SQLite when it stops.

The last configuration is restored from the archive on startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			autostart, _ := cmd.Flags().GetBool("start")
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Server.Port = port
			}

			// ── Database ──────────────────────────────────────────────
			if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			db, err := persistence.Open(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			slog.Info("database opened", "path", cfg.Storage.Path)

			// ── Configuration (restore last session if valid) ──────────
			simCfg := cfg.Simulation
			stored, ok, err := db.LoadConfig()
			switch {
			case err != nil:
				slog.Warn("stored config unreadable, using file config", "error", err)
			case ok && stored.Validate() == nil:
				simCfg = stored
				slog.Info("restored configuration", "slope", simCfg.EffectiveSlope(), "use_ratio", simCfg.UseRatio)
			}

			// ── Simulation ─────────────────────────────────────────────
			sim := engine.NewSimulation(simCfg)
			sim.OnStop = func(snap engine.Snapshot) {
				if _, err := db.Archive(snap); err != nil {
					slog.Error("archive failed", "run_id", snap.RunID, "error", err)
				}
			}

			// Lifecycle events go to the event log; crossings are already in
			// the archived sequence.
			subID, events := sim.Subscribe()
			recorderDone := make(chan struct{})
			go func() {
				defer close(recorderDone)
				for e := range events {
					if e.Category == engine.CategoryCrossing {
						continue
					}
					if err := db.SaveEvents([]engine.Event{e}); err != nil {
						slog.Error("event save failed", "error", err)
					}
				}
			}()

			eng := engine.NewEngine()
			eng.Interval = cfg.Engine.FrameInterval
			eng.OnFrame = func(uint64) { sim.Tick() }

			// ── HTTP API ───────────────────────────────────────────────
			if cfg.Server.AdminKey == "" {
				slog.Warn("no admin key set, control endpoints are disabled")
			}
			apiServer := &api.Server{
				Sim:      sim,
				DB:       db,
				Port:     cfg.Server.Port,
				AdminKey: cfg.Server.AdminKey,
			}
			apiServer.Start()

			// ── Start ──────────────────────────────────────────────────
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				slog.Info("received signal, shutting down", "signal", sig)
				eng.Stop()
			}()

			if autostart {
				sim.Start()
			}

			fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
			fmt.Println("Frame loop running... (Ctrl+C to stop)")

			eng.Run()

			// Final archive and config save on shutdown.
			sim.Stop()
			sim.Unsubscribe(subID)
			<-recorderDone
			if err := db.SaveConfig(sim.Config()); err != nil {
				slog.Error("final config save failed", "error", err)
			}

			fmt.Println("Simulation stopped. Configuration saved.")
			return nil
		},
	}

	cmd.Flags().Bool("start", false, "Start the run immediately")
	cmd.Flags().Int("port", 0, "HTTP port (overrides config)")
	return cmd
}
