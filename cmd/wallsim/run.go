package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/config"
	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/storage"
	"github.com/san-kum/wallsim/internal/telemetry"
	"github.com/san-kum/wallsim/internal/wall"
)

var errNoWall = errors.New("one of [wall-file], --preset or --config-id is required")

// engineConfig builds the simulator config from the loaded settings.
func engineConfig() (sim.Config, error) {
	exec, err := sim.NewRegistry().GetExecutor(settings.Strategy, settings.MaxWorkers)
	if err != nil {
		return sim.Config{}, err
	}
	cfg := sim.DefaultConfig()
	cfg.Executor = exec
	cfg.MaxWorkers = settings.MaxWorkers
	cfg.DayTimeout = settings.DayTimeout
	cfg.Limits = settings.Limits
	cfg.Logger = logger
	return cfg, nil
}

// selectWall picks the wall from a file argument or --preset. db is only
// consulted for --config-id.
func selectWall(args []string, db *badger.DB) (wall.Configuration, error) {
	sources := 0
	if len(args) > 0 {
		sources++
	}
	if preset != "" {
		sources++
	}
	if configID != "" {
		sources++
	}
	if sources == 0 {
		return nil, errNoWall
	}
	if sources > 1 {
		return nil, fmt.Errorf("conflicting wall sources: %w", errNoWall)
	}

	switch {
	case len(args) > 0:
		return config.LoadWall(args[0])
	case preset != "":
		w := config.GetPreset(preset)
		if w == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return w, nil
	default:
		return storage.NewBadgerConfigStore(db, settings.Limits).Get(configID)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := runStore()
	if err != nil {
		return err
	}

	var db *badger.DB
	if configID != "" || settings.LogBackend == "badger" {
		db, err = openDB()
		if err != nil {
			return err
		}
		defer db.Close()
	}

	w, err := selectWall(args, db)
	if err != nil {
		return err
	}

	cfg, err := engineConfig()
	if err != nil {
		return err
	}
	cfg.NumCrews = numCrews

	runID := storage.NewRunID()
	if settings.LogBackend == "badger" {
		blog, err := progress.OpenBadgerLog(db, runID)
		if err != nil {
			return err
		}
		cfg.Log = blog
	}

	logger.Info("running simulation", "run", runID, "num_crews", numCrews, "strategy", settings.Strategy, "log_backend", settings.LogBackend)
	start := time.Now()

	res, err := sim.Simulate(ctx, w, cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if _, err := st.Save(runID, settings.LogBackend, res); err != nil {
		return err
	}

	totals, err := aggregate.FromSectionHeights(res.Wall, res.Final)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("config id: %s\n", res.Wall.Hash())
	fmt.Printf("mode: %s (%d crews, %s)\n", res.Mode, res.Crews, res.Strategy)
	fmt.Printf("days: %d\n", res.Days)
	fmt.Printf("feet: %d\n", totals.Feet)
	fmt.Printf("ice: %d cubic yards\n", totals.Ice)
	fmt.Printf("cost: %s gold dragons\n", aggregate.FormatGold(totals.Cost))

	if showMetric {
		fmt.Println("\nmetrics:")
		return telemetry.WriteText(os.Stdout)
	}
	return nil
}
