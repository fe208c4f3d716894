package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/san-kum/wallsim/internal/config"
	"github.com/san-kum/wallsim/internal/kv"
	"github.com/san-kum/wallsim/internal/logging"
	"github.com/san-kum/wallsim/internal/storage"
	"github.com/san-kum/wallsim/internal/worker"
)

var (
	dataDir      string
	settingsFile string
	logLevel     string

	numCrews   int
	preset     string
	configID   string
	strategy   string
	maxWorkers int
	dayTimeout time.Duration
	logBackend string
	showMetric bool

	profileIdx int
	dayIdx     int
	daily      bool

	sweepFrom int
	sweepTo   int
	maxDays   int

	maxConcurrent int
	replayEvery   time.Duration

	settings *config.Settings
	logger   *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "wallsim",
		Short:         "wall construction simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "wallsim.yaml", "engine settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [wall-file]",
		Short: "simulate a wall and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&numCrews, "crews", 0, "number of crews (0 = one per section)")
	runCmd.Flags().StringVar(&preset, "preset", "", "preset wall")
	runCmd.Flags().StringVar(&configID, "config-id", "", "stored configuration id")
	addEngineFlags(runCmd)
	runCmd.Flags().StringVar(&logBackend, "log-backend", config.DefaultLogBackend, "progress log backend (memory, badger)")
	runCmd.Flags().BoolVar(&showMetric, "metrics", false, "print metrics after the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	costCmd := &cobra.Command{
		Use:   "cost [run_id]",
		Short: "gold spent on the wall, a profile or a day",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showCost,
	}
	addQueryFlags(costCmd)

	usageCmd := &cobra.Command{
		Use:   "usage [run_id]",
		Short: "ice used on the wall, a profile or a day",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showUsage,
	}
	addQueryFlags(usageCmd)

	overviewCmd := &cobra.Command{
		Use:   "overview [run_id]",
		Short: "per-day feet, ice and cost",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showOverview,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot cumulative feet per profile",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&profileIdx, "profile", 0, "profile to plot (1-based, 0 = all)")
	plotCmd.Flags().BoolVar(&daily, "daily", false, "plot feet built per day instead")

	logCmd := &cobra.Command{
		Use:   "log [run_id]",
		Short: "print the progress log",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printLog,
	}
	logCmd.Flags().IntVar(&dayIdx, "day", 0, "only this day (0 = all)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the progress log to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage stored wall configurations",
	}
	configCmd.AddCommand(
		&cobra.Command{
			Use:   "add [wall-file]",
			Short: "validate and store a wall configuration",
			Args:  cobra.ExactArgs(1),
			RunE:  addConfig,
		},
		&cobra.Command{
			Use:   "show [config_id]",
			Short: "print a stored configuration, or list ids",
			Args:  cobra.MaximumNArgs(1),
			RunE:  showConfig,
		},
	)

	submitCmd := &cobra.Command{
		Use:   "submit [config_id]",
		Short: "dispatch simulations of a stored configuration and wait",
		Args:  cobra.ExactArgs(1),
		RunE:  submitRuns,
	}
	submitCmd.Flags().IntSliceP("crews", "c", []int{0}, "crew counts, one task each")
	submitCmd.Flags().IntVar(&maxConcurrent, "concurrency", 2, "tasks running at once")
	addEngineFlags(submitCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [wall-file]",
		Short: "days to completion for a range of crew counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepCrews,
	}
	sweepCmd.Flags().StringVar(&preset, "preset", "", "preset wall")
	sweepCmd.Flags().IntVar(&sweepFrom, "from", 1, "smallest crew count")
	sweepCmd.Flags().IntVar(&sweepTo, "to", 0, "largest crew count (0 = one per section)")
	sweepCmd.Flags().IntVar(&maxDays, "max-days", 0, "report the fewest crews finishing within this many days")
	addEngineFlags(sweepCmd)

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "replay a run day by day",
		Args:  cobra.MaximumNArgs(1),
		RunE:  viewRun,
	}
	viewCmd.Flags().DurationVar(&replayEvery, "interval", 400*time.Millisecond, "autoplay step interval")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset walls",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				w := config.GetPreset(name)
				fmt.Printf("  %-10s %d profiles, %d sections, %d ft remaining\n",
					name, len(w), w.SectionCount(), w.RemainingFeet())
			}
			return nil
		},
	}

	workerCmd := &cobra.Command{
		Use:    "worker",
		Short:  "build one unit read from stdin",
		Hidden: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return worker.Serve(os.Stdin, os.Stdout)
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, costCmd, usageCmd, overviewCmd, plotCmd, logCmd,
		exportJSONCmd, exportCSVCmd, configCmd, submitCmd, sweepCmd, viewCmd, presetsCmd, workerCmd)

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", "error", err)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&strategy, "strategy", config.DefaultStrategy, "execution strategy (goroutine, process)")
	cmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "per-day worker cap (0 = one per crew)")
	cmd.Flags().DurationVar(&dayTimeout, "day-timeout", config.DefaultDayTimeout, "grace period for one day")
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&profileIdx, "profile", 0, "profile (1-based, 0 = whole wall)")
	cmd.Flags().IntVar(&dayIdx, "day", 0, "day (1-based, 0 = all days)")
}

// loadSettings reads the settings file and applies the flags that were set
// explicitly on top of it.
func loadSettings(cmd *cobra.Command) error {
	s, err := config.LoadOrDefault(settingsFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		s.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		s.LogLevel = logLevel
	}
	if flags.Lookup("strategy") != nil {
		if flags.Changed("strategy") {
			s.Strategy = strategy
		}
		if flags.Changed("max-workers") {
			s.MaxWorkers = maxWorkers
		}
		if flags.Changed("day-timeout") {
			s.DayTimeout = dayTimeout
		}
	}
	if flags.Lookup("log-backend") != nil && flags.Changed("log-backend") {
		s.LogBackend = logBackend
	}
	if err := s.Validate(); err != nil {
		return err
	}

	settings = s
	logger = logging.New(logging.Config{Level: s.LogLevel, Format: s.LogFormat})
	return nil
}

func runStore() (*storage.Store, error) {
	st := storage.New(filepath.Join(settings.DataDir, "runs"))
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func openDB() (*badger.DB, error) {
	cfg := kv.DefaultConfig(filepath.Join(settings.DataDir, "kv"))
	cfg.Logger = logger
	return kv.Open(cfg)
}

// resolveRunID returns args[0], or the most recent run when no id is given.
func resolveRunID(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func loadRun(args []string) (*storage.Run, error) {
	st, err := runStore()
	if err != nil {
		return nil, err
	}
	runID, err := resolveRunID(st, args)
	if err != nil {
		return nil, err
	}
	return st.LoadRun(runID)
}
