package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/config"
	"github.com/san-kum/wallsim/internal/dispatch"
	"github.com/san-kum/wallsim/internal/optim"
	"github.com/san-kum/wallsim/internal/storage"
	"github.com/san-kum/wallsim/internal/viz"
	"github.com/san-kum/wallsim/internal/wall"
)

func addConfig(cmd *cobra.Command, args []string) error {
	w, err := config.LoadWall(args[0])
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := storage.NewBadgerConfigStore(db, settings.Limits).Put(w)
	if err != nil {
		return err
	}
	fmt.Printf("config id: %s\n", id)
	fmt.Printf("profiles: %d, sections: %d, remaining: %d ft\n", len(w), w.SectionCount(), w.RemainingFeet())
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	configs := storage.NewBadgerConfigStore(db, settings.Limits)

	if len(args) == 0 {
		ids, err := configs.List()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("no configurations stored")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	w, err := configs.Get(args[0])
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(w)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func submitRuns(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	counts, err := cmd.Flags().GetIntSlice("crews")
	if err != nil {
		return err
	}

	st, err := runStore()
	if err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cfg, err := engineConfig()
	if err != nil {
		return err
	}
	configs := storage.NewBadgerConfigStore(db, settings.Limits)
	d := dispatch.New(dispatch.SimulationRunner(configs, st, cfg), maxConcurrent, logger)
	defer d.Close()

	ids := make([]string, 0, len(counts))
	for _, n := range counts {
		id, err := d.Submit(ctx, args[0], n)
		if err != nil {
			return err
		}
		fmt.Printf("submitted %s (crews=%d)\n", id, n)
		ids = append(ids, id)
	}

	var failed int
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nTASK\tCREWS\tSTATUS\tRUN\tELAPSED\tERROR")
	for _, id := range ids {
		task, err := d.Wait(ctx, id)
		if err != nil {
			return err
		}
		if task.Status == dispatch.StatusFailed {
			failed++
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%v\t%s\n",
			task.ID, task.NumCrews, task.Status, task.RunID,
			task.Finished.Sub(task.Created).Round(time.Millisecond), task.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(ids))
	}
	return nil
}

func sweepWall(args []string) (wall.Configuration, error) {
	switch {
	case len(args) > 0 && preset != "":
		return nil, errors.New("give either [wall-file] or --preset")
	case len(args) > 0:
		return config.LoadWall(args[0])
	case preset != "":
		w := config.GetPreset(preset)
		if w == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return w, nil
	default:
		return config.GetPreset("example"), nil
	}
}

func sweepCrews(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := sweepWall(args)
	if err != nil {
		return err
	}
	if err := w.Validate(settings.Limits); err != nil {
		return err
	}
	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	sweep := optim.NewCrewSweep(sweepFrom, sweepTo)
	from, to := sweep.Range(w)
	fmt.Printf("sweeping %d..%d crews over %d sections\n\n", from, to, w.SectionCount())

	points, err := sweep.Search(ctx, w, cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREWS\tDAYS\tCOST")
	for _, p := range points {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", p.NumCrews, p.Days, aggregate.FormatGold(p.Totals.Cost))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(points) > 1 {
		graph, err := viz.PlotSweep(points)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(graph)
	}

	if best, ok := optim.Fastest(points); ok {
		fmt.Printf("\nfastest: %d crews, %d days\n", best.NumCrews, best.Days)
	}
	if maxDays > 0 {
		if p, ok := optim.Fewest(points, maxDays); ok {
			fmt.Printf("fewest crews within %d days: %d\n", maxDays, p.NumCrews)
		} else {
			fmt.Printf("no crew count finishes within %d days\n", maxDays)
		}
	}
	return nil
}
