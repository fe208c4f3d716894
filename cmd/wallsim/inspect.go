package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/query"
	"github.com/san-kum/wallsim/internal/storage"
	"github.com/san-kum/wallsim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := runStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tCONFIG\tCREWS\tMODE\tSTRATEGY\tLOG\tDAYS\tFEET\tCOST")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			shortID(run.ConfigID),
			run.Crews,
			run.Mode,
			run.Strategy,
			run.LogBackend,
			run.Days,
			run.Feet,
			aggregate.FormatGold(run.Cost),
		)
	}

	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// queryRun answers the --profile/--day selection for a stored run through
// the cached query service.
func queryRun(ctx context.Context, run *storage.Run) (aggregate.Totals, string, error) {
	if profileIdx < 0 || dayIdx < 0 {
		return aggregate.Totals{}, "", fmt.Errorf("--profile and --day must not be negative")
	}

	cache, err := query.NewRistrettoCache(settings.Cache.MaxCost)
	if err != nil {
		return aggregate.Totals{}, "", err
	}
	defer cache.Close()

	svc, err := query.NewService(&query.RunSource{Run: run}, cache, query.DefaultMaxAggregators, logger)
	if err != nil {
		return aggregate.Totals{}, "", err
	}
	defer svc.Close()

	id, crews := run.Meta.ConfigID, run.Meta.NumCrews
	p := profileIdx - 1

	switch {
	case profileIdx > 0 && dayIdx > 0:
		t, err := svc.ProfileDay(ctx, id, crews, p, dayIdx)
		return t, fmt.Sprintf("profile %d, day %d", profileIdx, dayIdx), err
	case profileIdx > 0:
		t, err := svc.Profile(ctx, id, crews, p)
		return t, fmt.Sprintf("profile %d", profileIdx), err
	case dayIdx > 0:
		t, err := svc.Day(ctx, id, crews, dayIdx)
		return t, fmt.Sprintf("day %d", dayIdx), err
	default:
		t, err := svc.Wall(ctx, id, crews)
		return t, "wall", err
	}
}

func showCost(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args)
	if err != nil {
		return err
	}
	t, label, err := queryRun(cmd.Context(), run)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s gold dragons\n", label, aggregate.FormatGold(t.Cost))
	return nil
}

func showUsage(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args)
	if err != nil {
		return err
	}
	t, label, err := queryRun(cmd.Context(), run)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d cubic yards (%d ft)\n", label, t.Ice, t.Feet)
	return nil
}

func showOverview(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args)
	if err != nil {
		return err
	}
	agg, err := aggregate.New(run.Wall, run.Log)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", run.Meta.ID)
	fmt.Printf("crews: %d (%s)\n\n", run.Meta.Crews, run.Meta.Mode)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tFEET\tICE\tCOST\tPER PROFILE")
	for _, d := range agg.Overview() {
		per := make([]string, len(d.Profiles))
		for i, f := range d.Profiles {
			per[i] = strconv.Itoa(f)
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", d.Day, d.Feet, d.Ice, aggregate.FormatGold(d.Cost), strings.Join(per, " "))
	}
	total := agg.Wall()
	fmt.Fprintf(w, "TOTAL\t%d\t%d\t%s\t\n", total.Feet, total.Ice, aggregate.FormatGold(total.Cost))
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args)
	if err != nil {
		return err
	}
	agg, err := aggregate.New(run.Wall, run.Log)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", run.Meta.ID)
	fmt.Printf("days: %d\n\n", agg.ConstructionDays())

	var graph string
	switch {
	case daily:
		graph, err = viz.PlotDaily(agg)
	case profileIdx > 0:
		graph, err = viz.PlotCumulative(agg, []int{profileIdx - 1})
	default:
		profiles := make([]int, agg.Profiles())
		for i := range profiles {
			profiles[i] = i
		}
		graph, err = viz.PlotCumulative(agg, profiles)
	}
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func printLog(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args)
	if err != nil {
		return err
	}

	var entries []progress.Entry
	if dayIdx > 0 {
		entries, err = run.Log.Day(dayIdx)
	} else {
		entries, err = run.Log.Entries()
	}
	if err != nil {
		return err
	}
	return progress.WriteText(os.Stdout, entries)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, run)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args)
	if err != nil {
		return err
	}
	return storage.ExportCSV(os.Stdout, run)
}

func viewRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args)
	if err != nil {
		return err
	}
	model, err := viz.NewReplay(run.Wall, run.Log, replayEvery)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
