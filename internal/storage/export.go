package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/wall"
)

type ExportData struct {
	Run      RunMetadata             `json:"run"`
	Wall     wall.Configuration      `json:"wall"`
	Totals   aggregate.Totals        `json:"totals"`
	Overview []aggregate.DayOverview `json:"overview"`
	Entries  []progress.Entry        `json:"entries"`
}

// ExportJSON writes a run with its per-day overview as indented JSON.
func ExportJSON(w io.Writer, run *Run) error {
	agg, err := aggregate.New(run.Wall, run.Log)
	if err != nil {
		return err
	}
	entries, err := run.Log.Entries()
	if err != nil {
		return err
	}

	data := ExportData{
		Run:      run.Meta,
		Wall:     run.Wall,
		Totals:   agg.Wall(),
		Overview: agg.Overview(),
		Entries:  entries,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes the run's progress log in the stored CSV layout.
func ExportCSV(w io.Writer, run *Run) error {
	entries, err := run.Log.Entries()
	if err != nil {
		return err
	}
	return progress.WriteCSV(w, entries)
}
