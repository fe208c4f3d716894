package progress

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteText renders entries as the human readable build log:
//
//	| DAY_1 | Crew-1 | 1-1 | New height: 28 ft
//	| DAY_3 | Crew-1 | 1-1 | section finished
func WriteText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "| DAY_%d | Crew-%d | %s | New height: %d ft\n", e.Day, e.Crew, e.Ref(), e.Height); err != nil {
			return err
		}
		if e.Finished() {
			if _, err := fmt.Fprintf(w, "| DAY_%d | Crew-%d | %s | section finished\n", e.Day, e.Crew, e.Ref()); err != nil {
				return err
			}
		}
	}
	return nil
}

var csvHeader = []string{"day", "profile", "section", "crew", "height"}

func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			strconv.Itoa(e.Day),
			strconv.Itoa(e.Profile),
			strconv.Itoa(e.Section),
			strconv.Itoa(e.Crew),
			strconv.Itoa(e.Height),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the output of WriteCSV. Any malformed row is an error;
// rows are never skipped.
func ReadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	out := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		var vals [5]int
		for j, field := range rec {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("row %d, %s: %w", i+2, csvHeader[j], err)
			}
			vals[j] = v
		}
		out = append(out, Entry{Day: vals[0], Profile: vals[1], Section: vals[2], Crew: vals[3], Height: vals[4]})
	}
	return out, nil
}
