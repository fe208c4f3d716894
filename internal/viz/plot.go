package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/optim"
)

const (
	plotHeight = 12
	plotWidth  = 80
)

// series pads single points so asciigraph always has a line to draw.
func series(data []float64) []float64 {
	if len(data) == 1 {
		return []float64{data[0], data[0]}
	}
	return data
}

// PlotCumulative charts the feet built on each listed profile, day by day,
// starting from day 0. Profiles are 0-based.
func PlotCumulative(agg *aggregate.Aggregator, profiles []int) (string, error) {
	if agg.ConstructionDays() == 0 {
		return "", fmt.Errorf("no construction days to plot")
	}
	if len(profiles) == 0 {
		for p := 0; p < agg.Profiles(); p++ {
			profiles = append(profiles, p)
		}
	}

	data := make([][]float64, 0, len(profiles))
	for _, p := range profiles {
		line := []float64{0}
		for day := 1; day <= agg.ConstructionDays(); day++ {
			feet, err := agg.CumulativeFeet(p, day)
			if err != nil {
				return "", err
			}
			line = append(line, float64(feet))
		}
		data = append(data, line)
	}

	caption := fmt.Sprintf("cumulative feet per profile (%d profiles, %d days)", len(profiles), agg.ConstructionDays())
	if len(profiles) == 1 {
		caption = fmt.Sprintf("cumulative feet, profile %d", profiles[0]+1)
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	), nil
}

// PlotDaily charts the feet built on the whole wall each day.
func PlotDaily(agg *aggregate.Aggregator) (string, error) {
	overview := agg.Overview()
	if len(overview) == 0 {
		return "", fmt.Errorf("no construction days to plot")
	}
	data := make([]float64, len(overview))
	for i, d := range overview {
		data[i] = float64(d.Feet)
	}
	return asciigraph.Plot(series(data),
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("feet built per day"),
	), nil
}

// PlotSweep charts construction days against crew count.
func PlotSweep(points []optim.Point) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("no sweep points to plot")
	}
	data := make([]float64, len(points))
	for i, p := range points {
		data[i] = float64(p.Days)
	}
	caption := fmt.Sprintf("days to completion, %d..%d crews", points[0].NumCrews, points[len(points)-1].NumCrews)
	return asciigraph.Plot(series(data),
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	), nil
}
