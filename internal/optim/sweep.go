package optim

import (
	"context"
	"fmt"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/wall"
)

// Point is the outcome of building a wall with one crew count.
type Point struct {
	NumCrews int
	Days     int
	Totals   aggregate.Totals
}

// CrewSweep simulates a wall once per crew count in [From, To].
type CrewSweep struct {
	From, To int
}

func NewCrewSweep(from, to int) *CrewSweep {
	return &CrewSweep{From: from, To: to}
}

// Range returns the sweep bounds clamped to [1, sections].
func (c *CrewSweep) Range(w wall.Configuration) (int, int) {
	from, to := max(c.From, 1), c.To
	if to <= 0 || to > w.SectionCount() {
		to = w.SectionCount()
	}
	return from, to
}

func (c *CrewSweep) Search(ctx context.Context, w wall.Configuration, cfg sim.Config) ([]Point, error) {
	from, to := c.Range(w)
	if from > to {
		return nil, fmt.Errorf("empty crew range [%d, %d]", from, to)
	}

	counts := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		counts = append(counts, n)
	}

	results, err := sim.NewEnsemble(cfg, counts).Run(ctx, w)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(results))
	for i, res := range results {
		totals, err := aggregate.FromSectionHeights(res.Wall, res.Final)
		if err != nil {
			return nil, err
		}
		points[i] = Point{NumCrews: counts[i], Days: res.Days, Totals: totals}
	}
	return points, nil
}

// Fewest returns the smallest crew count that finishes within maxDays.
func Fewest(points []Point, maxDays int) (Point, bool) {
	var best Point
	found := false
	for _, p := range points {
		if p.Days > maxDays {
			continue
		}
		if !found || p.NumCrews < best.NumCrews {
			best = p
			found = true
		}
	}
	return best, found
}

// Fastest returns the point with the fewest days, preferring fewer crews
// on ties.
func Fastest(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.Days < best.Days || (p.Days == best.Days && p.NumCrews < best.NumCrews) {
			best = p
		}
	}
	return best, true
}
