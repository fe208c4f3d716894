// Package aggregate turns a finished progress log into construction
// figures: feet built per profile and day, ice used and its cost.
package aggregate

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/wall"
)

var (
	ErrUnknownProfile  = errors.New("aggregate: unknown profile")
	ErrUnknownDay      = errors.New("aggregate: unknown day")
	ErrInconsistentLog = errors.New("aggregate: log does not match configuration")
)

func Ice(feet int) int64 { return int64(feet) * wall.IcePerFoot }

func Cost(ice int64) int64 { return ice * wall.IceCostPerCubicYard }

// Totals is the feet, ice and cost of some part of the wall.
type Totals struct {
	Feet int   `json:"feet"`
	Ice  int64 `json:"ice"`
	Cost int64 `json:"cost"`
}

func totalsFor(feet int) Totals {
	ice := Ice(feet)
	return Totals{Feet: feet, Ice: ice, Cost: Cost(ice)}
}

// DayOverview summarises one construction day.
type DayOverview struct {
	Day      int   `json:"day"`
	Totals          // whole wall
	Profiles []int `json:"profiles"`
}

// Aggregator answers read-only queries over a finished run. Profiles are
// 0-based, days start at 1.
type Aggregator struct {
	wall       wall.Configuration
	delta      [][]int
	cumulative [][]int
	profile    []int
	total      int
}

// New replays log against cfg. Every entry must raise its section by
// exactly one foot from the previous day.
func New(cfg wall.Configuration, log progress.Log) (*Aggregator, error) {
	a := &Aggregator{
		wall:    cfg.Clone(),
		profile: make([]int, len(cfg)),
	}

	state := wall.NewState(cfg)
	running := make([]int, len(cfg))
	for day := 1; day <= log.Days(); day++ {
		entries, err := log.Day(day)
		if err != nil {
			return nil, err
		}
		delta := make([]int, len(cfg))
		for _, e := range entries {
			if err := state.Apply(e.Ref(), e.Height); err != nil {
				return nil, fmt.Errorf("%w: day %d: %w", ErrInconsistentLog, day, err)
			}
			delta[e.Profile]++
		}
		for p, d := range delta {
			running[p] += d
			a.profile[p] += d
			a.total += d
		}
		a.delta = append(a.delta, delta)
		a.cumulative = append(a.cumulative, append([]int(nil), running...))
	}
	return a, nil
}

func (a *Aggregator) checkProfile(p int) error {
	if p < 0 || p >= len(a.wall) {
		return fmt.Errorf("%w: %d", ErrUnknownProfile, p+1)
	}
	return nil
}

func (a *Aggregator) checkDay(day int) error {
	if day < 1 || day > len(a.delta) {
		return fmt.Errorf("%w: %d", ErrUnknownDay, day)
	}
	return nil
}

func (a *Aggregator) Profiles() int { return len(a.wall) }

// ConstructionDays is the number of days until the last section finished.
func (a *Aggregator) ConstructionDays() int { return len(a.delta) }

func (a *Aggregator) Wall() Totals { return totalsFor(a.total) }

func (a *Aggregator) WallCost() int64 { return a.Wall().Cost }

func (a *Aggregator) Profile(p int) (Totals, error) {
	if err := a.checkProfile(p); err != nil {
		return Totals{}, err
	}
	return totalsFor(a.profile[p]), nil
}

func (a *Aggregator) ProfileCost(p int) (int64, error) {
	t, err := a.Profile(p)
	return t.Cost, err
}

// ProfileDay returns the work done on profile p during day. A day on which
// the profile saw no work yields zero totals.
func (a *Aggregator) ProfileDay(p, day int) (Totals, error) {
	if err := a.checkProfile(p); err != nil {
		return Totals{}, err
	}
	if err := a.checkDay(day); err != nil {
		return Totals{}, err
	}
	return totalsFor(a.delta[day-1][p]), nil
}

func (a *Aggregator) ProfileDayIce(p, day int) (int64, error) {
	t, err := a.ProfileDay(p, day)
	return t.Ice, err
}

func (a *Aggregator) ProfileDayCost(p, day int) (int64, error) {
	t, err := a.ProfileDay(p, day)
	return t.Cost, err
}

// Day returns the work done on the whole wall during day.
func (a *Aggregator) Day(day int) (Totals, error) {
	if err := a.checkDay(day); err != nil {
		return Totals{}, err
	}
	feet := 0
	for _, d := range a.delta[day-1] {
		feet += d
	}
	return totalsFor(feet), nil
}

func (a *Aggregator) DayCost(day int) (int64, error) {
	t, err := a.Day(day)
	return t.Cost, err
}

// CumulativeFeet returns the feet built on profile p up to and including
// day.
func (a *Aggregator) CumulativeFeet(p, day int) (int, error) {
	if err := a.checkProfile(p); err != nil {
		return 0, err
	}
	if err := a.checkDay(day); err != nil {
		return 0, err
	}
	return a.cumulative[day-1][p], nil
}

// ProfileHeight returns the summed section heights of profile p at the end
// of day. Day 0 is the starting wall.
func (a *Aggregator) ProfileHeight(p, day int) (int, error) {
	if err := a.checkProfile(p); err != nil {
		return 0, err
	}
	start := 0
	for _, h := range a.wall[p] {
		start += h
	}
	if day == 0 {
		return start, nil
	}
	built, err := a.CumulativeFeet(p, day)
	return start + built, err
}

func (a *Aggregator) Overview() []DayOverview {
	out := make([]DayOverview, len(a.delta))
	for i, delta := range a.delta {
		feet := 0
		for _, d := range delta {
			feet += d
		}
		out[i] = DayOverview{
			Day:      i + 1,
			Totals:   totalsFor(feet),
			Profiles: append([]int(nil), delta...),
		}
	}
	return out
}

// FromSectionHeights computes the wall totals from the starting and final
// heights alone.
func FromSectionHeights(start, final wall.Configuration) (Totals, error) {
	if len(start) != len(final) {
		return Totals{}, fmt.Errorf("%w: %d profiles, final has %d", ErrInconsistentLog, len(start), len(final))
	}
	feet := 0
	for p := range start {
		if len(start[p]) != len(final[p]) {
			return Totals{}, fmt.Errorf("%w: profile %d shape differs", ErrInconsistentLog, p+1)
		}
		for s := range start[p] {
			d := final[p][s] - start[p][s]
			if d < 0 {
				return Totals{}, fmt.Errorf("%w: section %d-%d lost height", ErrInconsistentLog, p+1, s+1)
			}
			feet += d
		}
	}
	return totalsFor(feet), nil
}

// FormatGold renders a cost with thousands separators.
func FormatGold(cost int64) string {
	s := strconv.FormatInt(cost, 10)
	neg := cost < 0
	if neg {
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
