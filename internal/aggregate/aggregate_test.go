package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/wall"
)

var exampleWall = wall.Configuration{{27}, {27, 27}, {28, 29, 30}}

func run(t *testing.T, w wall.Configuration, numCrews int) (*sim.Result, *Aggregator) {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.NumCrews = numCrews
	cfg.DayTimeout = 5 * time.Second
	res, err := sim.Simulate(context.Background(), w, cfg)
	require.NoError(t, err)
	agg, err := New(w, res.Log)
	require.NoError(t, err)
	return res, agg
}

func TestWallTotals(t *testing.T) {
	_, agg := run(t, exampleWall, 0)

	assert.Equal(t, Totals{Feet: 12, Ice: 2340, Cost: 4446000}, agg.Wall())
	assert.EqualValues(t, 4446000, agg.WallCost())
	assert.Equal(t, 3, agg.ConstructionDays())
}

func TestProfileQueries(t *testing.T) {
	_, agg := run(t, exampleWall, 0)

	tests := []struct {
		profile int
		day     int
		ice     int64
	}{
		{0, 1, 195},
		{0, 3, 195},
		{1, 1, 390},
		{2, 1, 390},
		{2, 2, 195},
		{2, 3, 0},
	}
	for _, tt := range tests {
		got, err := agg.ProfileDayIce(tt.profile, tt.day)
		require.NoError(t, err)
		assert.Equal(t, tt.ice, got, "profile %d day %d", tt.profile+1, tt.day)
	}

	cost, err := agg.ProfileCost(1)
	require.NoError(t, err)
	assert.EqualValues(t, 6*195*1900, cost)

	dayCost, err := agg.ProfileDayCost(2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 195*1900, dayCost)
}

func TestUnknownProfileAndDay(t *testing.T) {
	_, agg := run(t, exampleWall, 0)

	_, err := agg.Profile(3)
	assert.ErrorIs(t, err, ErrUnknownProfile)
	_, err = agg.ProfileDayIce(-1, 1)
	assert.ErrorIs(t, err, ErrUnknownProfile)
	_, err = agg.ProfileDayIce(0, 4)
	assert.ErrorIs(t, err, ErrUnknownDay)
	_, err = agg.DayCost(0)
	assert.ErrorIs(t, err, ErrUnknownDay)
}

func TestDayTotals(t *testing.T) {
	_, agg := run(t, exampleWall, 2)

	assert.Equal(t, 6, agg.ConstructionDays())
	for day := 1; day <= 6; day++ {
		d, err := agg.Day(day)
		require.NoError(t, err)
		assert.Equal(t, 2, d.Feet, "day %d", day)
	}

	overview := agg.Overview()
	require.Len(t, overview, 6)
	assert.Equal(t, []int{1, 1, 0}, overview[0].Profiles)
	assert.Equal(t, []int{0, 1, 1}, overview[3].Profiles)
	assert.EqualValues(t, 2*195*1900, overview[5].Cost)
}

func TestCumulative(t *testing.T) {
	_, agg := run(t, exampleWall, 2)

	feet, err := agg.CumulativeFeet(1, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, feet)

	h, err := agg.ProfileHeight(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 87, h)
	h, err = agg.ProfileHeight(2, 6)
	require.NoError(t, err)
	assert.Equal(t, 90, h)
}

func TestTotalsIndependentOfCrews(t *testing.T) {
	w := wall.Configuration{{21, 25, 28}, {17}, {17, 22, 17, 19, 17}}
	_, base := run(t, w, 0)

	for n := 1; n <= w.SectionCount(); n++ {
		res, agg := run(t, w, n)
		assert.Equal(t, base.Wall(), agg.Wall(), "crews=%d", n)

		fromHeights, err := FromSectionHeights(w, res.Final)
		require.NoError(t, err)
		assert.Equal(t, agg.Wall(), fromHeights)

		for p := range w {
			got, err := agg.Profile(p)
			require.NoError(t, err)
			assert.Equal(t, w[p].RemainingFeet(), got.Feet)
		}
	}
}

func TestRepeatedQueriesAreStable(t *testing.T) {
	_, agg := run(t, exampleWall, 2)

	first := agg.Overview()
	first[0].Profiles[0] = 99
	assert.NotEqual(t, first, agg.Overview())
	assert.Equal(t, agg.Overview(), agg.Overview())
	assert.Equal(t, agg.Wall(), agg.Wall())
}

func TestInconsistentLog(t *testing.T) {
	b := progress.NewBatch(1)
	require.NoError(t, b.Append(progress.Entry{Day: 1, Profile: 0, Section: 0, Crew: 1, Height: 29}))
	log := progress.NewMemoryLog()
	require.NoError(t, log.Commit(b))

	_, err := New(exampleWall, log)
	assert.ErrorIs(t, err, ErrInconsistentLog)
}

func TestEmptyLog(t *testing.T) {
	agg, err := New(wall.Configuration{{30}}, progress.NewMemoryLog())
	require.NoError(t, err)
	assert.Equal(t, 0, agg.ConstructionDays())
	assert.Equal(t, Totals{}, agg.Wall())
	assert.Empty(t, agg.Overview())
}

func TestFormatGold(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		4446000:  "4,446,000",
		-370500:  "-370,500",
		12345678: "12,345,678",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatGold(in))
	}
}
