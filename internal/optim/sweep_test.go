package optim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/wall"
)

func TestCrewSweep(t *testing.T) {
	w := wall.Configuration{{27}, {27, 27}, {28, 29, 30}}
	cfg := sim.DefaultConfig()
	cfg.DayTimeout = 5 * time.Second

	points, err := NewCrewSweep(0, 0).Search(context.Background(), w, cfg)
	require.NoError(t, err)
	require.Len(t, points, 6)

	wantDays := []int{12, 6, 5, 3, 3, 3}
	for i, p := range points {
		assert.Equal(t, i+1, p.NumCrews)
		assert.Equal(t, wantDays[i], p.Days, "crews=%d", p.NumCrews)
		assert.Equal(t, 12, p.Totals.Feet)
	}

	fewest, ok := Fewest(points, 5)
	require.True(t, ok)
	assert.Equal(t, 3, fewest.NumCrews)

	_, ok = Fewest(points, 2)
	assert.False(t, ok)

	fastest, ok := Fastest(points)
	require.True(t, ok)
	assert.Equal(t, 4, fastest.NumCrews)
}

func TestCrewSweepRange(t *testing.T) {
	w := wall.Configuration{{0, 0}, {0}}

	tests := []struct {
		from, to         int
		wantFrom, wantTo int
	}{
		{0, 0, 1, 3},
		{2, 10, 2, 3},
		{-4, 2, 1, 2},
	}
	for _, tt := range tests {
		from, to := NewCrewSweep(tt.from, tt.to).Range(w)
		assert.Equal(t, tt.wantFrom, from)
		assert.Equal(t, tt.wantTo, to)
	}

	_, err := NewCrewSweep(3, 2).Search(context.Background(), w, sim.DefaultConfig())
	assert.Error(t, err)
}
