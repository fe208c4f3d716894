package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wallsim/internal/kv"
	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/storage"
	"github.com/san-kum/wallsim/internal/wall"
)

func TestSubmitAndWait(t *testing.T) {
	d := New(func(ctx context.Context, configID string, numCrews int) (string, error) {
		return "run-" + configID, nil
	}, 2, nil)
	defer d.Close()

	id, err := d.Submit(context.Background(), "abc", 3)
	require.NoError(t, err)

	task, err := d.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, task.Status)
	assert.Equal(t, "run-abc", task.RunID)
	assert.Equal(t, 3, task.NumCrews)
	assert.False(t, task.Finished.Before(task.Started))
}

func TestFailedTask(t *testing.T) {
	d := New(func(context.Context, string, int) (string, error) {
		return "", errors.New("no such wall")
	}, 1, nil)
	defer d.Close()

	id, err := d.Submit(context.Background(), "abc", 0)
	require.NoError(t, err)

	task, err := d.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "no such wall", task.Error)
	assert.True(t, task.Status.Terminal())
}

func TestStatusTransitions(t *testing.T) {
	release := make(chan struct{})
	d := New(func(context.Context, string, int) (string, error) {
		<-release
		return "run", nil
	}, 1, nil)
	defer d.Close()

	first, err := d.Submit(context.Background(), "a", 1)
	require.NoError(t, err)
	second, err := d.Submit(context.Background(), "b", 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		a, _ := d.Status(first)
		b, _ := d.Status(second)
		return (a.Status == StatusRunning) != (b.Status == StatusRunning)
	}, time.Second, 5*time.Millisecond)

	statuses := map[Status]int{}
	for _, task := range d.List() {
		statuses[task.Status]++
	}
	assert.Equal(t, map[Status]int{StatusRunning: 1, StatusPending: 1}, statuses)

	close(release)
	for _, id := range []string{first, second} {
		task, err := d.Wait(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StatusSucceeded, task.Status)
	}
}

func TestConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	d := New(func(context.Context, string, int) (string, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return "run", nil
	}, 2, nil)

	for i := 0; i < 8; i++ {
		_, err := d.Submit(context.Background(), "cfg", i)
		require.NoError(t, err)
	}
	d.Close()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Len(t, d.List(), 8)
}

func TestUnknownTask(t *testing.T) {
	d := New(nil, 1, nil)
	defer d.Close()

	_, err := d.Status("missing")
	assert.ErrorIs(t, err, ErrUnknownTask)
	_, err = d.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestSubmitAfterClose(t *testing.T) {
	d := New(nil, 1, nil)
	d.Close()

	_, err := d.Submit(context.Background(), "cfg", 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCancelledBeforeStart(t *testing.T) {
	release := make(chan struct{})
	d := New(func(context.Context, string, int) (string, error) {
		<-release
		return "run", nil
	}, 1, nil)

	first, err := d.Submit(context.Background(), "a", 1)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		task, _ := d.Status(first)
		return task.Status == StatusRunning
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	queued, err := d.Submit(ctx, "b", 1)
	require.NoError(t, err)
	cancel()

	task, err := d.Wait(context.Background(), queued)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)

	close(release)
	d.Close()
}

func TestSimulationRunner(t *testing.T) {
	db, err := kv.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	configs := storage.NewBadgerConfigStore(db, wall.DefaultLimits())
	configID, err := configs.Put(wall.Configuration{{27}, {27, 27}, {28, 29, 30}})
	require.NoError(t, err)

	store := storage.New(t.TempDir())
	cfg := sim.DefaultConfig()
	d := New(SimulationRunner(configs, store, cfg), 2, nil)
	defer d.Close()

	id, err := d.Submit(context.Background(), configID, 2)
	require.NoError(t, err)
	task, err := d.Wait(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, task.Status, task.Error)

	meta, err := store.Load(task.RunID)
	require.NoError(t, err)
	assert.Equal(t, configID, meta.ConfigID)
	assert.Equal(t, 6, meta.Days)

	missing, err := d.Submit(context.Background(), "unknown", 1)
	require.NoError(t, err)
	task, err = d.Wait(context.Background(), missing)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
}
