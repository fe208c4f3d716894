// Package dispatch runs simulations asynchronously and tracks their status.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/wallsim/internal/logging"
	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/storage"
)

var (
	ErrUnknownTask = errors.New("dispatch: unknown task")
	ErrClosed      = errors.New("dispatch: dispatcher closed")
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

type Task struct {
	ID       string    `json:"id"`
	ConfigID string    `json:"config_id"`
	NumCrews int       `json:"num_crews"`
	Status   Status    `json:"status"`
	RunID    string    `json:"run_id,omitempty"`
	Error    string    `json:"error,omitempty"`
	Created  time.Time `json:"created"`
	Started  time.Time `json:"started,omitzero"`
	Finished time.Time `json:"finished,omitzero"`
}

// RunFunc performs one simulation and returns the stored run id.
type RunFunc func(ctx context.Context, configID string, numCrews int) (string, error)

type Dispatcher struct {
	run    RunFunc
	logger *slog.Logger
	slots  chan struct{}

	mu     sync.RWMutex
	tasks  map[string]*Task
	done   map[string]chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// New returns a dispatcher that runs at most maxConcurrent tasks at once.
// maxConcurrent <= 0 means one.
func New(run RunFunc, maxConcurrent int, logger *slog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Dispatcher{
		run:    run,
		logger: logging.OrDiscard(logger).With("component", "dispatch"),
		slots:  make(chan struct{}, maxConcurrent),
		tasks:  make(map[string]*Task),
		done:   make(map[string]chan struct{}),
	}
}

// Submit queues a simulation of configID with numCrews and returns the task
// id. The task runs under ctx.
func (d *Dispatcher) Submit(ctx context.Context, configID string, numCrews int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", ErrClosed
	}

	task := &Task{
		ID:       uuid.NewString(),
		ConfigID: configID,
		NumCrews: numCrews,
		Status:   StatusPending,
		Created:  time.Now(),
	}
	d.tasks[task.ID] = task
	d.done[task.ID] = make(chan struct{})

	d.wg.Add(1)
	go d.execute(ctx, task.ID)

	d.logger.Debug("task submitted", "task", task.ID, "config_id", configID, "num_crews", numCrews)
	return task.ID, nil
}

func (d *Dispatcher) execute(ctx context.Context, id string) {
	defer d.wg.Done()

	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		d.finish(id, "", ctx.Err())
		return
	}
	defer func() { <-d.slots }()

	d.mu.Lock()
	task := d.tasks[id]
	task.Status = StatusRunning
	task.Started = time.Now()
	configID, numCrews := task.ConfigID, task.NumCrews
	d.mu.Unlock()

	runID, err := d.run(ctx, configID, numCrews)
	d.finish(id, runID, err)
}

func (d *Dispatcher) finish(id, runID string, err error) {
	d.mu.Lock()
	task := d.tasks[id]
	task.Finished = time.Now()
	task.RunID = runID
	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
	} else {
		task.Status = StatusSucceeded
	}
	close(d.done[id])
	d.mu.Unlock()

	if err != nil {
		d.logger.Warn("task failed", "task", id, "error", err)
		return
	}
	d.logger.Info("task succeeded", "task", id, "run", runID)
}

func (d *Dispatcher) Status(id string) (Task, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	task, ok := d.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	return *task, nil
}

// Wait blocks until the task is finished or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context, id string) (Task, error) {
	d.mu.RLock()
	done, ok := d.done[id]
	d.mu.RUnlock()
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}

	select {
	case <-done:
		return d.Status(id)
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// List returns all tasks, oldest first.
func (d *Dispatcher) List() []Task {
	d.mu.RLock()
	out := make([]Task, 0, len(d.tasks))
	for _, t := range d.tasks {
		out = append(out, *t)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// Close rejects new submissions and waits for running tasks.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// SimulationRunner returns a RunFunc that resolves the configuration id,
// simulates it with cfg and stores the run.
func SimulationRunner(configs storage.ConfigStore, store *storage.Store, cfg sim.Config) RunFunc {
	return func(ctx context.Context, configID string, numCrews int) (string, error) {
		w, err := configs.Get(configID)
		if err != nil {
			return "", err
		}

		runCfg := cfg
		runCfg.NumCrews = numCrews
		runCfg.Log = nil
		res, err := sim.Simulate(ctx, w, runCfg)
		if err != nil {
			return "", err
		}
		return store.Save("", "memory", res)
	}
}
