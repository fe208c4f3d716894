package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/telemetry"
	"github.com/san-kum/wallsim/internal/worker"
)

const (
	StrategyGoroutine = "goroutine"
	StrategyProcess   = "process"
)

// Executor runs one day's units and appends their entries to batch. It
// returns once every dispatched unit has finished or the first failure is
// known. Units not yet dispatched when ctx ends are skipped.
type Executor interface {
	Name() string
	Execute(ctx context.Context, units []worker.Unit, batch *progress.Batch) error
}

func poolSize(units, maxWorkers int) int {
	if maxWorkers <= 0 || maxWorkers > units {
		maxWorkers = units
	}
	return max(maxWorkers, 1)
}

func countUnit(strategy string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	telemetry.UnitsTotal.WithLabelValues(strategy, result).Inc()
}

// GoroutineExecutor runs units on a bounded pool of goroutines.
type GoroutineExecutor struct {
	MaxWorkers int
	// Build overrides worker.Build.
	Build worker.BuildFunc
}

func NewGoroutineExecutor(maxWorkers int) *GoroutineExecutor {
	return &GoroutineExecutor{MaxWorkers: maxWorkers}
}

func (g *GoroutineExecutor) Name() string { return StrategyGoroutine }

func (g *GoroutineExecutor) Execute(ctx context.Context, units []worker.Unit, batch *progress.Batch) error {
	build := g.Build
	if build == nil {
		build = worker.Build
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(poolSize(len(units), g.MaxWorkers))
	for _, u := range units {
		eg.Go(func() (err error) {
			if err := egctx.Err(); err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s panicked on %s: %v", crewName(u.Crew), u.Ref(), r)
				}
				countUnit(StrategyGoroutine, err)
			}()

			entry, err := build(u)
			if err != nil {
				return fmt.Errorf("%s on %s: %w", crewName(u.Crew), u.Ref(), err)
			}
			return batch.Append(entry)
		})
	}
	return eg.Wait()
}

// ProcessExecutor runs every unit in a fresh child process. The child must
// speak the worker.Serve protocol; by default it is this executable invoked
// with the hidden "worker" command.
type ProcessExecutor struct {
	Path       string
	Args       []string
	Env        []string
	MaxWorkers int
}

func NewProcessExecutor(maxWorkers int) *ProcessExecutor {
	return &ProcessExecutor{Args: []string{"worker"}, MaxWorkers: maxWorkers}
}

func (p *ProcessExecutor) Name() string { return StrategyProcess }

func (p *ProcessExecutor) Execute(ctx context.Context, units []worker.Unit, batch *progress.Batch) error {
	path := p.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate worker executable: %w", err)
		}
		path = exe
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(poolSize(len(units), p.MaxWorkers))
	for _, u := range units {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			entry, err := p.run(ctx, path, u)
			countUnit(StrategyProcess, err)
			if err != nil {
				return err
			}
			return batch.Append(entry)
		})
	}
	return eg.Wait()
}

func (p *ProcessExecutor) run(ctx context.Context, path string, u worker.Unit) (progress.Entry, error) {
	in, err := json.Marshal(u)
	if err != nil {
		return progress.Entry{}, err
	}

	cmd := exec.CommandContext(ctx, path, p.Args...)
	cmd.Env = append(os.Environ(), p.Env...)
	cmd.Stdin = bytes.NewReader(in)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return progress.Entry{}, fmt.Errorf("%s worker process: %w: %s", crewName(u.Crew), err, strings.TrimSpace(stderr.String()))
	}

	var reply worker.Reply
	if err := json.Unmarshal(out, &reply); err != nil {
		return progress.Entry{}, fmt.Errorf("%s worker reply: %w", crewName(u.Crew), err)
	}
	if reply.Error != "" {
		return progress.Entry{}, fmt.Errorf("%s on %s: %s", crewName(u.Crew), u.Ref(), reply.Error)
	}
	return reply.Entry, nil
}

func crewName(id int) string { return fmt.Sprintf("Crew-%d", id) }
