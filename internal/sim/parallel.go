package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/wallsim/internal/wall"
)

// Ensemble runs the same wall once per crew count. Every run gets its own
// in-memory progress log.
type Ensemble struct {
	base       Config
	crewCounts []int

	// Limit caps how many simulations run at once. 0 means GOMAXPROCS.
	Limit int
}

func NewEnsemble(cfg Config, crewCounts []int) *Ensemble {
	return &Ensemble{base: cfg, crewCounts: append([]int(nil), crewCounts...)}
}

// Run returns one result per crew count, in the order the counts were given.
// The first failing run cancels the rest.
func (e *Ensemble) Run(ctx context.Context, w wall.Configuration) ([]*Result, error) {
	limit := e.Limit
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(e.crewCounts))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, n := range e.crewCounts {
		eg.Go(func() error {
			cfgCopy := e.base
			cfgCopy.NumCrews = n
			cfgCopy.Log = nil

			res, err := Simulate(egctx, w, cfgCopy)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
