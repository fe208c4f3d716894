// Package query answers cost and ice-usage questions about a wall built by
// a given number of crews, memoizing every answer.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/logging"
	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/storage"
)

var ErrRunMismatch = errors.New("query: run does not match requested configuration")

// Source produces the aggregator for a configuration built by numCrews
// crews.
type Source interface {
	Aggregator(ctx context.Context, configID string, numCrews int) (*aggregate.Aggregator, error)
}

// SimulationSource simulates stored configurations on demand.
type SimulationSource struct {
	Configs storage.ConfigStore
	Config  sim.Config
}

func (s *SimulationSource) Aggregator(ctx context.Context, configID string, numCrews int) (*aggregate.Aggregator, error) {
	w, err := s.Configs.Get(configID)
	if err != nil {
		return nil, err
	}
	cfg := s.Config
	cfg.NumCrews = numCrews
	cfg.Log = nil
	res, err := sim.Simulate(ctx, w, cfg)
	if err != nil {
		return nil, err
	}
	return aggregate.New(w, res.Log)
}

// RunSource serves a single stored run.
type RunSource struct {
	Run *storage.Run
}

func (s *RunSource) Aggregator(_ context.Context, configID string, numCrews int) (*aggregate.Aggregator, error) {
	if configID != s.Run.Meta.ConfigID || numCrews != s.Run.Meta.NumCrews {
		return nil, fmt.Errorf("%w: run %s", ErrRunMismatch, s.Run.Meta.ID)
	}
	return aggregate.New(s.Run.Wall, s.Run.Log)
}

// DefaultMaxAggregators bounds how many replayed runs a Service keeps.
const DefaultMaxAggregators = 64

type Service struct {
	source Source
	cache  Cache
	logger *slog.Logger

	group singleflight.Group
	aggs  *ristretto.Cache[string, *aggregate.Aggregator]
}

// NewService returns a Service holding at most maxAggregators replayed runs
// at once. maxAggregators <= 0 selects DefaultMaxAggregators.
func NewService(source Source, cache Cache, maxAggregators int64, logger *slog.Logger) (*Service, error) {
	if maxAggregators <= 0 {
		maxAggregators = DefaultMaxAggregators
	}
	aggs, err := ristretto.NewCache(&ristretto.Config[string, *aggregate.Aggregator]{
		NumCounters:        maxAggregators * 10,
		MaxCost:            maxAggregators,
		BufferItems:        64,
		IgnoreInternalCost: true,
		Metrics:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("query: aggregator cache: %w", err)
	}
	return &Service{
		source: source,
		cache:  cache,
		logger: logging.OrDiscard(logger).With("component", "query"),
		aggs:   aggs,
	}, nil
}

// Close releases the aggregator cache.
func (s *Service) Close() { s.aggs.Close() }

func (s *Service) aggregator(ctx context.Context, configID string, numCrews int) (*aggregate.Aggregator, error) {
	key := configID + "/" + strconv.Itoa(numCrews)
	if agg, ok := s.aggs.Get(key); ok {
		return agg, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if agg, ok := s.aggs.Get(key); ok {
			return agg, nil
		}
		s.logger.Debug("building aggregate", "config_id", configID, "num_crews", numCrews)
		agg, err := s.source.Aggregator(ctx, configID, numCrews)
		if err != nil {
			return nil, err
		}
		s.aggs.Set(key, agg, 1)
		s.aggs.Wait()
		return agg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*aggregate.Aggregator), nil
}

func (s *Service) lookup(ctx context.Context, k Key, compute func(*aggregate.Aggregator) (aggregate.Totals, error)) (aggregate.Totals, error) {
	if v, ok := s.cache.Get(k); ok {
		return v, nil
	}
	agg, err := s.aggregator(ctx, k.ConfigID, k.NumCrews)
	if err != nil {
		return aggregate.Totals{}, err
	}
	v, err := compute(agg)
	if err != nil {
		return aggregate.Totals{}, err
	}
	s.cache.Set(k, v)
	return v, nil
}

// Wall returns the totals for the whole wall.
func (s *Service) Wall(ctx context.Context, configID string, numCrews int) (aggregate.Totals, error) {
	k := Key{ConfigID: configID, NumCrews: numCrews, Day: AllDays, Profile: AllProfiles}
	return s.lookup(ctx, k, func(a *aggregate.Aggregator) (aggregate.Totals, error) {
		return a.Wall(), nil
	})
}

func (s *Service) Profile(ctx context.Context, configID string, numCrews, profile int) (aggregate.Totals, error) {
	k := Key{ConfigID: configID, NumCrews: numCrews, Day: AllDays, Profile: profile}
	return s.lookup(ctx, k, func(a *aggregate.Aggregator) (aggregate.Totals, error) {
		return a.Profile(profile)
	})
}

func (s *Service) ProfileDay(ctx context.Context, configID string, numCrews, profile, day int) (aggregate.Totals, error) {
	k := Key{ConfigID: configID, NumCrews: numCrews, Day: day, Profile: profile}
	return s.lookup(ctx, k, func(a *aggregate.Aggregator) (aggregate.Totals, error) {
		return a.ProfileDay(profile, day)
	})
}

// Day returns the totals for the whole wall on one day.
func (s *Service) Day(ctx context.Context, configID string, numCrews, day int) (aggregate.Totals, error) {
	k := Key{ConfigID: configID, NumCrews: numCrews, Day: day, Profile: AllProfiles}
	return s.lookup(ctx, k, func(a *aggregate.Aggregator) (aggregate.Totals, error) {
		return a.Day(day)
	})
}

// ConstructionDays returns how many days the build takes.
func (s *Service) ConstructionDays(ctx context.Context, configID string, numCrews int) (int, error) {
	agg, err := s.aggregator(ctx, configID, numCrews)
	if err != nil {
		return 0, err
	}
	return agg.ConstructionDays(), nil
}
