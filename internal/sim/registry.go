package sim

import (
	"fmt"
	"sort"
)

// Registry maps strategy names to executor factories.
type Registry struct {
	executors map[string]func(maxWorkers int) Executor
}

func NewRegistry() *Registry {
	r := &Registry{executors: make(map[string]func(int) Executor)}

	r.executors[StrategyGoroutine] = func(n int) Executor { return NewGoroutineExecutor(n) }
	r.executors[StrategyProcess] = func(n int) Executor { return NewProcessExecutor(n) }

	return r
}

func (r *Registry) Register(name string, fn func(maxWorkers int) Executor) {
	r.executors[name] = fn
}

func (r *Registry) GetExecutor(name string, maxWorkers int) (Executor, error) {
	fn, ok := r.executors[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	return fn(maxWorkers), nil
}

func (r *Registry) ListStrategies() []string {
	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
