package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/wallsim/internal/crew"
	"github.com/san-kum/wallsim/internal/logging"
	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/telemetry"
	"github.com/san-kum/wallsim/internal/wall"
	"github.com/san-kum/wallsim/internal/worker"
)

// Simulator drives a wall from its initial heights to completion one day at
// a time. Every day ends at a barrier: all of the day's units finish, the
// day is committed to the progress log as one batch, heights are applied
// and only then are finished crews reassigned.
type Simulator struct {
	cfg       Config
	wall      wall.Configuration
	state     *wall.State
	sched     *crew.Scheduler
	log       progress.Log
	exec      Executor
	mode      Mode
	logger    *slog.Logger
	observers []Observer

	phase       Phase
	day         int
	completions []Completion
	err         error
}

func New(w wall.Configuration, cfg Config) (*Simulator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := w.Validate(cfg.Limits); err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:    cfg,
		wall:   w.Clone(),
		state:  wall.NewState(w),
		log:    cfg.Log,
		exec:   cfg.Executor,
		logger: logging.OrDiscard(cfg.Logger).With("component", "sim"),
	}
	s.sched = crew.New(cfg.NumCrews, s.state.Sections())
	if s.log == nil {
		s.log = progress.NewMemoryLog()
	}
	if s.exec == nil {
		s.exec = NewGoroutineExecutor(cfg.MaxWorkers)
	}
	s.mode = Sequential
	if !s.sched.Sequential() || cfg.ForceConcurrent {
		s.mode = Concurrent
	}
	return s, nil
}

func validateConfig(cfg Config) error {
	if cfg.NumCrews < 0 {
		return fmt.Errorf("%w: num_crews must be non-negative, got %d", ErrInvalidConfig, cfg.NumCrews)
	}
	if cfg.MaxWorkers < 0 {
		return fmt.Errorf("%w: max_workers must be non-negative, got %d", ErrInvalidConfig, cfg.MaxWorkers)
	}
	if cfg.DayTimeout <= 0 {
		return fmt.Errorf("%w: day timeout must be positive, got %s", ErrInvalidConfig, cfg.DayTimeout)
	}
	if cfg.Log != nil && cfg.Log.Days() != 0 {
		return fmt.Errorf("%w: progress log already holds %d days", ErrInvalidConfig, cfg.Log.Days())
	}
	return nil
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Phase() Phase { return s.phase }
func (s *Simulator) Mode() Mode { return s.mode }
func (s *Simulator) Day() int { return s.day }
func (s *Simulator) Log() progress.Log { return s.log }
func (s *Simulator) Crews() []crew.Crew { return s.sched.Crews() }
func (s *Simulator) Pending() []wall.SectionRef { return s.sched.Pending() }

// Heights returns the wall as of the last committed day.
func (s *Simulator) Heights() wall.Configuration { return s.state.Heights() }

func (s *Simulator) strategy() string {
	if s.mode == Sequential {
		return Sequential.String()
	}
	return s.exec.Name()
}

// Run steps the simulator until the wall is complete or a day fails. The
// context is consulted between days only; a day in flight always reaches
// its barrier or its grace period.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "sim.run", trace.WithAttributes(
		attribute.Int("num_crews", s.cfg.NumCrews),
		attribute.String("mode", s.mode.String()),
		attribute.String("strategy", s.strategy()),
	))
	defer span.End()

	start := time.Now()
	for {
		done, err := s.Step(ctx)
		if err != nil {
			telemetry.RunsTotal.WithLabelValues("failed").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if done {
			break
		}
	}
	telemetry.RunsTotal.WithLabelValues("succeeded").Inc()

	s.logger.Info("wall complete",
		"days", s.day,
		"mode", s.mode.String(),
		"crews", s.sched.Size(),
		"elapsed", time.Since(start))
	return s.Result(), nil
}

// Step runs one day. It reports true once the wall is complete.
func (s *Simulator) Step(ctx context.Context) (bool, error) {
	switch s.phase {
	case PhaseDone:
		return true, nil
	case PhaseAborted:
		return false, fmt.Errorf("%w: %w", ErrAborted, s.err)
	case PhaseInit:
		if s.sched.Done() {
			s.phase = PhaseDone
			return true, nil
		}
		s.phase = PhaseRunning
		s.logger.Debug("run started",
			"mode", s.mode.String(),
			"strategy", s.strategy(),
			"crews", s.sched.Size())
	}

	if err := ctx.Err(); err != nil {
		return false, s.abort(err)
	}

	day := s.day + 1
	ctx, span := telemetry.Tracer.Start(ctx, "sim.day", trace.WithAttributes(attribute.Int("day", day)))
	defer span.End()

	start := time.Now()
	units, err := s.units(day)
	if err != nil {
		return false, s.abort(&DayError{Day: day, Err: err})
	}
	telemetry.ActiveCrews.Set(float64(len(units)))

	batch := progress.NewBatch(day)
	if s.mode == Sequential {
		err = s.runSequential(day, units, batch)
	} else {
		err = s.runConcurrent(ctx, day, units, batch)
	}
	if err == nil {
		err = verifyDay(day, units, batch)
	}
	if err == nil {
		if cerr := s.log.Commit(batch); cerr != nil {
			err = &DayError{Day: day, Err: fmt.Errorf("%w: %w", ErrLogAppend, cerr)}
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, s.abort(err)
	}

	s.day = day
	entries := batch.Entries()
	if err := s.advance(day, entries); err != nil {
		return false, s.abort(&DayError{Day: day, Err: err})
	}
	telemetry.ObserveDay(s.mode.String(), time.Since(start))

	for _, o := range s.observers {
		o.OnDay(day, entries)
	}

	if s.sched.Done() {
		s.phase = PhaseDone
	}
	return s.phase == PhaseDone, nil
}

func (s *Simulator) abort(err error) error {
	s.phase = PhaseAborted
	s.err = err
	s.logger.Error("run aborted", "day", s.day+1, "error", err)
	return err
}

// units builds one unit per working crew, in crew id order.
func (s *Simulator) units(day int) ([]worker.Unit, error) {
	working := s.sched.Working()
	units := make([]worker.Unit, 0, len(working))
	for _, c := range working {
		ref, _ := c.Status.Assigned()
		h, err := s.state.Height(ref)
		if err != nil {
			return nil, err
		}
		units = append(units, worker.Unit{
			Day:     day,
			Crew:    c.ID,
			Profile: ref.Profile,
			Section: ref.Section,
			Height:  h,
		})
	}
	return units, nil
}

func (s *Simulator) runSequential(day int, units []worker.Unit, batch *progress.Batch) error {
	for _, u := range units {
		entry, err := worker.Build(u)
		if err == nil {
			err = batch.Append(entry)
		}
		if err != nil {
			return &DayError{Day: day, Err: fmt.Errorf("%w: %w", ErrUnitFailed, err)}
		}
	}
	return nil
}

func (s *Simulator) runConcurrent(ctx context.Context, day int, units []worker.Unit, batch *progress.Batch) error {
	dayCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DayTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.exec.Execute(dayCtx, units, batch)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &DayError{Day: day, Err: fmt.Errorf("%w: %w", ErrUnitFailed, err)}
		}
		return nil
	case <-dayCtx.Done():
		return &DayError{Day: day, Err: fmt.Errorf("%w: %d units not finished within %s", ErrStuckWorker, len(units)-batch.Len(), s.cfg.DayTimeout)}
	}
}

// verifyDay checks that the batch holds exactly one entry per unit and that
// every entry is the unit's section raised by one foot under its own crew.
func verifyDay(day int, units []worker.Unit, batch *progress.Batch) error {
	fail := func(format string, args ...any) error {
		return &DayError{Day: day, Err: fmt.Errorf("%w: "+format, append([]any{ErrUnitFailed}, args...)...)}
	}
	if batch.Len() != len(units) {
		return fail("%d entries for %d units", batch.Len(), len(units))
	}

	want := make(map[wall.SectionRef]worker.Unit, len(units))
	for _, u := range units {
		want[u.Ref()] = u
	}
	for _, e := range batch.Entries() {
		u, ok := want[e.Ref()]
		if !ok {
			return fail("entry for unassigned section %s", e.Ref())
		}
		if e.Crew != u.Crew || e.Height != u.Height+1 {
			return fail("entry %s by %s at %d ft does not match assignment", e.Ref(), crewName(e.Crew), e.Height)
		}
	}
	return nil
}

// advance applies the committed entries and reassigns every crew that
// finished its section. Entries arrive in ascending section order, which
// fixes the order in which finished crews draw new sections.
func (s *Simulator) advance(day int, entries []progress.Entry) error {
	for _, e := range entries {
		if err := s.state.Apply(e.Ref(), e.Height); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if !e.Finished() {
			continue
		}
		next, err := s.sched.OnSectionComplete(e.Crew)
		if err != nil {
			return err
		}
		s.completions = append(s.completions, Completion{Day: day, Crew: e.Crew, Section: e.Ref()})
		s.logger.Debug("section finished",
			"day", day,
			"crew", crewName(e.Crew),
			"section", e.Ref().String(),
			"next", next.String())
	}
	return nil
}

// Result returns the run summary. It is complete only once Phase is
// PhaseDone.
func (s *Simulator) Result() *Result {
	return &Result{
		Mode:        s.mode,
		Strategy:    s.strategy(),
		NumCrews:    s.cfg.NumCrews,
		Crews:       s.sched.Size(),
		Days:        s.day,
		Wall:        s.wall.Clone(),
		Final:       s.state.Heights(),
		Completions: append([]Completion(nil), s.completions...),
		Log:         s.log,
	}
}

// Simulate builds a simulator for w and runs it to completion.
func Simulate(ctx context.Context, w wall.Configuration, cfg Config) (*Result, error) {
	s, err := New(w, cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
