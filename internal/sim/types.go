package sim

import (
	"log/slog"
	"time"

	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/wall"
)

type Mode int

const (
	// Sequential gives every unfinished section its own crew and raises all
	// of them in one in-process pass per day.
	Sequential Mode = iota
	// Concurrent dispatches one unit per working crew through an Executor.
	Concurrent
)

func (m Mode) String() string {
	if m == Concurrent {
		return "concurrent"
	}
	return "sequential"
}

type Phase int

const (
	PhaseInit Phase = iota
	PhaseRunning
	PhaseDone
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseRunning:
		return "running"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Completion records the day a crew brought a section to full height.
type Completion struct {
	Day     int
	Crew    int
	Section wall.SectionRef
}

// Observer is notified after every committed day.
type Observer interface {
	OnDay(day int, entries []progress.Entry)
}

type ObserverFunc func(day int, entries []progress.Entry)

func (f ObserverFunc) OnDay(day int, entries []progress.Entry) { f(day, entries) }

type Config struct {
	// NumCrews is the crew count; 0 means one crew per unfinished section.
	NumCrews int

	// Executor runs the units of the concurrent path. Nil selects a
	// goroutine executor bounded by MaxWorkers.
	Executor Executor

	// MaxWorkers caps the per-day worker pool. 0 means no cap beyond the
	// number of working crews.
	MaxWorkers int

	// DayTimeout is the grace period for all units of one day.
	DayTimeout time.Duration

	// ForceConcurrent runs the concurrent path even when every section has
	// its own crew.
	ForceConcurrent bool

	// Log receives committed days. Nil selects a fresh in-memory log.
	Log progress.Log

	Limits wall.Limits
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		DayTimeout: 30 * time.Second,
		Limits:     wall.DefaultLimits(),
	}
}

type Result struct {
	Mode        Mode
	Strategy    string
	NumCrews    int
	Crews       int
	Days        int
	Wall        wall.Configuration
	Final       wall.Configuration
	Completions []Completion
	Log         progress.Log
}
