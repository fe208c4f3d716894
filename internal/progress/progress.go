// Package progress holds the append-only record of a construction run.
//
// Workers never share section state. Each unit of work appends exactly one
// [Entry] to the [Batch] of the current day; the simulation driver commits
// the whole batch to a [Log] once every unit of the day has finished. A Log
// therefore only ever exposes complete days.
package progress

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/san-kum/wallsim/internal/wall"
)

var (
	ErrWrongDay       = errors.New("progress: entry belongs to another day")
	ErrDuplicateEntry = errors.New("progress: section already recorded for this day")
	ErrInvalidEntry   = errors.New("progress: invalid entry")
	ErrOutOfOrder     = errors.New("progress: day committed out of order")
	ErrEmptyDay       = errors.New("progress: day has no entries")
	ErrUnknownDay     = errors.New("progress: unknown day")
)

// Entry records the height of one section after one day of work. Profile
// and Section are 0-based; Day and Crew start at 1.
type Entry struct {
	Day     int `json:"day"`
	Profile int `json:"profile"`
	Section int `json:"section"`
	Crew    int `json:"crew"`
	Height  int `json:"height"`
}

func (e Entry) Ref() wall.SectionRef {
	return wall.SectionRef{Profile: e.Profile, Section: e.Section}
}

func (e Entry) Finished() bool { return e.Height == wall.MaxHeight }

func (e Entry) validate() error {
	if e.Day < 1 || e.Profile < 0 || e.Section < 0 || e.Height < 1 || e.Height > wall.MaxHeight {
		return fmt.Errorf("%w: %+v", ErrInvalidEntry, e)
	}
	return nil
}

func compareEntries(a, b Entry) int {
	if a.Day != b.Day {
		return a.Day - b.Day
	}
	return a.Ref().Compare(b.Ref())
}

// Batch collects the entries of a single day. Append is safe for concurrent
// use; each call either records the whole entry or nothing.
type Batch struct {
	day     int
	mu      sync.Mutex
	entries []Entry
	seen    map[wall.SectionRef]struct{}
}

func NewBatch(day int) *Batch {
	return &Batch{day: day, seen: make(map[wall.SectionRef]struct{})}
}

func (b *Batch) Day() int { return b.day }

func (b *Batch) Append(e Entry) error {
	if e.Day != b.day {
		return fmt.Errorf("%w: got day %d, batch is day %d", ErrWrongDay, e.Day, b.day)
	}
	if err := e.validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[e.Ref()]; dup {
		return fmt.Errorf("%w: day %d section %s", ErrDuplicateEntry, b.day, e.Ref())
	}
	b.seen[e.Ref()] = struct{}{}
	b.entries = append(b.entries, e)
	return nil
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Entries returns the day's entries in ascending section order.
func (b *Batch) Entries() []Entry {
	b.mu.Lock()
	out := append([]Entry(nil), b.entries...)
	b.mu.Unlock()
	slices.SortFunc(out, compareEntries)
	return out
}

// Log is the append-only, day-grouped record of a run. Days are committed
// whole, in order, starting at day 1.
type Log interface {
	Commit(b *Batch) error
	Days() int
	Day(day int) ([]Entry, error)
	Entries() ([]Entry, error)
}

// checkCommit validates a batch against a log that already holds days.
func checkCommit(days int, b *Batch) error {
	if b.Day() != days+1 {
		return fmt.Errorf("%w: got day %d, next is %d", ErrOutOfOrder, b.Day(), days+1)
	}
	if b.Len() == 0 {
		return fmt.Errorf("%w: day %d", ErrEmptyDay, b.Day())
	}
	return nil
}

// Replay rebuilds an in-memory log from entries of finished days, e.g. read
// back from storage.
func Replay(entries []Entry) (*MemoryLog, error) {
	sorted := append([]Entry(nil), entries...)
	slices.SortFunc(sorted, compareEntries)

	log := NewMemoryLog()
	var batch *Batch
	for _, e := range sorted {
		if batch == nil || e.Day != batch.Day() {
			if batch != nil {
				if err := log.Commit(batch); err != nil {
					return nil, err
				}
			}
			batch = NewBatch(e.Day)
		}
		if err := batch.Append(e); err != nil {
			return nil, err
		}
	}
	if batch != nil {
		if err := log.Commit(batch); err != nil {
			return nil, err
		}
	}
	return log, nil
}
