// Package crew assigns construction crews to unfinished wall sections.
//
// Sections are handed out in ascending (profile, section) order across the
// whole flattened wall. When there are at least as many crews as unfinished
// sections (or no crew count at all), every section gets its own permanent
// crew and the scheduler reports [Scheduler.Sequential].
package crew

import (
	"errors"
	"fmt"
	"slices"

	"github.com/san-kum/wallsim/internal/wall"
)

var (
	ErrUnknownCrew = errors.New("crew: unknown crew")
	ErrNotWorking  = errors.New("crew: crew is not working")
)

type StatusKind int

const (
	KindWorking StatusKind = iota
	KindRelieved
)

func (k StatusKind) String() string {
	switch k {
	case KindWorking:
		return "working"
	case KindRelieved:
		return "relieved"
	default:
		return "unknown"
	}
}

// Status is either Working(section) or Relieved. Section is only meaningful
// while working.
type Status struct {
	Kind    StatusKind
	Section wall.SectionRef
}

func Working(ref wall.SectionRef) Status { return Status{Kind: KindWorking, Section: ref} }

var Relieved = Status{Kind: KindRelieved}

func (s Status) Assigned() (wall.SectionRef, bool) {
	if s.Kind != KindWorking {
		return wall.SectionRef{}, false
	}
	return s.Section, true
}

func (s Status) String() string {
	if ref, ok := s.Assigned(); ok {
		return "working on " + ref.String()
	}
	return s.Kind.String()
}

type Crew struct {
	ID     int
	Status Status
}

func (c Crew) Name() string { return fmt.Sprintf("Crew-%d", c.ID) }

type Scheduler struct {
	crews      []Crew
	pending    []wall.SectionRef
	bySection  map[wall.SectionRef]int
	sequential bool
}

// New builds a scheduler for numCrews crews over sections. Finished sections
// are ignored. numCrews == 0 means one crew per unfinished section.
func New(numCrews int, sections []wall.Section) *Scheduler {
	unfinished := make([]wall.SectionRef, 0, len(sections))
	for _, s := range sections {
		if !s.Finished() {
			unfinished = append(unfinished, s.Ref)
		}
	}
	slices.SortFunc(unfinished, wall.SectionRef.Compare)

	s := &Scheduler{bySection: make(map[wall.SectionRef]int, len(unfinished))}

	n := numCrews
	if numCrews <= 0 || numCrews >= len(unfinished) {
		s.sequential = true
		n = len(unfinished)
	}

	s.crews = make([]Crew, n)
	for i := 0; i < n; i++ {
		s.crews[i] = Crew{ID: i + 1, Status: Working(unfinished[i])}
		s.bySection[unfinished[i]] = i + 1
	}
	s.pending = unfinished[n:]
	return s
}

// OnSectionComplete moves the crew to the lowest unfinished, unassigned
// section, or relieves it when none remain.
func (s *Scheduler) OnSectionComplete(crewID int) (Status, error) {
	c, err := s.crew(crewID)
	if err != nil {
		return Status{}, err
	}
	ref, ok := c.Status.Assigned()
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrNotWorking, c.Name())
	}
	delete(s.bySection, ref)

	if len(s.pending) == 0 {
		c.Status = Relieved
		return c.Status, nil
	}

	next := s.pending[0]
	s.pending = s.pending[1:]
	c.Status = Working(next)
	s.bySection[next] = c.ID
	return c.Status, nil
}

func (s *Scheduler) crew(id int) (*Crew, error) {
	if id < 1 || id > len(s.crews) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCrew, id)
	}
	return &s.crews[id-1], nil
}

// Working returns the crews currently assigned, in crew id order.
func (s *Scheduler) Working() []Crew {
	out := make([]Crew, 0, len(s.crews))
	for _, c := range s.crews {
		if c.Status.Kind == KindWorking {
			out = append(out, c)
		}
	}
	return out
}

func (s *Scheduler) Crews() []Crew { return append([]Crew(nil), s.crews...) }

// CrewFor returns the crew assigned to ref, if any.
func (s *Scheduler) CrewFor(ref wall.SectionRef) (int, bool) {
	id, ok := s.bySection[ref]
	return id, ok
}

// Pending returns the unassigned sections still waiting for a crew. The
// result is never nil.
func (s *Scheduler) Pending() []wall.SectionRef {
	out := make([]wall.SectionRef, len(s.pending))
	copy(out, s.pending)
	return out
}

func (s *Scheduler) Done() bool { return len(s.bySection) == 0 }

func (s *Scheduler) Sequential() bool { return s.sequential }

func (s *Scheduler) Size() int { return len(s.crews) }
