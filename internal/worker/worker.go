// Package worker implements the single unit of work a crew performs in a
// day: raise its section by one foot and report the new height.
//
// The same unit runs in-process for the goroutine strategy and in a child
// process for the process strategy. For the latter, the child reads one
// JSON [Unit] on stdin and writes one JSON [Reply] on stdout (see [Serve]).
package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/wall"
)

var ErrSectionFinished = errors.New("worker: section already at max height")

// Unit is the work handed to one crew for one day. Height is the section's
// height before the day's work.
type Unit struct {
	Day     int `json:"day"`
	Crew    int `json:"crew"`
	Profile int `json:"profile"`
	Section int `json:"section"`
	Height  int `json:"height"`
}

func (u Unit) Ref() wall.SectionRef {
	return wall.SectionRef{Profile: u.Profile, Section: u.Section}
}

type Reply struct {
	Entry progress.Entry `json:"entry"`
	Error string         `json:"error,omitempty"`
}

// BuildFunc performs a unit and returns the entry to record.
type BuildFunc func(Unit) (progress.Entry, error)

// Build raises the unit's section by exactly one foot.
func Build(u Unit) (progress.Entry, error) {
	if u.Height >= wall.MaxHeight {
		return progress.Entry{}, fmt.Errorf("%w: %s", ErrSectionFinished, u.Ref())
	}
	if u.Height < 0 {
		return progress.Entry{}, fmt.Errorf("%w: %s at %d", wall.ErrHeightOutOfRange, u.Ref(), u.Height)
	}
	return progress.Entry{
		Day:     u.Day,
		Profile: u.Profile,
		Section: u.Section,
		Crew:    u.Crew,
		Height:  u.Height + 1,
	}, nil
}

// Serve runs one unit read from r and writes the reply to w. Build failures
// are reported in the reply; only I/O and decoding failures are returned.
func Serve(r io.Reader, w io.Writer) error {
	var u Unit
	if err := json.NewDecoder(r).Decode(&u); err != nil {
		return fmt.Errorf("decode unit: %w", err)
	}

	var reply Reply
	entry, err := Build(u)
	if err != nil {
		reply.Error = err.Error()
	} else {
		reply.Entry = entry
	}
	return json.NewEncoder(w).Encode(reply)
}
