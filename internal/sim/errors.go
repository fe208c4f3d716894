package sim

import (
	"errors"
	"fmt"
)

// Engine errors. A run that fails with any of them is aborted and the
// failing day is never committed.
var (
	// ErrInvalidConfig indicates engine settings the driver cannot run with.
	ErrInvalidConfig = errors.New("sim: invalid engine configuration")

	// ErrUnitFailed indicates a unit of work returned an error, panicked or
	// reported an entry that does not match its assignment.
	ErrUnitFailed = errors.New("sim: unit of work failed")

	// ErrStuckWorker indicates the day's units did not finish within the
	// grace period.
	ErrStuckWorker = errors.New("sim: worker exceeded day grace period")

	// ErrLogAppend indicates the progress log refused or failed a commit.
	ErrLogAppend = errors.New("sim: progress log append failed")

	// ErrAborted is returned by Step after a run has failed.
	ErrAborted = errors.New("sim: run aborted")
)

// DayError wraps an engine error with the day it happened on.
type DayError struct {
	Day int
	Err error
}

func (e *DayError) Error() string {
	return fmt.Sprintf("day %d: %v", e.Day, e.Err)
}

func (e *DayError) Unwrap() error {
	return e.Err
}
