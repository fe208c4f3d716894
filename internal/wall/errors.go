package wall

import "errors"

// Domain errors for wall configurations and section state.
var (
	// ErrInvalidConfiguration wraps every configuration rejection.
	ErrInvalidConfiguration = errors.New("wall: invalid configuration")

	// ErrEmptyWall indicates a configuration without profiles.
	ErrEmptyWall = errors.New("wall: no profiles")

	// ErrEmptyProfile indicates a profile without sections.
	ErrEmptyProfile = errors.New("wall: profile has no sections")

	// ErrTooManyProfiles indicates more profiles than the configured maximum.
	ErrTooManyProfiles = errors.New("wall: too many profiles")

	// ErrProfileTooLong indicates more sections in a profile than allowed.
	ErrProfileTooLong = errors.New("wall: profile has too many sections")

	// ErrHeightOutOfRange indicates a height outside [0, MaxHeight].
	ErrHeightOutOfRange = errors.New("wall: section height out of range")

	// ErrUnknownSection indicates a reference to a section not in the wall.
	ErrUnknownSection = errors.New("wall: unknown section")

	// ErrNotIncrement indicates a height change other than +1.
	ErrNotIncrement = errors.New("wall: height change is not a single increment")
)
