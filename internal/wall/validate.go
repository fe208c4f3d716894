package wall

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxProfiles      = 2000
	DefaultMaxProfileLength = 2000
)

type Limits struct {
	MaxProfiles      int `yaml:"max_profiles" validate:"gte=1"`
	MaxProfileLength int `yaml:"max_profile_length" validate:"gte=1"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxProfiles:      DefaultMaxProfiles,
		MaxProfileLength: DefaultMaxProfileLength,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects configurations the simulation must not start on. Every
// returned error wraps ErrInvalidConfiguration and one specific cause.
func (c Configuration) Validate(limits Limits) error {
	if len(c) == 0 {
		return invalid(ErrEmptyWall, "")
	}
	if err := validate.Var(c, fmt.Sprintf("max=%d", limits.MaxProfiles)); err != nil {
		return invalid(ErrTooManyProfiles, fmt.Sprintf("%d profiles, max %d", len(c), limits.MaxProfiles))
	}

	rule := fmt.Sprintf("min=1,max=%d,dive,min=0,max=%d", limits.MaxProfileLength, MaxHeight)
	for i, p := range c {
		err := validate.Var(p, rule)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return fmt.Errorf("%w: profile %d: %v", ErrInvalidConfiguration, i+1, err)
		}
		fe := verrs[0]
		switch {
		case fe.Kind() == reflect.Slice && fe.Tag() == "min":
			return invalid(ErrEmptyProfile, fmt.Sprintf("profile %d", i+1))
		case fe.Kind() == reflect.Slice:
			return invalid(ErrProfileTooLong, fmt.Sprintf("profile %d has %d sections, max %d", i+1, len(p), limits.MaxProfileLength))
		default:
			return invalid(ErrHeightOutOfRange, fmt.Sprintf("profile %d: height %v not in [0, %d]", i+1, fe.Value(), MaxHeight))
		}
	}
	return nil
}

func invalid(cause error, detail string) error {
	if detail == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, cause)
	}
	return fmt.Errorf("%w: %w: %s", ErrInvalidConfiguration, cause, detail)
}
