package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/wallsim/internal/wall"
)

const (
	DefaultDataDir    = ".wallsim"
	DefaultStrategy   = "goroutine"
	DefaultDayTimeout = 30 * time.Second
	DefaultLogBackend = "memory"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultCacheCost  = 1 << 16
)

var ErrInvalidSettings = errors.New("config: invalid settings")

type Settings struct {
	DataDir    string        `yaml:"data_dir" validate:"required"`
	Strategy   string        `yaml:"strategy" validate:"oneof=goroutine process"`
	MaxWorkers int           `yaml:"max_workers" validate:"gte=0"`
	DayTimeout time.Duration `yaml:"day_timeout" validate:"gt=0"`
	Limits     wall.Limits   `yaml:",inline"`
	LogBackend string        `yaml:"log_backend" validate:"oneof=memory badger"`
	LogLevel   string        `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat  string        `yaml:"log_format" validate:"oneof=text json"`
	Cache      CacheSettings `yaml:"cache"`
}

type CacheSettings struct {
	// MaxCost bounds the number of cached query results.
	MaxCost int64 `yaml:"max_cost" validate:"gte=1"`
}

func DefaultSettings() *Settings {
	return &Settings{
		DataDir:    DefaultDataDir,
		Strategy:   DefaultStrategy,
		DayTimeout: DefaultDayTimeout,
		Limits:     wall.DefaultLimits(),
		LogBackend: DefaultLogBackend,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
		Cache:      CacheSettings{MaxCost: DefaultCacheCost},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s fails %q (got %v)", ErrInvalidSettings, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Load reads settings from path on top of the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	s, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	return s, err
}

func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
