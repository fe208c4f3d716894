package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wallsim/internal/wall"
)

// LoadWall reads a wall configuration file: a list of profiles, each a list
// of section heights. Files ending in .yaml or .yml are read as YAML,
// anything else as JSON. The wall is not validated here.
func LoadWall(path string) (wall.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWall(data, filepath.Ext(path))
}

func ParseWall(data []byte, ext string) (wall.Configuration, error) {
	var w wall.Configuration
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("%w: %w", wall.ErrInvalidConfiguration, err)
		}
	default:
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("%w: %w", wall.ErrInvalidConfiguration, err)
		}
	}
	return w, nil
}

func SaveWall(path string, w wall.Configuration) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(w)
	default:
		data, err = json.Marshal(w)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
