package config

import (
	"sort"

	"github.com/san-kum/wallsim/internal/wall"
)

// Presets are sample walls selectable by name.
var Presets = map[string]wall.Configuration{
	"example": {
		{21, 25, 28},
		{17},
		{17, 22, 17, 19, 17},
	},
	"small": {
		{27},
		{27, 27},
		{28, 29, 30},
	},
	"staggered": {
		{0, 5, 10, 15, 20, 25},
		{29, 28, 27, 26},
		{12, 12, 12},
	},
	"tall": {
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	},
	"finished": {
		{30, 30},
		{30},
	},
}

// GetPreset returns a copy of the named wall, or nil.
func GetPreset(name string) wall.Configuration {
	w, ok := Presets[name]
	if !ok {
		return nil
	}
	return w.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
