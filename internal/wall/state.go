package wall

import "fmt"

// State tracks the current height of every section of a wall.
type State struct {
	sections []Section
	index    map[SectionRef]int
}

func NewState(cfg Configuration) *State {
	sections := cfg.Sections()
	index := make(map[SectionRef]int, len(sections))
	for i, s := range sections {
		index[s.Ref] = i
	}
	return &State{sections: sections, index: index}
}

func (s *State) Section(ref SectionRef) (Section, error) {
	i, ok := s.index[ref]
	if !ok {
		return Section{}, fmt.Errorf("%w: %s", ErrUnknownSection, ref)
	}
	return s.sections[i], nil
}

func (s *State) Height(ref SectionRef) (int, error) {
	sec, err := s.Section(ref)
	if err != nil {
		return 0, err
	}
	return sec.Height, nil
}

// Apply records a new height for ref. The change must be exactly +1 and may
// not exceed MaxHeight.
func (s *State) Apply(ref SectionRef, height int) error {
	i, ok := s.index[ref]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, ref)
	}
	if height > MaxHeight || height < 0 {
		return fmt.Errorf("%w: %s -> %d", ErrHeightOutOfRange, ref, height)
	}
	if height != s.sections[i].Height+1 {
		return fmt.Errorf("%w: %s %d -> %d", ErrNotIncrement, ref, s.sections[i].Height, height)
	}
	s.sections[i].Height = height
	return nil
}

// Unfinished returns the sections below MaxHeight in ascending order.
func (s *State) Unfinished() []Section {
	out := make([]Section, 0, len(s.sections))
	for _, sec := range s.sections {
		if !sec.Finished() {
			out = append(out, sec)
		}
	}
	return out
}

func (s *State) Finished() bool {
	for _, sec := range s.sections {
		if !sec.Finished() {
			return false
		}
	}
	return true
}

func (s *State) Sections() []Section {
	return append([]Section(nil), s.sections...)
}

// Heights returns the current heights shaped like the original configuration.
func (s *State) Heights() Configuration {
	var out Configuration
	for _, sec := range s.sections {
		for len(out) <= sec.Ref.Profile {
			out = append(out, Profile{})
		}
		out[sec.Ref.Profile] = append(out[sec.Ref.Profile], sec.Height)
	}
	return out
}
