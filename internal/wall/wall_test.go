package wall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	limits := Limits{MaxProfiles: 3, MaxProfileLength: 4}

	tests := []struct {
		name string
		cfg  Configuration
		want error
	}{
		{"valid", Configuration{{27}, {27, 27}, {28, 29, 30}}, nil},
		{"zero height", Configuration{{0, 30}}, nil},
		{"empty wall", Configuration{}, ErrEmptyWall},
		{"empty profile", Configuration{{1}, {}}, ErrEmptyProfile},
		{"too many profiles", Configuration{{1}, {1}, {1}, {1}}, ErrTooManyProfiles},
		{"profile too long", Configuration{{1, 2, 3, 4, 5}}, ErrProfileTooLong},
		{"height above max", Configuration{{1, 31}}, ErrHeightOutOfRange},
		{"negative height", Configuration{{-1}}, ErrHeightOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(limits)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfigurationSections(t *testing.T) {
	cfg := Configuration{{27}, {27, 27}, {28, 29, 30}}

	sections := cfg.Sections()
	require.Len(t, sections, 6)
	assert.Equal(t, SectionRef{Profile: 0, Section: 0}, sections[0].Ref)
	assert.Equal(t, SectionRef{Profile: 2, Section: 2}, sections[5].Ref)
	assert.True(t, sections[5].Finished())
	assert.Equal(t, 12, cfg.RemainingFeet())
	assert.Equal(t, 6, cfg.SectionCount())
}

func TestConfigurationHash(t *testing.T) {
	a := Configuration{{1, 2}, {3}}
	b := a.Clone()
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 64)

	b[1][0] = 4
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.Equal(t, 3, a[1][0], "clone must not share profile storage")
}

func TestSectionRefOrdering(t *testing.T) {
	a := SectionRef{Profile: 0, Section: 5}
	b := SectionRef{Profile: 1, Section: 0}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.Zero(t, a.Compare(a))
	assert.Equal(t, "1-6", a.String())
}

func TestStateApply(t *testing.T) {
	st := NewState(Configuration{{28}, {30}})
	ref := SectionRef{Profile: 0, Section: 0}

	require.NoError(t, st.Apply(ref, 29))
	assert.ErrorIs(t, st.Apply(ref, 29), ErrNotIncrement)
	assert.ErrorIs(t, st.Apply(ref, 31), ErrHeightOutOfRange)
	require.NoError(t, st.Apply(ref, 30))
	assert.ErrorIs(t, st.Apply(ref, 31), ErrHeightOutOfRange)
	assert.ErrorIs(t, st.Apply(SectionRef{Profile: 5}, 1), ErrUnknownSection)

	assert.True(t, st.Finished())
	assert.Empty(t, st.Unfinished())
	assert.Equal(t, Configuration{{30}, {30}}, st.Heights())
}
