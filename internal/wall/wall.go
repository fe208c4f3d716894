package wall

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	// MaxHeight is the target height of every section, in feet.
	MaxHeight = 30
	// IcePerFoot is the ice used per foot of height, in cubic yards.
	IcePerFoot = 195
	// IceCostPerCubicYard is the price of one cubic yard of ice.
	IceCostPerCubicYard = 1900
)

type Profile []int

// Configuration is the ordered list of profiles. It marshals to the nested
// array form used by wall configuration files: [[21, 25, 28], [17], ...].
type Configuration []Profile

type SectionRef struct {
	Profile int `json:"profile"`
	Section int `json:"section"`
}

// Compare orders references by profile, then section.
func (r SectionRef) Compare(o SectionRef) int {
	if r.Profile != o.Profile {
		return r.Profile - o.Profile
	}
	return r.Section - o.Section
}

func (r SectionRef) Less(o SectionRef) bool { return r.Compare(o) < 0 }

// String renders the 1-based form used in reports, e.g. "2-1".
func (r SectionRef) String() string {
	return fmt.Sprintf("%d-%d", r.Profile+1, r.Section+1)
}

type Section struct {
	Ref         SectionRef
	StartHeight int
	Height      int
}

func (s Section) Finished() bool { return s.Height >= MaxHeight }

func (c Configuration) SectionCount() int {
	n := 0
	for _, p := range c {
		n += len(p)
	}
	return n
}

// Sections flattens the wall in ascending (profile, section) order.
func (c Configuration) Sections() []Section {
	out := make([]Section, 0, c.SectionCount())
	for pi, p := range c {
		for si, h := range p {
			out = append(out, Section{
				Ref:         SectionRef{Profile: pi, Section: si},
				StartHeight: h,
				Height:      h,
			})
		}
	}
	return out
}

// RemainingFeet is the number of feet needed to finish every section.
func (c Configuration) RemainingFeet() int {
	n := 0
	for _, p := range c {
		n += p.RemainingFeet()
	}
	return n
}

func (p Profile) RemainingFeet() int {
	n := 0
	for _, h := range p {
		if h < MaxHeight {
			n += MaxHeight - h
		}
	}
	return n
}

func (c Configuration) Clone() Configuration {
	out := make(Configuration, len(c))
	for i, p := range c {
		out[i] = append(Profile(nil), p...)
	}
	return out
}

func (c Configuration) Contains(ref SectionRef) bool {
	return ref.Profile >= 0 && ref.Profile < len(c) &&
		ref.Section >= 0 && ref.Section < len(c[ref.Profile])
}

// Hash returns the hex sha256 of the canonical JSON form. It is used as the
// configuration reference id.
func (c Configuration) Hash() string {
	data, err := json.Marshal(c)
	if err != nil {
		// []Profile of ints always marshals.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
