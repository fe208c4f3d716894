package sim

import (
	"context"
	"math/rand"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/wall"
)

func TestSimProperties(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Simulation Properties Suite")
}

func randomWall(rng *rand.Rand) wall.Configuration {
	profiles := 1 + rng.Intn(4)
	w := make(wall.Configuration, profiles)
	for p := range w {
		sections := 1 + rng.Intn(5)
		w[p] = make(wall.Profile, sections)
		for s := range w[p] {
			w[p][s] = 20 + rng.Intn(11)
		}
	}
	return w
}

// profileHeightsByDay replays a log into the per-profile height sum at the
// end of every day.
func profileHeightsByDay(w wall.Configuration, log progress.Log) [][]int {
	state := wall.NewState(w)
	out := make([][]int, 0, log.Days())
	for day := 1; day <= log.Days(); day++ {
		entries, err := log.Day(day)
		Expect(err).NotTo(HaveOccurred())
		for _, e := range entries {
			Expect(state.Apply(e.Ref(), e.Height)).To(Succeed())
		}
		heights := state.Heights()
		sums := make([]int, len(heights))
		for p, profile := range heights {
			for _, h := range profile {
				sums[p] += h
			}
		}
		out = append(out, sums)
	}
	return out
}

var _ = Describe("Simulator", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(42))
	})

	It("builds the example wall for 4,446,000 gold dragons", func() {
		res, err := Simulate(context.Background(), exampleWall, testConfig(0))
		Expect(err).NotTo(HaveOccurred())

		entries, err := res.Log.Entries()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(12))
		Expect(len(entries) * wall.IcePerFoot * wall.IceCostPerCubicYard).To(Equal(4446000))
	})

	It("matches sequential progress when every section has a crew", func() {
		for i := 0; i < 20; i++ {
			w := randomWall(rng)

			seq, err := Simulate(context.Background(), w, testConfig(0))
			Expect(err).NotTo(HaveOccurred())

			cfg := testConfig(w.SectionCount())
			cfg.ForceConcurrent = true
			conc, err := Simulate(context.Background(), w, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(conc.Mode).To(Equal(Concurrent))

			Expect(profileHeightsByDay(w, conc.Log)).To(Equal(profileHeightsByDay(w, seq.Log)), "wall %v", w)
		}
	})

	It("builds the same feet for every crew count", func() {
		for i := 0; i < 10; i++ {
			w := randomWall(rng)
			unfinished := len(wall.NewState(w).Unfinished())

			for n := 1; n <= w.SectionCount(); n++ {
				res, err := Simulate(context.Background(), w, testConfig(n))
				Expect(err).NotTo(HaveOccurred())

				for _, profile := range res.Final {
					for _, h := range profile {
						Expect(h).To(Equal(wall.MaxHeight))
					}
				}

				perProfile := make([]int, len(w))
				entries, err := res.Log.Entries()
				Expect(err).NotTo(HaveOccurred())
				for _, e := range entries {
					perProfile[e.Profile]++
				}
				for p, profile := range w {
					Expect(perProfile[p]).To(Equal(profile.RemainingFeet()), "profile %d crews %d", p, n)
				}
				Expect(res.Completions).To(HaveLen(unfinished))
			}
		}
	})

	It("hands out sections in ascending order", func() {
		for i := 0; i < 10; i++ {
			w := randomWall(rng)
			order := make([]wall.SectionRef, 0)
			for _, sec := range wall.NewState(w).Unfinished() {
				order = append(order, sec.Ref)
			}

			cfg := testConfig(1 + rng.Intn(3))
			s, err := New(w, cfg)
			Expect(err).NotTo(HaveOccurred())
			s.AddObserver(ObserverFunc(func(int, []progress.Entry) {
				pending := s.Pending()
				Expect(pending).To(HaveExactElements(order[len(order)-len(pending):]))
			}))

			_, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("records one entry per working crew per day", func() {
		for _, n := range []int{1, 2, 3} {
			s, err := New(exampleWall, testConfig(n))
			Expect(err).NotTo(HaveOccurred())

			// assignments made before a day are the ones that day must cover
			snapshot := func() map[int]wall.SectionRef {
				assigned := make(map[int]wall.SectionRef)
				for _, c := range s.Crews() {
					if ref, ok := c.Status.Assigned(); ok {
						assigned[c.ID] = ref
					}
				}
				return assigned
			}
			working := snapshot()

			s.AddObserver(ObserverFunc(func(day int, entries []progress.Entry) {
				Expect(entries).To(HaveLen(len(working)), "day %d crews %d", day, n)
				for _, e := range entries {
					Expect(e.Day).To(Equal(day))
					ref, ok := working[e.Crew]
					Expect(ok).To(BeTrue(), "crew %d was not working on day %d", e.Crew, day)
					Expect(e.Ref()).To(Equal(ref))
					delete(working, e.Crew)
				}
				Expect(working).To(BeEmpty())
				working = snapshot()
			}))

			_, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(working).To(BeEmpty())
		}
	})

	It("runs the same schedule through worker processes", func() {
		cfg := testConfig(2)
		cfg.Executor = testProcessExecutor(0)
		proc, err := Simulate(context.Background(), exampleWall, cfg)
		Expect(err).NotTo(HaveOccurred())

		inproc, err := Simulate(context.Background(), exampleWall, testConfig(2))
		Expect(err).NotTo(HaveOccurred())

		Expect(proc.Completions).To(Equal(inproc.Completions))
		Expect(profileHeightsByDay(exampleWall, proc.Log)).To(Equal(profileHeightsByDay(exampleWall, inproc.Log)))
	})
})
