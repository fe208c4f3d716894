package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/wall"
)

const (
	barWidth        = 30
	maxProfileRows  = 20
	maxEntryRows    = 8
	defaultInterval = 400 * time.Millisecond
)

type TickMsg time.Time

// Replay steps through a finished run one day at a time.
type Replay struct {
	agg      *aggregate.Aggregator
	heights  []wall.Configuration
	entries  [][]progress.Entry
	daily    []int
	day      int
	playing  bool
	theme    int
	showHelp bool
	width    int
	interval time.Duration
}

func NewReplay(w wall.Configuration, log progress.Log, interval time.Duration) (Replay, error) {
	agg, err := aggregate.New(w, log)
	if err != nil {
		return Replay{}, err
	}
	if interval <= 0 {
		interval = defaultInterval
	}

	r := Replay{
		agg:      agg,
		heights:  []wall.Configuration{w.Clone()},
		entries:  [][]progress.Entry{nil},
		width:    80,
		interval: interval,
	}

	state := wall.NewState(w)
	for day := 1; day <= log.Days(); day++ {
		entries, err := log.Day(day)
		if err != nil {
			return Replay{}, err
		}
		for _, e := range entries {
			if err := state.Apply(e.Ref(), e.Height); err != nil {
				return Replay{}, err
			}
		}
		r.heights = append(r.heights, state.Heights())
		r.entries = append(r.entries, entries)
	}
	for _, d := range agg.Overview() {
		r.daily = append(r.daily, d.Feet)
	}
	return r, nil
}

func (r Replay) Day() int  { return r.day }
func (r Replay) Days() int { return len(r.heights) - 1 }

func (r Replay) tick() tea.Cmd {
	return tea.Tick(r.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (r Replay) Init() tea.Cmd { return nil }

func (r Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return r.handleKey(msg)
	case tea.WindowSizeMsg:
		r.width = msg.Width
	case TickMsg:
		if !r.playing {
			return r, nil
		}
		if r.day < r.Days() {
			r.day++
		}
		if r.day >= r.Days() {
			r.playing = false
			return r, nil
		}
		return r, r.tick()
	}
	return r, nil
}

func (r Replay) handleKey(msg tea.KeyMsg) (Replay, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return r, tea.Quit
	case " ":
		r.playing = !r.playing
		if r.playing {
			if r.day >= r.Days() {
				r.day = 0
			}
			return r, r.tick()
		}
	case "right", "l":
		r.day = min(r.day+1, r.Days())
	case "left", "h":
		r.day = max(r.day-1, 0)
	case "home", "g":
		r.day = 0
	case "end", "G":
		r.day = r.Days()
	case "t":
		r.theme = (r.theme + 1) % len(Themes)
	case "?":
		r.showHelp = !r.showHelp
	}
	return r, nil
}

func (r Replay) View() string {
	theme := Themes[r.theme]
	accent := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)

	var b strings.Builder

	status := StatusPaused.Render("paused")
	if r.playing {
		status = StatusRunning.Render("playing")
	}
	fmt.Fprintf(&b, "%s  day %s/%d  %s\n", Title.Render("wallsim replay"), accent.Render(fmt.Sprint(r.day)), r.Days(), status)
	b.WriteString(Separator(min(r.width, 80)) + "\n")

	heights := r.heights[r.day]
	for p, profile := range heights {
		if p == maxProfileRows {
			fmt.Fprintf(&b, "%s\n", Subtle.Render(fmt.Sprintf("... %d more profiles", len(heights)-p)))
			break
		}
		sum := 0
		for _, h := range profile {
			sum += h
		}
		target := wall.MaxHeight * len(profile)
		line := fmt.Sprintf("%s %s %s",
			MetricLabel.Render(fmt.Sprintf("profile %-4d", p+1)),
			ProgressBar(float64(sum)/float64(target), barWidth, theme),
			MetricValue.Render(fmt.Sprintf("%d/%d ft", sum, target)))
		if r.day > 0 {
			if t, err := r.agg.ProfileDay(p, r.day); err == nil && t.Feet > 0 {
				line += Subtle.Render(fmt.Sprintf("  +%d", t.Feet))
			}
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if r.day > 0 {
		t, _ := r.agg.Day(r.day)
		fmt.Fprintf(&b, "%s %s  %s %s  %s %s\n",
			MetricLabel.Render("feet"), MetricValue.Render(fmt.Sprint(t.Feet)),
			MetricLabel.Render("ice"), MetricValue.Render(fmt.Sprintf("%d yd³", t.Ice)),
			MetricLabel.Render("cost"), MetricValue.Render(aggregate.FormatGold(t.Cost)))

		entries := r.entries[r.day]
		for i, e := range entries {
			if i == maxEntryRows {
				b.WriteString(Subtle.Render(fmt.Sprintf("  ... %d more crews", len(entries)-i)) + "\n")
				break
			}
			note := ""
			if e.Finished() {
				note = lipgloss.NewStyle().Foreground(theme.Success).Render("  finished")
			}
			fmt.Fprintf(&b, "  Crew-%d %s → %d ft%s\n", e.Crew, e.Ref(), e.Height, note)
		}
	} else {
		total := r.agg.Wall()
		fmt.Fprintf(&b, "%s %s  %s %s\n",
			MetricLabel.Render("to build"), MetricValue.Render(fmt.Sprintf("%d ft", total.Feet)),
			MetricLabel.Render("cost"), MetricValue.Render(aggregate.FormatGold(total.Cost)))
	}

	if len(r.daily) > 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Secondary).Render(Sparkline(r.daily)) + "\n")
	}

	if r.showHelp {
		b.WriteString("\n" + Panel.Render("space play/pause   ←/→ step   home/end jump\nt theme   ? help   q quit") + "\n")
	} else {
		b.WriteString("\n" + KeyHint.Render("? for help") + "\n")
	}
	return b.String()
}
