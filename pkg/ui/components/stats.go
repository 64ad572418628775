package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds the counters of the last run.
type Stats struct {
	RunID           string
	Runs            int
	Pairs           int
	Evaluated       int
	Insufficient    int
	Profitable      int
	Duration        time.Duration
	ReferenceUSD    float64
	ReferenceSource string
	FinishedAt      time.Time
}

// StatsComponent renders run statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)

	if s.stats.Runs == 0 {
		return style.Render("STATS") + "\n" + style.Render("No run finished yet")
	}

	refStyle := valueStyle
	if s.stats.ReferenceSource == "fallback" {
		refStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Runs: %s  │  Pairs: %s  │  Evaluated: %s  │  Insufficient: %s  │  Profitable: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Runs)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Pairs)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Evaluated)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Insufficient)),
			profitStyle.Render(fmt.Sprintf("%d", s.stats.Profitable)),
		) +
		fmt.Sprintf("SOL: %s (%s)  │  Took: %s  │  Run: %s",
			refStyle.Render(fmt.Sprintf("$%.2f", s.stats.ReferenceUSD)),
			s.stats.ReferenceSource,
			valueStyle.Render(s.stats.Duration.Round(time.Millisecond).String()),
			style.Render(shortID(s.stats.RunID)),
		)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
