package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	historyDomain "github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
)

// TrendsComponent renders today's spread trends per token.
type TrendsComponent struct {
	trends []historyDomain.TrendStats
}

// NewTrendsComponent creates a new trends component.
func NewTrendsComponent() *TrendsComponent {
	return &TrendsComponent{}
}

// Update replaces the trends, ordered by token.
func (t *TrendsComponent) Update(trends map[string]historyDomain.TrendStats) {
	t.trends = t.trends[:0]
	for _, s := range trends {
		t.trends = append(t.trends, s)
	}
	sort.Slice(t.trends, func(i, j int) bool { return t.trends[i].Token < t.trends[j].Token })
}

// View renders the trends component.
func (t *TrendsComponent) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	hot := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var b strings.Builder
	b.WriteString(header.Render("TODAY'S SPREADS"))
	b.WriteString("\n\n")

	if len(t.trends) == 0 {
		b.WriteString(dim.Render("  Trends appear after 10 rounds per token"))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %-8s %6s %7s %7s %7s %7s\n", "Token", "N", "Mean", "Max", "σ", "Now/μ"))
	b.WriteString(dim.Render("  "+strings.Repeat("─", 48)) + "\n")
	for _, s := range t.trends {
		ratio := fmt.Sprintf("%7.2f", s.CurrentVsMean)
		if s.CurrentVsMean >= 1.5 {
			ratio = hot.Render(ratio)
		}
		b.WriteString(fmt.Sprintf("  %-8s %6d %6.3f%% %6.3f%% %7.3f %s\n",
			s.Token, s.DataPoints, s.MeanSpreadPct, s.MaxSpreadPct, s.Volatility, ratio))
	}
	return b.String()
}
