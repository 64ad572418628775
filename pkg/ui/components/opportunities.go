// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/domain"
)

var opportunityColumns = []table.Column{
	{Title: "#", Width: 3},
	{Title: "Pair", Width: 12},
	{Title: "Buy", Width: 9},
	{Title: "Sell", Width: 9},
	{Title: "Diff %", Width: 8},
	{Title: "Fees %", Width: 7},
	{Title: "Adj %", Width: 8},
	{Title: "Δ USD", Width: 9},
	{Title: "Status", Width: 8},
}

// OpportunitiesComponent renders the ranked opportunities of the last run.
type OpportunitiesComponent struct {
	table table.Model
	opps  []*domain.Opportunity
}

// NewOpportunitiesComponent creates a new opportunities component.
func NewOpportunitiesComponent(height int) *OpportunitiesComponent {
	t := table.New(
		table.WithColumns(opportunityColumns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#374151")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#4C1D95")).
		Bold(false)
	t.SetStyles(s)

	return &OpportunitiesComponent{table: t}
}

// Set replaces the rows with an already ranked list.
func (o *OpportunitiesComponent) Set(opps []*domain.Opportunity) {
	o.opps = opps
	o.table.SetRows(Rows(opps))
	if o.table.Cursor() >= len(opps) {
		o.table.SetCursor(0)
	}
}

// Selected returns the highlighted opportunity, or nil.
func (o *OpportunitiesComponent) Selected() *domain.Opportunity {
	i := o.table.Cursor()
	if i < 0 || i >= len(o.opps) {
		return nil
	}
	return o.opps[i]
}

// Update forwards navigation keys to the table.
func (o *OpportunitiesComponent) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	o.table, cmd = o.table.Update(msg)
	return cmd
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	if len(o.opps) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("No pair reached two venues yet...")
	}
	return o.table.View()
}

// Rows formats opportunities as table rows. The console reporter shares it.
func Rows(opps []*domain.Opportunity) []table.Row {
	rows := make([]table.Row, 0, len(opps))
	for i, opp := range opps {
		status := "-"
		if opp.Profitable {
			status = "PROFIT"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			opp.PairName,
			string(opp.BuyVenue),
			string(opp.SellVenue),
			opp.DiffPct.StringFixed(3),
			opp.FeesPct.StringFixed(2),
			opp.AdjProfitPct.StringFixed(3),
			"$" + opp.DiffUSD.StringFixed(2),
			status,
		})
	}
	return rows
}

// Headers returns the column titles.
func Headers() []string {
	out := make([]string, len(opportunityColumns))
	for i, c := range opportunityColumns {
		out[i] = c.Title
	}
	return out
}

// Detail renders the advisory of one opportunity.
func Detail(opp *domain.Opportunity) string {
	if opp == nil {
		return ""
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	out := header.Render(opp.PairName) + "\n"
	out += fmt.Sprintf("  buy %s @ %s  sell %s @ %s\n",
		opp.BuyVenue, formatPrice(opp.BuyPrice), opp.SellVenue, formatPrice(opp.SellPrice))

	if opp.Advisory == nil {
		return out + muted.Render("  below threshold, no advisory")
	}

	out += fmt.Sprintf("  slippage: %s%%\n", opp.Advisory.SuggestedSlippagePct.StringFixed(2))
	for _, step := range opp.Advisory.Steps {
		out += fmt.Sprintf("  %d. %s\n", step.Number, step.Description)
	}
	for _, w := range opp.Advisory.Warnings {
		out += SeverityStyle(w.Severity).Render(fmt.Sprintf("  ! %s", w.Description)) + "\n"
	}
	return out
}

// SeverityStyle colours a risk severity.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "high":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	case "medium":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	}
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'g', 8, 64)
}
