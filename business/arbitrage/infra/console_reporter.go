// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/dex-arbitrage-scanner/pkg/ui/components"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	profitStyle = cellStyle.Foreground(lipgloss.Color("#10B981")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to out, or stdout when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	return nil
}

// Report prints the ranked opportunities, the advisories and today's trends.
func (r *ConsoleReporter) Report(ctx context.Context, rep *app.Report) error {
	fmt.Fprintln(r.out, headerStyle.Render("Solana DEX Arbitrage Scan"))
	fmt.Fprintf(r.out, "run %s  %s  SOL $%.2f (%s)\n",
		rep.RunID, rep.StartedAt.UTC().Format(time.RFC3339), rep.Reference.USD, rep.Reference.Source)
	fmt.Fprintf(r.out, "pairs %d  evaluated %d  insufficient %d  profitable %d  in %s\n\n",
		rep.Pairs, rep.Evaluated, rep.Insufficient, rep.Profitable, rep.Duration.Round(time.Millisecond))

	if len(rep.Opportunities) == 0 {
		fmt.Fprintln(r.out, mutedStyle.Render("No pair was quoted by two venues."))
		return nil
	}

	fmt.Fprintln(r.out, OpportunityTable(rep))
	fmt.Fprintln(r.out)

	for _, opp := range rep.Opportunities {
		if opp.Advisory != nil {
			fmt.Fprintln(r.out, components.Detail(opp))
		}
	}

	if len(rep.Trends) > 0 {
		fmt.Fprintln(r.out, trendTable(rep))
	}
	return nil
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	return nil
}

// OpportunityTable renders the ranked opportunities with profitable rows highlighted.
func OpportunityTable(rep *app.Report) string {
	rows := components.Rows(rep.Opportunities)
	data := make([][]string, len(rows))
	for i, row := range rows {
		data[i] = []string(row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(components.Headers()...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(rep.Opportunities) && rep.Opportunities[row].Profitable {
				return profitStyle
			}
			return cellStyle
		})
	return t.Render()
}

func trendTable(rep *app.Report) string {
	tokens := make([]string, 0, len(rep.Trends))
	for tok := range rep.Trends {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Token", "Points", "Mean %", "Max %", "Min %", "Volatility", "Now/Mean").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, tok := range tokens {
		s := rep.Trends[tok]
		t.Row(
			s.Token,
			fmt.Sprintf("%d", s.DataPoints),
			fmt.Sprintf("%.4f", s.MeanSpreadPct),
			fmt.Sprintf("%.4f", s.MaxSpreadPct),
			fmt.Sprintf("%.4f", s.MinSpreadPct),
			fmt.Sprintf("%.4f", s.Volatility),
			fmt.Sprintf("%.2f", s.CurrentVsMean),
		)
	}
	return t.Render()
}
