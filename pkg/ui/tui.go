package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseStartup   Phase = "startup"   // waiting for the first run
	PhaseDashboard Phase = "dashboard" // at least one report received
)

const maxErrors = 3

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	opportunities *components.OpportunitiesComponent
	stats         *components.StatsComponent
	trends        *components.TrendsComponent
	spinner       spinner.Model
	help          help.Model
	keys          KeyMap

	phase     Phase
	interval  time.Duration
	startedAt time.Time

	width    int
	height   int
	quitting bool
	paused   bool
	scanning bool
	runs     int
	last     *app.Report
	lastAt   time.Time
	errors   []ErrorEntry
}

// New creates a new TUI model. interval is shown as the time to the next run.
func New(interval time.Duration) Model {
	return Model{
		opportunities: components.NewOpportunitiesComponent(12),
		stats:         components.NewStatsComponent(),
		trends:        components.NewTrendsComponent(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(PositiveValue)),
		help:          help.New(),
		keys:          DefaultKeyMap(),
		phase:         PhaseStartup,
		interval:      interval,
		startedAt:     time.Now(),
		scanning:      true,
		errors:        make([]ErrorEntry, 0, maxErrors),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			return m, nil
		case key.Matches(msg, m.keys.Errors):
			m.errors = m.errors[:0]
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, m.opportunities.Update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ScanStartedMsg:
		m.scanning = true

	case ReportMsg:
		m.scanning = false
		if msg.Report == nil {
			return m, nil
		}
		m.runs++
		m.lastAt = time.Now()
		m.phase = PhaseDashboard
		if m.paused {
			return m, nil
		}
		m.apply(msg.Report)

	case ErrorMsg:
		m.scanning = false
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > maxErrors {
			m.errors = m.errors[len(m.errors)-maxErrors:]
		}
	}

	return m, nil
}

func (m *Model) apply(r *app.Report) {
	m.last = r
	m.opportunities.Set(r.Opportunities)
	m.trends.Update(r.Trends)
	m.stats.Update(components.Stats{
		RunID:           r.RunID,
		Runs:            m.runs,
		Pairs:           r.Pairs,
		Evaluated:       r.Evaluated,
		Insufficient:    r.Insufficient,
		Profitable:      r.Profitable,
		Duration:        r.Duration,
		ReferenceUSD:    r.Reference.USD,
		ReferenceSource: r.Reference.Source,
		FinishedAt:      m.lastAt,
	})
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if m.phase == PhaseStartup {
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Solana DEX Arbitrage Scanner "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	left := HeaderStyle.Render("RANKED OPPORTUNITIES") + "\n\n" + m.opportunities.View()
	right := m.trends.View() + "\n\n" + components.Detail(m.opportunities.Selected())

	if m.width > 120 {
		half := m.width/2 - 2
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(half+10).Render(left),
			BoxStyle.Width(half-10).Render(right),
		))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 80
		}
		b.WriteString(BoxStyle.Width(width).Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(right))
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(NegativeValue.Bold(true).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(NegativeValue.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderStartupScreen() string {
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  Solana DEX Arbitrage Scanner"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  %s Running first scan...\n\n", m.spinner.View()))
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startedAt).Round(time.Second))))
	sb.WriteString("\n")
	for _, err := range m.errors {
		sb.WriteString(NegativeValue.Render("  • " + err.Message))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.scanning {
		parts = append(parts, PositiveValue.Bold(true).Render(m.spinner.View()+" Scanning"))
	} else if !m.lastAt.IsZero() && m.interval > 0 {
		next := time.Until(m.lastAt.Add(m.interval)).Round(time.Second)
		if next < 0 {
			next = 0
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Next run in %s", next)))
	}

	if m.last != nil {
		ref := fmt.Sprintf("SOL $%.2f via %s", m.last.Reference.USD, m.last.Reference.Source)
		if m.last.Reference.Source == pricingDomain.ReferenceSourceFallback {
			parts = append(parts, WarningValue.Render(ref))
		} else {
			parts = append(parts, PositiveValue.Render(ref))
		}
	}

	if !m.lastAt.IsZero() {
		ago := time.Since(m.lastAt).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
