package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
)

func keyPress(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func emptyReport(runID string) *app.Report {
	return &app.Report{
		RunID:     runID,
		StartedAt: time.Now(),
		Reference: pricingDomain.ReferencePrice{USD: 150, Source: "binance"},
		Pairs:     3,
	}
}

func TestModel_ReportSwitchesToDashboard(t *testing.T) {
	m := New(10 * time.Second)
	if m.phase != PhaseStartup {
		t.Fatalf("phase = %v, want startup", m.phase)
	}

	m = step(t, m, ReportMsg{Report: emptyReport("run-1")})

	if m.phase != PhaseDashboard {
		t.Errorf("phase = %v, want dashboard", m.phase)
	}
	if m.runs != 1 || m.last == nil || m.last.RunID != "run-1" {
		t.Errorf("runs = %d, last = %v", m.runs, m.last)
	}
	if m.scanning {
		t.Error("scanning flag should clear on report")
	}
}

func TestModel_PausedKeepsLastReport(t *testing.T) {
	m := New(time.Second)
	m = step(t, m, ReportMsg{Report: emptyReport("run-1")})
	m = step(t, m, keyPress("p"))
	if !m.paused {
		t.Fatal("pause key did not pause")
	}

	m = step(t, m, ReportMsg{Report: emptyReport("run-2")})
	if m.last.RunID != "run-1" {
		t.Errorf("paused model applied %s", m.last.RunID)
	}
	if m.runs != 2 {
		t.Errorf("runs = %d, want 2 (runs are counted while paused)", m.runs)
	}

	m = step(t, m, keyPress("p"))
	m = step(t, m, ReportMsg{Report: emptyReport("run-3")})
	if m.last.RunID != "run-3" {
		t.Errorf("resumed model shows %s", m.last.RunID)
	}
}

func TestModel_ErrorsAreCapped(t *testing.T) {
	m := New(time.Second)
	for i := range 5 {
		m = step(t, m, ErrorMsg{Error: fmt.Errorf("failure %d", i)})
	}

	if len(m.errors) != maxErrors {
		t.Fatalf("errors = %d, want %d", len(m.errors), maxErrors)
	}
	if m.errors[0].Message != "failure 2" || m.errors[maxErrors-1].Message != "failure 4" {
		t.Errorf("kept %v, want the latest", m.errors)
	}

	m = step(t, m, keyPress("e"))
	if len(m.errors) != 0 {
		t.Errorf("clear key left %d errors", len(m.errors))
	}
}

func TestModel_Quit(t *testing.T) {
	m := New(time.Second)
	next, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("quit key returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key should produce tea.QuitMsg")
	}
	if !next.(Model).quitting {
		t.Error("quitting flag not set")
	}
}

func TestModel_ViewShowsErrors(t *testing.T) {
	m := New(time.Second)
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = step(t, m, ReportMsg{Report: emptyReport("run-1")})
	m = step(t, m, ErrorMsg{Error: errors.New("raydium unavailable")})

	if view := m.View(); !strings.Contains(view, "raydium unavailable") {
		t.Errorf("view does not show the error:\n%s", view)
	}
}
