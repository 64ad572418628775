package infra

import (
	"context"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/dex-arbitrage-scanner/pkg/ui"
)

// TUIReporter implements Reporter for the Bubble Tea TUI. The program itself
// is owned by main; reports are delivered as messages.
type TUIReporter struct {
	send func(msg any)
}

// NewTUIReporter creates a TUIReporter that delivers to the running program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: func(msg any) { ui.Send(msg) }}
}

func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.ScanStartedMsg{})
	return nil
}

// Report sends the run to the TUI and marks the next scan as started.
func (r *TUIReporter) Report(ctx context.Context, rep *app.Report) error {
	r.send(ui.ReportMsg{Report: rep})
	return nil
}

// Error surfaces a failed scan in the error panel.
func (r *TUIReporter) Error(err error) {
	r.send(ui.ErrorMsg{Error: err})
}

func (r *TUIReporter) Stop() error {
	return nil
}
