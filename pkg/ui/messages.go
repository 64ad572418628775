package ui

import (
	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
)

// Message types for TUI updates

// ScanStartedMsg is sent when a run begins.
type ScanStartedMsg struct{}

// ReportMsg carries a finished run.
type ReportMsg struct {
	Report *app.Report
}

// ErrorMsg is sent when a run fails outright.
type ErrorMsg struct {
	Error error
}
