package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// JSONExporter writes each report to a file, replacing the previous one.
type JSONExporter struct {
	path string
}

// NewJSONExporter creates an exporter for path.
func NewJSONExporter(path string) *JSONExporter {
	return &JSONExporter{path: path}
}

func (e *JSONExporter) Start(ctx context.Context) error {
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err), apperror.WithContext(e.path))
		}
	}
	return nil
}

// Report marshals r and swaps it into place with a rename.
func (e *JSONExporter) Report(ctx context.Context, r *app.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

func (e *JSONExporter) Stop() error {
	return nil
}
