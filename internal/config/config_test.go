package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scan.MinProfitPct != 0.2 {
		t.Errorf("min_profit_pct = %v, want 0.2", cfg.Scan.MinProfitPct)
	}
	if cfg.Scan.NetworkFeePct != 0.02 {
		t.Errorf("network_fee_pct = %v, want 0.02", cfg.Scan.NetworkFeePct)
	}
	if cfg.Scan.Fees["meteora"] != 0.2 {
		t.Errorf("meteora fee = %v, want 0.2", cfg.Scan.Fees["meteora"])
	}
	if cfg.Raydium.CacheTTL != 600*time.Second {
		t.Errorf("cache_ttl = %v, want 600s", cfg.Raydium.CacheTTL)
	}
	if cfg.History.Cap != 1000 {
		t.Errorf("history.cap = %d, want 1000", cfg.History.Cap)
	}
	if cfg.Reference.FallbackUSD != 100 {
		t.Errorf("fallback_usd = %v, want 100", cfg.Reference.FallbackUSD)
	}
	if cfg.Scan.MaxPairs != 20 || cfg.Scan.MinLiquidity != 50000 {
		t.Errorf("discovery defaults = %d / %v", cfg.Scan.MaxPairs, cfg.Scan.MinLiquidity)
	}
	if want := []string{"jupiter", "raydium", "orca", "meteora"}; len(cfg.Scan.Venues) != len(want) {
		t.Errorf("venues = %v, want %v", cfg.Scan.Venues, want)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
scan:
  pairs: ["SOL/USDC", "SOL/BONK"]
  min_profit_pct: 0.5
  fees:
    jupiter: 0.1
history:
  dir: /tmp/hist
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Scan.Pairs) != 2 || cfg.Scan.Pairs[1] != "SOL/BONK" {
		t.Errorf("pairs = %v", cfg.Scan.Pairs)
	}
	if !cfg.Scan.MinProfitPctDecimal().Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("MinProfitPctDecimal = %s", cfg.Scan.MinProfitPctDecimal())
	}
	if fee := cfg.Scan.FeesDecimal()["jupiter"]; !fee.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("jupiter fee = %s, want 0.1", fee)
	}
	if cfg.History.Dir != "/tmp/hist" {
		t.Errorf("history.dir = %q", cfg.History.Dir)
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeConfigurationError)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Scan: ScanConfig{
				Concurrency:   2,
				RoundTimeout:  time.Second,
				MinProfitPct:  0.2,
				NetworkFeePct: 0.02,
				DefaultFeePct: 0.25,
				Fees:          map[string]float64{"jupiter": 0.25},
				Venues:        []string{"jupiter"},
			},
			Retry:     RetryConfig{MaxAttempts: 3},
			Reference: ReferenceConfig{FallbackUSD: 100},
			History:   HistoryConfig{Backend: HistoryBackendFile, Dir: "data", Cap: 1000},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "negative_fee", mutate: func(c *Config) { c.Scan.Fees["orca"] = -0.1 }, wantErr: true},
		{name: "negative_threshold", mutate: func(c *Config) { c.Scan.MinProfitPct = -1 }, wantErr: true},
		{name: "negative_network_fee", mutate: func(c *Config) { c.Scan.NetworkFeePct = -0.01 }, wantErr: true},
		{name: "zero_threshold_allowed", mutate: func(c *Config) { c.Scan.MinProfitPct = 0 }},
		{name: "no_venues", mutate: func(c *Config) { c.Scan.Venues = nil }, wantErr: true},
		{name: "unknown_venue", mutate: func(c *Config) { c.Scan.Venues = []string{"jupiter", "serum"} }, wantErr: true},
		{name: "venue_case_insensitive", mutate: func(c *Config) { c.Scan.Venues = []string{"Jupiter"} }},
		{name: "zero_concurrency", mutate: func(c *Config) { c.Scan.Concurrency = 0 }, wantErr: true},
		{name: "postgres_without_dsn", mutate: func(c *Config) { c.History.Backend = HistoryBackendPostgres }, wantErr: true},
		{name: "unknown_backend", mutate: func(c *Config) { c.History.Backend = "sqlite" }, wantErr: true},
		{name: "archive_without_bucket", mutate: func(c *Config) { c.History.Archive.Enabled = true }, wantErr: true},
		{name: "zero_fallback", mutate: func(c *Config) { c.Reference.FallbackUSD = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if apperror.GetCode(err) != apperror.CodeConfigurationError {
					t.Errorf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
