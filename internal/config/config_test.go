package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PG_DSN", "")
	t.Setenv("FREELANCE_CONFIG", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RECEIPTS_BUCKET", "")
	t.Setenv("AUTH_TOKEN_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Receipts.Bucket != "receipts" || cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Settings != nil {
		t.Fatalf("expected no settings seed")
	}
	if err := cfg.RequireJWTSecret(); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestLoad_StoreSelection(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PG_DSN", "")
	t.Setenv("FREELANCE_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.RequireDatabase(); err == nil {
		t.Fatalf("expected error without dsn")
	}
	t.Setenv("PG_DSN", "postgres://localhost/db")
	if cfg, err = Load(); err != nil || cfg.RequireDatabase() != nil {
		t.Fatalf("expected dsn from PG_DSN, got %v", err)
	}

	t.Setenv("STORE", "sqlite")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freelance.yaml")
	data := `store: memory
http_addr: ":9090"
token_ttl: 2h
receipts:
  root: /tmp/receipts
  public_url: https://files.example.com
settings:
  default_vat_rate_ppm: 200000
  urssaf_rate_ppm: 212000
  vat_declare_day: 12
  vat_pay_day: 20
  urssaf_pay_day: 5
  buffer_cents: 50000
  forecast_expense_vat_rate_ppm: 200000
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FREELANCE_CONFIG", path)
	t.Setenv("STORE", "")
	t.Setenv("RECEIPTS_BUCKET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.HTTPAddr != ":9090" || cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.Receipts.Root != "/tmp/receipts" || cfg.Receipts.Bucket != "receipts" {
		t.Fatalf("unexpected receipts config: %+v", cfg.Receipts)
	}
	if cfg.Settings == nil || cfg.Settings.URSSAFRatePPM != 212000 || cfg.Settings.BufferCents != 50000 {
		t.Fatalf("unexpected settings: %+v", cfg.Settings)
	}
	if lc := cfg.LoggerConfig(); lc.Level != "debug" || lc.Format != "json" {
		t.Fatalf("unexpected logger config: %+v", lc)
	}
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("store: memory\nsettings:\n  urssaf_rate_ppm: 5000000\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FREELANCE_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error")
	}
}
