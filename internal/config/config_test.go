package config

import (
	"strings"
	"testing"

	"github.com/xtding233/progression-core/internal/ledger"
)

func TestLoadServerEnvDefaults(t *testing.T) {
	cfg, err := LoadServerEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.GRPCAddr != ":9090" {
		t.Fatalf("addrs: %q %q", cfg.HTTPAddr, cfg.GRPCAddr)
	}
	if cfg.Store != StoreSQLite || cfg.DBPath != "data/progression.db" {
		t.Fatalf("store: %q %q", cfg.Store, cfg.DBPath)
	}
	if cfg.Lock() != ledger.LockReject || cfg.RNGSeed != 0 || cfg.OTelEndpoint != "" || cfg.TraceSampleRatio != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadServerEnvOverrides(t *testing.T) {
	t.Setenv("PROGRESSION_STORE", " Memory ")
	t.Setenv("PROGRESSION_LOCK_MODE", "WAIT")
	t.Setenv("PROGRESSION_RNG_SEED", "42")
	t.Setenv("PROGRESSION_CATALOG_PATH", "/etc/progression/banner.yaml")

	cfg, err := LoadServerEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.Lock() != ledger.LockWait || cfg.RNGSeed != 42 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.CatalogPath != "/etc/progression/banner.yaml" {
		t.Fatalf("catalog path: %q", cfg.CatalogPath)
	}
}

func TestLoadServerEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"store", "PROGRESSION_STORE", "redis", "PROGRESSION_STORE"},
		{"lock", "PROGRESSION_LOCK_MODE", "spin", "PROGRESSION_LOCK_MODE"},
		{"seed", "PROGRESSION_RNG_SEED", "-1", "parse env:"},
		{"sample ratio", "PROGRESSION_TRACE_SAMPLE_RATIO", "1.5", "PROGRESSION_TRACE_SAMPLE_RATIO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadServerEnv()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("want error containing %q, got %v", tt.want, err)
			}
		})
	}
}
