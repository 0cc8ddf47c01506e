// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/xtding233/progression-core/internal/ledger"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// ServerEnv configures cmd/server.
type ServerEnv struct {
	HTTPAddr     string `env:"PROGRESSION_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr     string `env:"PROGRESSION_GRPC_ADDR" envDefault:":9090"`
	Store        string `env:"PROGRESSION_STORE" envDefault:"sqlite"`
	DBPath       string `env:"PROGRESSION_DB_PATH" envDefault:"data/progression.db"`
	CatalogPath  string `env:"PROGRESSION_CATALOG_PATH"`
	LockMode     string `env:"PROGRESSION_LOCK_MODE" envDefault:"reject"`
	RNGSeed      uint64 `env:"PROGRESSION_RNG_SEED" envDefault:"0"`
	OTelEndpoint string `env:"PROGRESSION_OTEL_ENDPOINT"`
	// TraceSampleRatio is the share of root traces exported.
	TraceSampleRatio float64 `env:"PROGRESSION_TRACE_SAMPLE_RATIO" envDefault:"1"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerEnv parses and validates ServerEnv.
func LoadServerEnv() (ServerEnv, error) {
	var cfg ServerEnv
	if err := ParseEnv(&cfg); err != nil {
		return ServerEnv{}, err
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.LockMode = strings.ToLower(strings.TrimSpace(cfg.LockMode))
	if err := cfg.Validate(); err != nil {
		return ServerEnv{}, err
	}
	return cfg, nil
}

func (c ServerEnv) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("PROGRESSION_DB_PATH is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("PROGRESSION_STORE must be %q or %q, got %q", StoreSQLite, StoreMemory, c.Store)
	}
	switch ledger.LockMode(c.LockMode) {
	case ledger.LockReject, ledger.LockWait:
	default:
		return fmt.Errorf("PROGRESSION_LOCK_MODE must be %q or %q, got %q", ledger.LockReject, ledger.LockWait, c.LockMode)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("PROGRESSION_TRACE_SAMPLE_RATIO must be in [0, 1], got %v", c.TraceSampleRatio)
	}
	return nil
}

// Lock returns the configured lock mode.
func (c ServerEnv) Lock() ledger.LockMode { return ledger.LockMode(c.LockMode) }
