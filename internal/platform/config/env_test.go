package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Addr    string        `env:"CASA_NORTE_TEST_ADDR" envDefault:"localhost:8080"`
	Timeout time.Duration `env:"CASA_NORTE_TEST_TIMEOUT" envDefault:"10s"`
	Targets []string      `env:"CASA_NORTE_TEST_TARGETS" envSeparator:","`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "localhost:8080" {
		t.Fatalf("Addr = %q, want %q", cfg.Addr, "localhost:8080")
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("Timeout = %v, want %v", cfg.Timeout, 10*time.Second)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("CASA_NORTE_TEST_TIMEOUT", "soon")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvMapSplitsLists(t *testing.T) {
	t.Parallel()

	var cfg envTestConfig
	err := ParseEnvMap(&cfg, map[string]string{
		"CASA_NORTE_TEST_ADDR":    "0.0.0.0:9000",
		"CASA_NORTE_TEST_TARGETS": "https://a.example,grpc://b.example:9090",
	})
	if err != nil {
		t.Fatalf("parse env map: %v", err)
	}
	if cfg.Addr != "0.0.0.0:9000" {
		t.Fatalf("Addr = %q, want %q", cfg.Addr, "0.0.0.0:9000")
	}
	if len(cfg.Targets) != 2 || cfg.Targets[1] != "grpc://b.example:9090" {
		t.Fatalf("Targets = %v, want two entries", cfg.Targets)
	}
}
