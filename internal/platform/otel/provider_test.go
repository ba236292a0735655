package otel_test

import (
	"context"
	"testing"

	"github.com/casanorte/casanorte/internal/platform/otel"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CASA_NORTE_OTEL_ENDPOINT", "")
	t.Setenv("CASA_NORTE_OTEL_ENABLED", "")
	t.Setenv("CASA_NORTE_OTEL_SAMPLE_RATIO", "")

	cfg, err := otel.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.Enabled || cfg.SampleRatio != 1 {
		t.Fatalf("cfg = %+v, want enabled with ratio 1", cfg)
	}
	if cfg.Active() {
		t.Fatal("Active() = true without endpoint, want false")
	}
}

func TestLoadConfigRejectsBadRatio(t *testing.T) {
	for _, raw := range []string{"2", "-0.1", "half"} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("CASA_NORTE_OTEL_SAMPLE_RATIO", raw)
			if _, err := otel.LoadConfig(); err == nil {
				t.Fatalf("LoadConfig() with ratio %q error = nil, want error", raw)
			}
		})
	}
}

func TestSetupNoopWhenInactive(t *testing.T) {
	t.Parallel()

	for _, cfg := range []otel.Config{
		{Enabled: true},
		{Endpoint: "http://localhost:4318", Enabled: false, SampleRatio: 1},
	} {
		shutdown, err := otel.Setup(context.Background(), "casanorte-test", cfg)
		if err != nil {
			t.Fatalf("Setup(%+v) error = %v", cfg, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown error = %v", err)
		}
	}
}

func TestSetupCreatesProvider(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation, so nothing is exported.
	cfg := otel.Config{Endpoint: "http://192.0.2.1:4318", Enabled: true, SampleRatio: 0.25}
	shutdown, err := otel.Setup(context.Background(), "casanorte-test", cfg)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
}

func TestSetupRejectsBadRatio(t *testing.T) {
	t.Parallel()

	cfg := otel.Config{Endpoint: "http://192.0.2.1:4318", Enabled: true, SampleRatio: 3}
	if _, err := otel.Setup(context.Background(), "casanorte-test", cfg); err == nil {
		t.Fatal("Setup() error = nil, want ratio error")
	}
}
