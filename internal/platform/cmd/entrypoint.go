// Package cmd holds the startup plumbing shared by Casa Norte commands:
// environment loading, flag parsing, and a telemetry-wrapped run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/casanorte/casanorte/internal/platform/config"
	"github.com/casanorte/casanorte/internal/platform/otel"
	"github.com/casanorte/casanorte/internal/platform/timeouts"
)

// ServiceWeb names the Casa Norte web process in telemetry and logs.
const ServiceWeb = "casanorte-web"

// LoadEnv fills cfg from CASA_NORTE_ environment variables. Call it before
// registering flags so flag defaults reflect the environment.
func LoadEnv[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseFlags parses args into fs.
func ParseFlags(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag set is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// Run executes run with tracing configured for service and flushes spans
// once it returns.
func Run(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	switch {
	case service == "":
		return errors.New("service name is required")
	case run == nil:
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	telemetry, err := otel.LoadConfig()
	if err != nil {
		return fmt.Errorf("load telemetry config: %w", err)
	}
	shutdown, err := otel.Setup(ctx, service, telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("service=%s telemetry shutdown: %v", service, err)
		}
	}()

	return run(ctx)
}
