package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Prefix namespaces every Casa Norte environment variable.
const Prefix = "CASA_NORTE_"

// ParseEnv loads configuration from environment variables.
//
// Struct tags are read without a prefix; callers spell out the full
// CASA_NORTE_ name so the variables stay greppable.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvMap loads configuration from an explicit environment map instead
// of the process environment.
func ParseEnvMap(target any, environment map[string]string) error {
	if err := env.ParseWithOptions(target, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
