// Package web parses web service configuration and launches the service.
package web

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/casanorte/casanorte/internal/platform/cmd"
	"github.com/casanorte/casanorte/internal/services/web"
	"github.com/casanorte/casanorte/internal/services/web/passkeys"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr            string        `env:"CASA_NORTE_WEB_HTTP_ADDR" envDefault:"localhost:8080"`
	DBPath              string        `env:"CASA_NORTE_WEB_DB_PATH" envDefault:"data/casanorte-web.db"`
	Dev                 bool          `env:"CASA_NORTE_WEB_DEV" envDefault:"false"`
	TrustForwardedProto bool          `env:"CASA_NORTE_WEB_TRUST_FORWARDED_PROTO" envDefault:"false"`
	SessionSecret       string        `env:"CASA_NORTE_WEB_SESSION_SECRET"`
	SessionTTL          time.Duration `env:"CASA_NORTE_WEB_SESSION_TTL" envDefault:"720h"`
	ModalSessionIdle    time.Duration `env:"CASA_NORTE_WEB_MODAL_SESSION_IDLE" envDefault:"12h"`

	APIBaseURL     string        `env:"CASA_NORTE_API_URL"`
	AuthAPIBaseURL string        `env:"CASA_NORTE_AUTH_API_URL"`
	APITimeout     time.Duration `env:"CASA_NORTE_API_TIMEOUT" envDefault:"10s"`
	Application    string        `env:"CASA_NORTE_APPLICATION" envDefault:"casa-norte"`

	IdentityBaseURL string `env:"CASA_NORTE_IDENTITY_URL"`
	IdentityAPIKey  string `env:"CASA_NORTE_IDENTITY_API_KEY"`

	UnderConstruction bool `env:"CASA_NORTE_UNDER_CONSTRUCTION" envDefault:"false"`

	HealthTargets  []string      `env:"CASA_NORTE_HEALTH_TARGETS" envSeparator:","`
	HealthGRPCAddr string        `env:"CASA_NORTE_HEALTH_GRPC_ADDR"`
	HealthInterval time.Duration `env:"CASA_NORTE_HEALTH_INTERVAL" envDefault:"30s"`
	HealthTimeout  time.Duration `env:"CASA_NORTE_HEALTH_TIMEOUT" envDefault:"5s"`

	WebAuthnRPID          string        `env:"CASA_NORTE_WEBAUTHN_RP_ID" envDefault:"localhost"`
	WebAuthnRPDisplayName string        `env:"CASA_NORTE_WEBAUTHN_RP_DISPLAY_NAME" envDefault:"Casa Norte"`
	WebAuthnRPOrigins     []string      `env:"CASA_NORTE_WEBAUTHN_RP_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`
	WebAuthnSessionTTL    time.Duration `env:"CASA_NORTE_WEBAUTHN_SESSION_TTL" envDefault:"5m"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.LoadEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev, "Allow an ephemeral session secret")
	fs.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "Casa Norte API base URL")
	fs.BoolVar(&cfg.UnderConstruction, "under-construction", cfg.UnderConstruction, "Serve the under construction landing page")
	if err := entrypoint.ParseFlags(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig maps command configuration onto the web server inputs.
func (cfg Config) ServerConfig() web.Config {
	return web.Config{
		HTTPAddr:            cfg.HTTPAddr,
		DBPath:              cfg.DBPath,
		Dev:                 cfg.Dev,
		TrustForwardedProto: cfg.TrustForwardedProto,
		SessionSecret:       cfg.SessionSecret,
		SessionTTL:          cfg.SessionTTL,
		ModalSessionIdle:    cfg.ModalSessionIdle,
		APIBaseURL:          cfg.APIBaseURL,
		AuthAPIBaseURL:      cfg.AuthAPIBaseURL,
		APITimeout:          cfg.APITimeout,
		Application:         cfg.Application,
		IdentityBaseURL:     cfg.IdentityBaseURL,
		IdentityAPIKey:      cfg.IdentityAPIKey,
		UnderConstruction:   cfg.UnderConstruction,
		HealthTargets:       trimAll(cfg.HealthTargets),
		HealthGRPCAddr:      cfg.HealthGRPCAddr,
		HealthInterval:      cfg.HealthInterval,
		HealthTimeout:       cfg.HealthTimeout,
		WebAuthn: passkeys.Config{
			RPID:          cfg.WebAuthnRPID,
			RPDisplayName: cfg.WebAuthnRPDisplayName,
			RPOrigins:     trimAll(cfg.WebAuthnRPOrigins),
			SessionTTL:    cfg.WebAuthnSessionTTL,
		},
	}
}

// Run starts the web server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.Run(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		server, err := web.NewServer(ctx, cfg.ServerConfig())
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
