// Package web hosts the Casa Norte browser-facing service.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/casanorte/casanorte/internal/platform/timeouts"
	"github.com/casanorte/casanorte/internal/services/web/app"
	"github.com/casanorte/casanorte/internal/services/web/auth"
	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	"github.com/casanorte/casanorte/internal/services/web/integration/identity"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/modules"
	"github.com/casanorte/casanorte/internal/services/web/modules/dashboard"
	"github.com/casanorte/casanorte/internal/services/web/modules/onboarding"
	"github.com/casanorte/casanorte/internal/services/web/passkeys"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/observability"
	"github.com/casanorte/casanorte/internal/services/web/platform/requestmeta"
	"github.com/casanorte/casanorte/internal/services/web/profile"
	"github.com/casanorte/casanorte/internal/services/web/static"
	"github.com/casanorte/casanorte/internal/services/web/storage"
	"github.com/casanorte/casanorte/internal/services/web/storage/sqlite"
	"github.com/casanorte/casanorte/internal/services/web/transport/httpmux"
)

// DefaultModalSessionIdle is how long an untouched browser session keeps its modal host.
const DefaultModalSessionIdle = 12 * time.Hour

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr            string
	DBPath              string
	Dev                 bool
	TrustForwardedProto bool
	SessionSecret       string
	SessionTTL          time.Duration
	ModalSessionIdle    time.Duration

	APIBaseURL     string
	AuthAPIBaseURL string
	APITimeout     time.Duration
	Application    string

	IdentityBaseURL string
	IdentityAPIKey  string

	UnderConstruction bool

	HealthTargets  []string
	HealthGRPCAddr string
	HealthInterval time.Duration
	HealthTimeout  time.Duration

	WebAuthn passkeys.Config

	Now    func() time.Time
	Logger *log.Logger
}

// Server hosts the web HTTP surface and its background maintenance.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	assembly   *assembly
}

// assembly holds the composed handler and the collaborators with lifecycles.
type assembly struct {
	handler    http.Handler
	store      storage.Store
	profiles   *profile.Hydrator
	modalHosts *modalhost.Registry
	health     *dashboard.Monitor
	modalIdle  time.Duration
	now        func() time.Time
	logger     *log.Logger
}

// NewServer validates config, opens storage and composes the handler.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open web store: %w", err)
	}
	rt, err := assemble(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           rt.handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		assembly: rt,
	}, nil
}

// NewHandler composes the root handler over store. Background work is not
// started; callers that need it use NewServer.
func NewHandler(cfg Config, store storage.Store) (http.Handler, error) {
	rt, err := assemble(cfg, store)
	if err != nil {
		return nil, err
	}
	return rt.handler, nil
}

func assemble(cfg Config, store storage.Store) (*assembly, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	policy := requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto}

	secret, err := sessionSecret(cfg, logger)
	if err != nil {
		return nil, err
	}
	keys, err := auth.DeriveKeys(secret)
	if err != nil {
		return nil, fmt.Errorf("derive session keys: %w", err)
	}
	application := strings.TrimSpace(cfg.Application)
	if application == "" {
		application = casanorteapi.DefaultApplication
	}
	tokens, err := auth.NewTokens(keys, application, now)
	if err != nil {
		return nil, fmt.Errorf("build token signer: %w", err)
	}
	sessions := auth.NewSessions(store, tokens, cfg.SessionTTL, now)

	passkeyService, err := passkeys.New(store, cfg.WebAuthn, now)
	if err != nil {
		return nil, fmt.Errorf("configure passkeys: %w", err)
	}

	api, err := apiClient(cfg, application, logger)
	if err != nil {
		return nil, err
	}
	phones, err := identityClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	var profileAPI profile.API
	if api != nil {
		profileAPI = api
	}
	hydrator := profile.NewHydrator(profileAPI, tokens, now, logger)
	principals := auth.NewPrincipals(sessions, store, hydrator, logger)

	health := dashboard.NewMonitor(dashboard.MonitorConfig{
		Targets:  cfg.HealthTargets,
		GRPCAddr: cfg.HealthGRPCAddr,
		Interval: cfg.HealthInterval,
		Timeout:  cfg.HealthTimeout,
		Now:      now,
		Logger:   logger,
	})

	moduleDeps := principals.Dependencies(module.Dependencies{SchemePolicy: policy})
	registryDeps := modules.Dependencies{
		Module:            moduleDeps,
		Store:             store,
		Passkeys:          passkeyService,
		Sessions:          sessions,
		Tokens:            tokens,
		Profiles:          hydrator,
		API:               api,
		Identity:          phones,
		Health:            health,
		UnderConstruction: cfg.UnderConstruction,
		Now:               now,
		Logger:            logger,
	}
	composed, err := app.Compose(app.ComposeInput{
		AuthRequired:        principals.SignedIn,
		PublicModules:       modules.PublicModules(registryDeps),
		ProtectedModules:    modules.ProtectedModules(registryDeps),
		RequestSchemePolicy: policy,
	})
	if err != nil {
		return nil, err
	}

	rootMux := http.NewServeMux()
	httpmux.MountStatic(rootMux, static.FS)
	rootMux.Handle("/", composed)

	modalHosts := modalhost.NewRegistry()
	handler := httpx.Chain(rootMux,
		httpx.RecoverPanic(logger),
		httpx.RequestID(),
		observability.RequestLogger(logger),
		observability.Tracing(),
		modalhost.Middleware(modalHosts, policy),
		principals.Middleware(),
		onboarding.Gate(principals.Viewer),
	)

	modalIdle := cfg.ModalSessionIdle
	if modalIdle <= 0 {
		modalIdle = DefaultModalSessionIdle
	}
	return &assembly{
		handler:    handler,
		store:      store,
		profiles:   hydrator,
		modalHosts: modalHosts,
		health:     health,
		modalIdle:  modalIdle,
		now:        now,
		logger:     logger,
	}, nil
}

// sessionSecret returns the configured secret. Dev mode without one signs
// with a per-process secret, so sessions end when the process restarts.
func sessionSecret(cfg Config, logger *log.Logger) (string, error) {
	if secret := strings.TrimSpace(cfg.SessionSecret); secret != "" {
		return secret, nil
	}
	if !cfg.Dev {
		return "", errors.New("session secret is required")
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate dev session secret: %w", err)
	}
	logger.Printf("session secret not set; using an ephemeral dev secret")
	return hex.EncodeToString(raw), nil
}

func apiClient(cfg Config, application string, logger *log.Logger) (*casanorteapi.Client, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		logger.Printf("casa norte api not configured; profile hydration and invites are unavailable")
		return nil, nil
	}
	client, err := casanorteapi.New(casanorteapi.Config{
		BaseURL:     cfg.APIBaseURL,
		AuthBaseURL: cfg.AuthAPIBaseURL,
		Application: application,
		Timeout:     cfg.APITimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configure casa norte api: %w", err)
	}
	return client, nil
}

func identityClient(cfg Config, logger *log.Logger) (*identity.Client, error) {
	if strings.TrimSpace(cfg.IdentityAPIKey) == "" {
		logger.Printf("identity provider not configured; phone sign-in is unavailable")
		return nil, nil
	}
	client, err := identity.New(identity.Config{
		BaseURL: cfg.IdentityBaseURL,
		APIKey:  cfg.IdentityAPIKey,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configure identity provider: %w", err)
	}
	return client, nil
}

// run drives background maintenance until ctx is done.
func (rt *assembly) run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		rt.modalHosts.RunSweeper(ctx, timeouts.MaintenanceInterval, rt.modalIdle)
	}()
	go func() {
		defer wg.Done()
		rt.purgeExpired(ctx)
	}()
	go func() {
		defer wg.Done()
		rt.health.Run(ctx)
	}()
	wg.Wait()
}

func (rt *assembly) purgeExpired(ctx context.Context) {
	ticker := time.NewTicker(timeouts.MaintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.purgeOnce(ctx)
		}
	}
}

func (rt *assembly) purgeOnce(ctx context.Context) {
	if err := rt.store.DeleteExpired(ctx, rt.now()); err != nil && ctx.Err() == nil {
		rt.logger.Printf("purge expired rows: %v", err)
	}
	if removed := rt.profiles.Prune(); removed > 0 {
		rt.logger.Printf("profile cache pruned removed=%d", removed)
	}
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	background := make(chan struct{})
	go func() {
		defer close(background)
		s.assembly.run(bgCtx)
	}()
	defer func() {
		stopBackground()
		<-background
	}()

	serveErr := make(chan error, 1)
	go func() {
		s.assembly.logger.Printf("web listening addr=%s", s.httpAddr)
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown web http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve web http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.assembly != nil {
		if err := s.assembly.health.Close(); err != nil {
			s.assembly.logger.Printf("close health monitor: %v", err)
		}
		if err := s.assembly.store.Close(); err != nil {
			s.assembly.logger.Printf("close web store: %v", err)
		}
	}
}
