// Package onboarding walks review-required users through the onboarding
// dialog and completes their profile.
package onboarding

import (
	"log"
	"net/http"
	"time"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// Config configures the onboarding module.
type Config struct {
	Profiles ProfileCompleter
	Users    storage.UserStore
	Now      func() time.Time
	Logger   *log.Logger
}

// Module provides onboarding step and completion routes.
type Module struct {
	deps   module.Dependencies
	config Config
}

// New returns an onboarding module.
func New(deps module.Dependencies, config Config) Module {
	return Module{deps: deps, config: config}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string { return "onboarding" }

// Mount wires onboarding routes under the onboarding prefix.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(modulehandler.NewBase(m.deps), newService(m.config)))
	return module.Mount{Prefix: routepath.OnboardingPrefix, Handler: mux}, nil
}
