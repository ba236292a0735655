// Package dashboard renders the signed-in home page and its domain health
// cards.
package dashboard

import (
	"net/http"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// Module provides authenticated dashboard routes.
type Module struct {
	deps   module.Dependencies
	health HealthSource
}

// New returns a dashboard module. health may be nil.
func New(deps module.Dependencies, health HealthSource) Module {
	return Module{deps: deps, health: health}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "dashboard" }

// Mount wires dashboard route handlers.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(modulehandler.NewBase(m.deps), newService(m.health)))
	return module.Mount{Prefix: routepath.DashboardPrefix, Handler: mux}, nil
}
