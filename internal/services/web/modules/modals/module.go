// Package modals exposes the endpoint dialogs post to when they are dismissed.
package modals

import (
	"net/http"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// Module provides modal close routes.
type Module struct {
	deps module.Dependencies
}

// New returns a modals module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string { return "modals" }

// Mount wires modal routes under the modals prefix.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, handlers{Base: modulehandler.NewBase(m.deps)})
	return module.Mount{Prefix: routepath.ModalsPrefix, Handler: mux}, nil
}
