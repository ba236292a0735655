// Package public serves the unauthenticated marketing pages.
package public

import (
	"log"
	"net/http"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/publichandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// Config configures the public module.
type Config struct {
	UnderConstruction bool
	Logger            *log.Logger
}

// Module provides the landing, contact, and liveness routes.
type Module struct {
	deps   module.Dependencies
	config Config
}

// New returns a public module.
func New(deps module.Dependencies, config Config) Module {
	return Module{deps: deps, config: config}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string { return "public" }

// Mount wires public routes under the root prefix.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	h := newHandlers(publichandler.NewBase(m.deps), newService(m.config.Logger), m.config.UnderConstruction)
	registerRoutes(mux, h)
	return module.Mount{Prefix: routepath.Root, Handler: mux}, nil
}
