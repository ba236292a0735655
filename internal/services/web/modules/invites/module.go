// Package invites lets signed-in staff create invites and share them.
package invites

import (
	"log"
	"net/http"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// Config configures the invites module.
type Config struct {
	API    InviteAPI
	Tokens TokenIssuer
	Logger *log.Logger
}

// Module provides invite management routes.
type Module struct {
	deps   module.Dependencies
	config Config
}

// New returns an invites module.
func New(deps module.Dependencies, config Config) Module {
	return Module{deps: deps, config: config}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "invites" }

// Mount wires invite route handlers.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(modulehandler.NewBase(m.deps), newService(m.config)))
	return module.Mount{Prefix: routepath.InvitesPrefix, Handler: mux}, nil
}
