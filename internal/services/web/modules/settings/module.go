// Package settings lets signed-in users edit their local account details.
package settings

import (
	"log"
	"net/http"
	"time"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// ProfileCache drops a cached profile after local edits.
type ProfileCache interface {
	Forget(userID string)
}

// Config configures the settings module.
type Config struct {
	Users    storage.UserStore
	Profiles ProfileCache
	Now      func() time.Time
	Logger   *log.Logger
}

// Module provides account settings routes.
type Module struct {
	deps   module.Dependencies
	config Config
}

// New returns a settings module.
func New(deps module.Dependencies, config Config) Module {
	return Module{deps: deps, config: config}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "settings" }

// Mount wires settings route handlers.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(modulehandler.NewBase(m.deps), newService(m.config)))
	return module.Mount{Prefix: routepath.SettingsPrefix, Handler: mux}, nil
}
