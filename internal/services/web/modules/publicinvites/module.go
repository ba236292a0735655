// Package publicinvites serves the invitee side of team invites: the masked
// landing page, the last-four-digits check and the hand-off to registration.
package publicinvites

import (
	"log"
	"net/http"
	"time"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/publichandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// Config configures the public invites module.
type Config struct {
	ValidationTTL time.Duration
	Now           func() time.Time
	Logger        *log.Logger
}

// Module provides the public invite routes.
type Module struct {
	deps        module.Dependencies
	api         InviteAPI
	validations storage.InviteValidationStore
	config      Config
}

// New returns a public invites module. A nil api reports invites as unavailable.
func New(deps module.Dependencies, api InviteAPI, validations storage.InviteValidationStore, config Config) Module {
	return Module{deps: deps, api: api, validations: validations, config: config}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string { return "publicinvites" }

// Mount wires public invite routes under the invite prefix.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(publichandler.NewBase(m.deps), newService(m.api, m.validations, m.config)))
	return module.Mount{Prefix: routepath.InvitePrefix, Handler: mux}, nil
}
