// Package publicauth serves sign-in, registration and sign-out.
package publicauth

import (
	"log"
	"net/http"
	"time"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/publichandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// Config configures the auth module.
type Config struct {
	// SessionTTL sets the session cookie Max-Age. Zero issues a browser-session cookie.
	SessionTTL time.Duration
	OTPTTL     time.Duration
	Logger     *log.Logger
}

// Module provides passkey, phone code and logout routes.
type Module struct {
	deps    module.Dependencies
	gateway AuthGateway
	config  Config
}

// New returns an auth module. A nil gateway reports the service as unavailable.
func New(deps module.Dependencies, gateway AuthGateway, config Config) Module {
	if gateway == nil {
		gateway = unavailableGateway{}
	}
	return Module{deps: deps, gateway: gateway, config: config}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string { return "publicauth" }

// Mount wires auth routes under the auth prefix.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(publichandler.NewBase(m.deps), m.gateway, m.config))
	return module.Mount{Prefix: routepath.AuthPrefix, Handler: mux}, nil
}
