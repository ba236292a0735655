// Package modules defines the web module registry.
package modules

import (
	"log"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/auth"
	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	"github.com/casanorte/casanorte/internal/services/web/integration/identity"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/modules/dashboard"
	"github.com/casanorte/casanorte/internal/services/web/passkeys"
	"github.com/casanorte/casanorte/internal/services/web/profile"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// Mount aliases the module mount contract.
type Mount = module.Mount

// Module aliases the module interface contract.
type Module = module.Module

// Dependencies carries the collaborators composed into the module registry.
// Request-scoped resolvers travel in Module; every other field may be nil,
// in which case the owning module reports its service as unavailable.
type Dependencies struct {
	Module module.Dependencies

	Store    storage.Store
	Passkeys *passkeys.Service
	Sessions *auth.Sessions
	Tokens   *auth.Tokens
	Profiles *profile.Hydrator
	API      *casanorteapi.Client
	Identity *identity.Client
	Health   *dashboard.Monitor

	UnderConstruction bool
	Now               func() time.Time
	Logger            *log.Logger
}
