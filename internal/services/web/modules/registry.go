package modules

import (
	"github.com/casanorte/casanorte/internal/services/web/modules/dashboard"
	"github.com/casanorte/casanorte/internal/services/web/modules/invites"
	"github.com/casanorte/casanorte/internal/services/web/modules/modals"
	"github.com/casanorte/casanorte/internal/services/web/modules/onboarding"
	"github.com/casanorte/casanorte/internal/services/web/modules/public"
	"github.com/casanorte/casanorte/internal/services/web/modules/publicauth"
	"github.com/casanorte/casanorte/internal/services/web/modules/publicinvites"
	"github.com/casanorte/casanorte/internal/services/web/modules/settings"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// PublicModules returns the unauthenticated web modules.
func PublicModules(deps Dependencies) []Module {
	return []Module{
		public.New(deps.Module, public.Config{
			UnderConstruction: deps.UnderConstruction,
			Logger:            deps.Logger,
		}),
		publicauth.New(deps.Module, authGateway(deps), publicauth.Config{
			SessionTTL: deps.Sessions.TTL(),
			Logger:     deps.Logger,
		}),
		publicinvites.New(deps.Module, publicInviteAPI(deps), inviteValidations(deps), publicinvites.Config{
			Now:    deps.Now,
			Logger: deps.Logger,
		}),
	}
}

// ProtectedModules returns the web modules mounted below /app/.
func ProtectedModules(deps Dependencies) []Module {
	return []Module{
		dashboard.New(deps.Module, healthSource(deps)),
		settings.New(deps.Module, settings.Config{
			Users:    userStore(deps),
			Profiles: profileCache(deps),
			Now:      deps.Now,
			Logger:   deps.Logger,
		}),
		invites.New(deps.Module, invites.Config{
			API:    inviteAPI(deps),
			Tokens: tokenIssuer(deps),
			Logger: deps.Logger,
		}),
		onboarding.New(deps.Module, onboarding.Config{
			Profiles: profileCompleter(deps),
			Users:    userStore(deps),
			Now:      deps.Now,
			Logger:   deps.Logger,
		}),
		modals.New(deps.Module),
	}
}

// The helpers below keep nil pointers from turning into non-nil interfaces.

func authGateway(deps Dependencies) publicauth.AuthGateway {
	cfg := publicauth.GatewayConfig{
		Passkeys: deps.Passkeys,
		Sessions: deps.Sessions,
		Now:      deps.Now,
		Logger:   deps.Logger,
	}
	if deps.Store != nil {
		cfg.Store = deps.Store
	}
	if deps.Identity != nil {
		cfg.Phones = deps.Identity
	}
	if deps.Profiles != nil {
		cfg.Profiles = deps.Profiles
	}
	return publicauth.NewGateway(cfg)
}

func publicInviteAPI(deps Dependencies) publicinvites.InviteAPI {
	if deps.API == nil {
		return nil
	}
	return deps.API
}

func inviteAPI(deps Dependencies) invites.InviteAPI {
	if deps.API == nil {
		return nil
	}
	return deps.API
}

func inviteValidations(deps Dependencies) storage.InviteValidationStore {
	if deps.Store == nil {
		return nil
	}
	return deps.Store
}

func userStore(deps Dependencies) storage.UserStore {
	if deps.Store == nil {
		return nil
	}
	return deps.Store
}

func tokenIssuer(deps Dependencies) invites.TokenIssuer {
	if deps.Tokens == nil {
		return nil
	}
	return deps.Tokens
}

func profileCache(deps Dependencies) settings.ProfileCache {
	if deps.Profiles == nil {
		return nil
	}
	return deps.Profiles
}

func profileCompleter(deps Dependencies) onboarding.ProfileCompleter {
	if deps.Profiles == nil {
		return nil
	}
	return deps.Profiles
}

func healthSource(deps Dependencies) dashboard.HealthSource {
	if deps.Health == nil {
		return nil
	}
	return deps.Health
}
