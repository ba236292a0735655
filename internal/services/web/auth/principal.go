package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/sessioncookie"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// ProfileSource supplies the remote profile for a signed-in user.
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (casanorteapi.Profile, error)
}

type requestPrincipalState struct {
	userIDOnce sync.Once
	userID     string
	viewerOnce sync.Once
	viewer     module.Viewer
}

type requestPrincipalStateKey struct{}

// Principals resolves the signed-in user and viewer chrome for requests.
// Results are memoized per request when Middleware is installed.
type Principals struct {
	sessions *Sessions
	users    storage.UserStore
	profiles ProfileSource
	logger   *log.Logger
}

// NewPrincipals builds a resolver. profiles may be nil.
func NewPrincipals(sessions *Sessions, users storage.UserStore, profiles ProfileSource, logger *log.Logger) *Principals {
	if logger == nil {
		logger = log.Default()
	}
	return &Principals{sessions: sessions, users: users, profiles: profiles, logger: logger}
}

// Middleware installs per-request memoization for principal lookups.
func (p *Principals) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), requestPrincipalStateKey{}, &requestPrincipalState{})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Dependencies exposes the resolvers in the shape web modules consume.
func (p *Principals) Dependencies(base module.Dependencies) module.Dependencies {
	base.ResolveUserID = p.UserID
	base.ResolveSignedIn = p.SignedIn
	base.ResolveViewer = p.Viewer
	return base
}

// UserID returns the signed-in user id, or "".
func (p *Principals) UserID(r *http.Request) string {
	if state := stateFromRequest(r); state != nil {
		state.userIDOnce.Do(func() {
			state.userID = p.resolveUserID(r)
		})
		return state.userID
	}
	return p.resolveUserID(r)
}

// SignedIn reports whether r carries an active session.
func (p *Principals) SignedIn(r *http.Request) bool {
	return p.UserID(r) != ""
}

// Viewer returns chrome data for the signed-in user: the remote profile when
// hydration succeeds, the local account otherwise.
func (p *Principals) Viewer(r *http.Request) module.Viewer {
	if state := stateFromRequest(r); state != nil {
		state.viewerOnce.Do(func() {
			state.viewer = p.resolveViewer(r)
		})
		return state.viewer
	}
	return p.resolveViewer(r)
}

func (p *Principals) resolveUserID(r *http.Request) string {
	if p == nil || r == nil {
		return ""
	}
	token, ok := sessioncookie.Read(r)
	if !ok {
		return ""
	}
	session, err := p.sessions.Resolve(r.Context(), token)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			p.logger.Printf("resolve session path=%s err=%v", r.URL.Path, err)
		}
		return ""
	}
	return session.UserID
}

func (p *Principals) resolveViewer(r *http.Request) module.Viewer {
	userID := p.UserID(r)
	if userID == "" {
		return module.Viewer{}
	}
	viewer := module.Viewer{UserID: userID}
	if p.users != nil {
		user, err := p.users.GetUser(r.Context(), userID)
		if err == nil {
			viewer.FirstName = user.FirstName
			viewer.LastName = user.LastName
			viewer.Email = user.Email
			viewer.PhoneNumber = user.PhoneNumber
			viewer.Status = user.Status
			viewer.DisplayName = strings.TrimSpace(user.Username)
		} else if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Printf("load viewer user_id=%s err=%v", userID, err)
		}
	}
	if p.profiles != nil {
		if profile, err := p.profiles.Profile(r.Context(), userID); err == nil {
			mergeProfile(&viewer, profile)
		}
	}
	viewer.DisplayName = DisplayName(viewer)
	return viewer
}

func mergeProfile(viewer *module.Viewer, profile casanorteapi.Profile) {
	if v := strings.TrimSpace(profile.FirstName); v != "" {
		viewer.FirstName = v
	}
	if v := strings.TrimSpace(profile.LastName); v != "" {
		viewer.LastName = v
	}
	if v := strings.TrimSpace(profile.Email); v != "" {
		viewer.Email = v
	}
	if v := strings.TrimSpace(profile.PhoneNumber); v != "" {
		viewer.PhoneNumber = v
	}
	if v := strings.TrimSpace(profile.Status); v != "" {
		viewer.Status = v
	}
}

// DisplayName picks the greeting name: full name, then the existing display
// name, then email. It returns "" when nothing is known.
func DisplayName(viewer module.Viewer) string {
	full := strings.TrimSpace(strings.TrimSpace(viewer.FirstName) + " " + strings.TrimSpace(viewer.LastName))
	if full != "" {
		return full
	}
	if name := strings.TrimSpace(viewer.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(viewer.Email)
}

func stateFromRequest(r *http.Request) *requestPrincipalState {
	if r == nil {
		return nil
	}
	state, _ := r.Context().Value(requestPrincipalStateKey{}).(*requestPrincipalState)
	return state
}
