// Package app composes web modules into the root HTTP handler.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/requestmeta"
	"github.com/casanorte/casanorte/internal/services/web/platform/sessioncookie"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	AuthRequired        func(*http.Request) bool
	PublicModules       []module.Module
	ProtectedModules    []module.Module
	RequestSchemePolicy requestmeta.SchemePolicy
}

// Compose builds a root HTTP handler from module groups. Protected modules
// must live under /app/ and are wrapped with the sign-in redirect and the
// same-origin check for cookie mutations.
func Compose(input ComposeInput) (http.Handler, error) {
	authenticated := input.AuthRequired
	if authenticated == nil {
		authenticated = func(*http.Request) bool { return false }
	}
	c := &composer{
		mux:    http.NewServeMux(),
		owners: map[string]string{},
		guard: func(next http.Handler) http.Handler {
			return signInRequired(authenticated, sameOriginMutations(input.RequestSchemePolicy, next))
		},
	}

	for _, feature := range input.PublicModules {
		if err := c.addPublic(feature); err != nil {
			return nil, err
		}
	}
	for _, feature := range input.ProtectedModules {
		if err := c.addProtected(feature); err != nil {
			return nil, err
		}
	}
	return c.mux, nil
}

type composer struct {
	mux    *http.ServeMux
	owners map[string]string
	guard  func(http.Handler) http.Handler
}

func (c *composer) addPublic(feature module.Module) error {
	if feature == nil {
		return errors.New("public module is nil")
	}
	mount, err := mountOf(feature)
	if err != nil {
		return err
	}
	if strings.HasPrefix(mount.Prefix, routepath.AppPrefix) {
		return fmt.Errorf("module %q has protected prefix %q in public group", feature.ID(), mount.Prefix)
	}
	return c.handle(feature.ID(), mount.Prefix, mount.Handler)
}

func (c *composer) addProtected(feature module.Module) error {
	if feature == nil {
		return errors.New("protected module is nil")
	}
	mount, err := mountOf(feature)
	if err != nil {
		return err
	}
	if mount.Prefix == routepath.AppPrefix || !strings.HasPrefix(mount.Prefix, routepath.AppPrefix) {
		return fmt.Errorf("module %q must mount below %s, got %q", feature.ID(), routepath.AppPrefix, mount.Prefix)
	}
	guarded := c.guard(mount.Handler)
	if err := c.handle(feature.ID(), mount.Prefix, guarded); err != nil {
		return err
	}
	// Without the bare pattern "/app/dashboard" falls through to the public root.
	return c.handle(feature.ID(), strings.TrimSuffix(mount.Prefix, "/"), guarded)
}

func (c *composer) handle(id, pattern string, handler http.Handler) error {
	if owner, taken := c.owners[pattern]; taken {
		return fmt.Errorf("module %q duplicates prefix %q owned by module %q", id, pattern, owner)
	}
	c.owners[pattern] = id
	c.mux.Handle(pattern, handler)
	return nil
}

func mountOf(feature module.Module) (module.Mount, error) {
	mount, err := feature.Mount()
	if err != nil {
		return module.Mount{}, fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	if err := checkPrefix(mount.Prefix); err != nil {
		return module.Mount{}, fmt.Errorf("mount module %q has invalid prefix %q: %w", feature.ID(), mount.Prefix, err)
	}
	if mount.Handler == nil {
		return module.Mount{}, fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	return mount, nil
}

func checkPrefix(prefix string) error {
	switch {
	case prefix == "":
		return errors.New("prefix is required")
	case strings.TrimSpace(prefix) != prefix:
		return errors.New("prefix has surrounding whitespace")
	case !strings.HasPrefix(prefix, "/"), !strings.HasSuffix(prefix, "/"):
		return errors.New("prefix must start and end with /")
	}
	return nil
}

func signInRequired(authenticated func(*http.Request) bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authenticated(r) {
			next.ServeHTTP(w, r)
			return
		}
		// Only GET destinations are replayed after sign-in.
		returnTo := ""
		if r.Method == http.MethodGet && r.URL != nil {
			returnTo = r.URL.RequestURI()
		}
		httpx.WriteRedirect(w, r, routepath.LoginWithRedirect(returnTo))
	})
}

func sameOriginMutations(policy requestmeta.SchemePolicy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mutates(r.Method) {
			if _, hasSession := sessioncookie.Read(r); hasSession && !requestmeta.HasSameOriginProofWithPolicy(r, policy) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func mutates(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
