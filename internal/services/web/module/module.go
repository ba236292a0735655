// Package module defines the feature contract used by web composition.
package module

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/platform/requestmeta"
)

// Viewer contains user-facing chrome data for authenticated app pages.
type Viewer struct {
	UserID      string
	DisplayName string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Status      string
}

// SignedIn reports whether the viewer belongs to an authenticated request.
func (v Viewer) SignedIn() bool {
	return v.UserID != ""
}

// ResolveViewer resolves app chrome viewer state for a request.
type ResolveViewer func(*http.Request) Viewer

// ResolveSignedIn reports whether the request is associated with a signed-in user.
type ResolveSignedIn func(*http.Request) bool

// ResolveUserID resolves the authenticated user id for a request.
type ResolveUserID func(*http.Request) string

// Dependencies carries request-scoped resolvers shared by all modules.
type Dependencies struct {
	ResolveViewer   ResolveViewer
	ResolveSignedIn ResolveSignedIn
	ResolveUserID   ResolveUserID
	SchemePolicy    requestmeta.SchemePolicy
}

// Viewer resolves the viewer, tolerating a missing resolver.
func (d Dependencies) Viewer(r *http.Request) Viewer {
	if d.ResolveViewer == nil || r == nil {
		return Viewer{}
	}
	return d.ResolveViewer(r)
}

// SignedIn resolves sign-in state, tolerating a missing resolver.
func (d Dependencies) SignedIn(r *http.Request) bool {
	if d.ResolveSignedIn == nil || r == nil {
		return false
	}
	return d.ResolveSignedIn(r)
}

// UserID resolves the user id, tolerating a missing resolver.
func (d Dependencies) UserID(r *http.Request) string {
	if d.ResolveUserID == nil || r == nil {
		return ""
	}
	return d.ResolveUserID(r)
}

// Mount describes a module route mount.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}
