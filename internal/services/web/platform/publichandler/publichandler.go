// Package publichandler provides a shared base for unauthenticated web module handlers.
// It centralizes error handling, localization, and page rendering that would
// otherwise be duplicated across public modules.
package publichandler

import (
	"net/http"

	"github.com/a-h/templ"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	webi18n "github.com/casanorte/casanorte/internal/services/web/platform/i18n"
	"github.com/casanorte/casanorte/internal/services/web/platform/pagerender"
	"github.com/casanorte/casanorte/internal/services/web/platform/requestmeta"
	"github.com/casanorte/casanorte/internal/services/web/platform/weberror"
)

// Base provides shared error handling and page rendering for public modules.
type Base struct {
	deps module.Dependencies
}

// NewBase builds a public handler base.
func NewBase(deps module.Dependencies) Base {
	return Base{deps: deps}
}

// IsViewerSignedIn reports whether the current request is authenticated.
func (b Base) IsViewerSignedIn(r *http.Request) bool {
	return b.deps.SignedIn(r)
}

// RequestUserID returns the signed-in user id, or "".
func (b Base) RequestUserID(r *http.Request) string {
	return b.deps.UserID(r)
}

// SchemePolicy returns the request scheme policy used for cookies.
func (b Base) SchemePolicy() requestmeta.SchemePolicy {
	return b.deps.SchemePolicy
}

// RequestLocalizer resolves a localizer without persisting the language choice.
func (Base) RequestLocalizer(r *http.Request) webi18n.Localizer {
	loc, _ := webi18n.RequestLocalizer(r)
	return loc
}

// WritePublicPage renders a full public page.
func (b Base) WritePublicPage(w http.ResponseWriter, r *http.Request, titleKey string, statusCode int, body templ.Component) {
	if err := pagerender.WritePublicPage(w, r, b.deps, pagerender.ModulePage{
		TitleKey:   titleKey,
		StatusCode: statusCode,
		Fragment:   body,
	}); err != nil {
		b.WriteError(w, r, err)
	}
}

// WriteNotFound renders a localized 404 page.
func (b Base) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteErrorPage(w, r, http.StatusNotFound, b.deps)
}

// WriteError renders a user-safe error response: error pages for not-found
// and server errors, plain-text status messages for everything else.
func (b Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err, b.deps)
}
