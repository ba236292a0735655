// Package modulehandler provides a composable base for protected web module handlers.
//
// Protected modules (those mounted under /app/) share user resolution,
// localization, modal host access, page rendering, and error handling. Modules
// embed Base rather than duplicating that scaffold.
package modulehandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	webi18n "github.com/casanorte/casanorte/internal/services/web/platform/i18n"
	"github.com/casanorte/casanorte/internal/services/web/platform/pagerender"
	"github.com/casanorte/casanorte/internal/services/web/platform/weberror"
)

// Base carries the shared request-scoped dependencies used by protected module handlers.
type Base struct {
	deps module.Dependencies
}

// NewBase builds a handler base from module dependencies.
func NewBase(deps module.Dependencies) Base {
	return Base{deps: deps}
}

// Dependencies returns the dependencies the base was built with.
func (b Base) Dependencies() module.Dependencies {
	return b.deps
}

// RequestViewer resolves app chrome viewer state for a request.
func (b Base) RequestViewer(r *http.Request) module.Viewer {
	return b.deps.Viewer(r)
}

// RequestUserID extracts the authenticated user ID from the request.
func (b Base) RequestUserID(r *http.Request) string {
	return strings.TrimSpace(b.deps.UserID(r))
}

// RequestContextAndUserID returns the request context with the authenticated user ID.
func (b Base) RequestContextAndUserID(r *http.Request) (context.Context, string) {
	return httpx.RequestContext(r), b.RequestUserID(r)
}

// RequestLocalizer resolves a localizer without persisting the language choice.
func (Base) RequestLocalizer(r *http.Request) webi18n.Localizer {
	loc, _ := webi18n.RequestLocalizer(r)
	return loc
}

// ModalHost returns the modal host bound to the request.
func (Base) ModalHost(r *http.Request) (*modalhost.Host, error) {
	return modalhost.FromContext(httpx.RequestContext(r))
}

// WritePage renders a module page (HTMX-aware) with the given title key and fragment.
func (b Base) WritePage(w http.ResponseWriter, r *http.Request, titleKey string, statusCode int, fragment templ.Component) {
	if err := pagerender.WriteModulePage(w, r, b.deps, pagerender.ModulePage{
		TitleKey:   titleKey,
		StatusCode: statusCode,
		Fragment:   fragment,
	}); err != nil {
		b.WriteError(w, r, err)
	}
}

// WriteFragment renders a bare HTMX fragment.
func (b Base) WriteFragment(w http.ResponseWriter, r *http.Request, statusCode int, fragment templ.Component) {
	if err := pagerender.WriteFragment(w, r, statusCode, fragment); err != nil {
		b.WriteError(w, r, err)
	}
}

// WriteError renders a localized module error response.
func (b Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err, b.deps)
}

// WriteNotFound renders a 404 error page within the app shell.
func (b Base) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteErrorPage(w, r, http.StatusNotFound, b.deps)
}
