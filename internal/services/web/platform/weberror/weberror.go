// Package weberror renders shared error responses for web modules.
package weberror

import (
	"log"
	"net/http"
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	webi18n "github.com/casanorte/casanorte/internal/services/web/platform/i18n"
	"github.com/casanorte/casanorte/internal/services/web/platform/pagerender"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

// ShouldRenderErrorPage reports whether status should use error-page UX.
func ShouldRenderErrorPage(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized error message.
func PublicMessage(loc webi18n.Localizer, err error) string {
	if err == nil {
		return ""
	}
	if loc != nil {
		if key := apperrors.LocalizationKey(err); key != "" {
			if localized := strings.TrimSpace(loc.Sprintf(key)); localized != "" && localized != key {
				return localized
			}
		}
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	return http.StatusText(statusCode)
}

// WriteErrorPage writes a localized error page. Requests under /app/ that
// carry a modal host get the app shell; everything else gets the public
// shell.
func WriteErrorPage(w http.ResponseWriter, r *http.Request, statusCode int, deps module.Dependencies) {
	if w == nil {
		return
	}
	if !ShouldRenderErrorPage(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	loc, _ := webi18n.RequestLocalizer(r)
	titleKey := "core.error.page_title_server_error"
	if statusCode == http.StatusNotFound {
		titleKey = "core.error.page_title_not_found"
	}

	home := routepath.Root
	if useAppShell(r) {
		home = routepath.AppDashboard
	}
	page := pagerender.ModulePage{
		TitleKey:   titleKey,
		StatusCode: statusCode,
		Fragment:   webtemplates.ErrorState(statusCode, home, loc),
	}

	var err error
	if useAppShell(r) {
		err = pagerender.WriteModulePage(w, r, deps, page)
	} else {
		err = pagerender.WritePublicPage(w, r, deps, page)
	}
	if err != nil {
		log.Printf("web: render error page status=%d path=%s: %v", statusCode, requestPath(r), err)
		http.Error(w, http.StatusText(statusCode), statusCode)
	}
}

// WriteModuleError writes a module-safe localized error response. Not-found
// and server failures render the error page; other kinds get plain text.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error, deps module.Dependencies) {
	if w == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode >= http.StatusInternalServerError {
		log.Printf("web: request failed path=%s request_id=%s: %v", requestPath(r), httpx.RequestIDFrom(r), err)
	}
	if ShouldRenderErrorPage(statusCode) {
		WriteErrorPage(w, r, statusCode, deps)
		return
	}
	loc, _ := webi18n.RequestLocalizer(r)
	http.Error(w, PublicMessage(loc, err), statusCode)
}

// NotFoundHandler renders the localized not-found page.
func NotFoundHandler(deps module.Dependencies) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteErrorPage(w, r, http.StatusNotFound, deps)
	})
}

func useAppShell(r *http.Request) bool {
	if r == nil || r.URL == nil || !strings.HasPrefix(r.URL.Path, routepath.AppPrefix) {
		return false
	}
	_, err := modalhost.FromContext(httpx.RequestContext(r))
	return err == nil
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}
