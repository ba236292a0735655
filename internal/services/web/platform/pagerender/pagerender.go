// Package pagerender centralizes module page rendering behavior.
package pagerender

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	flashnotice "github.com/casanorte/casanorte/internal/services/web/platform/flash"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	webi18n "github.com/casanorte/casanorte/internal/services/web/platform/i18n"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

// ModulePage describes a page response for both full-page and HTMX flows.
// TitleKey is a catalog key localized with the request language.
type ModulePage struct {
	TitleKey   string
	StatusCode int
	Fragment   templ.Component
}

// WriteModulePage writes an authenticated page. HTMX requests receive the
// main content only; full requests receive the app shell and consume any
// pending flash notice.
func WriteModulePage(w http.ResponseWriter, r *http.Request, deps module.Dependencies, page ModulePage) error {
	if w == nil {
		return nil
	}
	var buf bytes.Buffer
	if httpx.IsHTMXRequest(r) {
		loc, _ := webi18n.RequestLocalizer(r)
		ctx := templ.WithChildren(webtemplates.WithLocalizer(httpx.RequestContext(r), loc), fragmentOrNop(page.Fragment))
		if err := webtemplates.AppMainContent().Render(ctx, &buf); err != nil {
			return err
		}
		writeHTML(w, page.StatusCode, buf.Bytes())
		return nil
	}

	loc, lang := webi18n.ResolveLocalizer(w, r)
	ctx := templ.WithChildren(webtemplates.WithLocalizer(httpx.RequestContext(r), loc), fragmentOrNop(page.Fragment))
	viewer := deps.Viewer(r)
	pageContext := newPageContext(r, loc, lang, page.TitleKey)
	pageContext.UserName = viewer.DisplayName
	pageContext.SignedIn = viewer.SignedIn()

	toast := resolveFlashToast(w, r, deps, loc)
	if err := webtemplates.AppLayout(pageContext, toast).Render(ctx, &buf); err != nil {
		return err
	}
	writeHTML(w, page.StatusCode, buf.Bytes())
	return nil
}

// WritePublicPage writes an unauthenticated page inside the public layout.
func WritePublicPage(w http.ResponseWriter, r *http.Request, deps module.Dependencies, page ModulePage) error {
	if w == nil {
		return nil
	}
	loc, lang := webi18n.ResolveLocalizer(w, r)
	pageContext := newPageContext(r, loc, lang, page.TitleKey)
	pageContext.SignedIn = deps.SignedIn(r)

	toast := resolveFlashToast(w, r, deps, loc)
	ctx := templ.WithChildren(webtemplates.WithLocalizer(httpx.RequestContext(r), loc), fragmentOrNop(page.Fragment))
	var buf bytes.Buffer
	if err := webtemplates.PublicLayout(pageContext, toast).Render(ctx, &buf); err != nil {
		return err
	}
	writeHTML(w, page.StatusCode, buf.Bytes())
	return nil
}

// WriteFragment writes a bare component, used for HTMX partial updates that
// are not part of the main content region.
func WriteFragment(w http.ResponseWriter, r *http.Request, statusCode int, fragment templ.Component) error {
	if w == nil {
		return nil
	}
	loc, _ := webi18n.RequestLocalizer(r)
	var buf bytes.Buffer
	if err := fragmentOrNop(fragment).Render(webtemplates.WithLocalizer(httpx.RequestContext(r), loc), &buf); err != nil {
		return err
	}
	writeHTML(w, statusCode, buf.Bytes())
	return nil
}

func newPageContext(r *http.Request, loc webi18n.Localizer, lang string, titleKey string) webtemplates.PageContext {
	page := webtemplates.PageContext{Lang: lang, Loc: loc}
	if titleKey = strings.TrimSpace(titleKey); titleKey != "" {
		page.Title = webi18n.T(loc, titleKey)
	}
	if r != nil && r.URL != nil {
		page.CurrentPath = r.URL.Path
		page.CurrentQuery = r.URL.RawQuery
	}
	return page
}

func resolveFlashToast(w http.ResponseWriter, r *http.Request, deps module.Dependencies, loc webi18n.Localizer) *webtemplates.Toast {
	notice, ok := flashnotice.ReadAndClear(w, r, deps.SchemePolicy)
	if !ok {
		return nil
	}
	message := strings.TrimSpace(webi18n.T(loc, notice.Key))
	if message == "" {
		return nil
	}
	return &webtemplates.Toast{Kind: string(notice.Kind), Message: message}
}

func fragmentOrNop(fragment templ.Component) templ.Component {
	if fragment == nil {
		return templ.NopComponent
	}
	return fragment
}

func writeHTML(w http.ResponseWriter, statusCode int, body []byte) {
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
