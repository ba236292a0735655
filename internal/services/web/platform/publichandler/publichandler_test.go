package publichandler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	module "github.com/casanorte/casanorte/internal/services/web/module"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

func TestIsViewerSignedInUsesSignedInResolver(t *testing.T) {
	t.Parallel()

	base := NewBase(module.Dependencies{ResolveSignedIn: func(*http.Request) bool { return true }})
	if got := base.IsViewerSignedIn(httptest.NewRequest(http.MethodGet, "/", nil)); !got {
		t.Fatalf("IsViewerSignedIn() = %v, want true", got)
	}
}

func TestIsViewerSignedInReturnsFalseWithoutResolver(t *testing.T) {
	t.Parallel()

	base := NewBase(module.Dependencies{ResolveViewer: func(*http.Request) module.Viewer { return module.Viewer{DisplayName: "signed in"} }})
	if got := base.IsViewerSignedIn(httptest.NewRequest(http.MethodGet, "/", nil)); got {
		t.Fatalf("IsViewerSignedIn() = %v, want false", got)
	}
}

func TestWritePublicPageRendersLayout(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	NewBase(module.Dependencies{}).WritePublicPage(rr, r, "public.landing.title", http.StatusOK, webtemplates.Text("landing-body"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<!doctype html>") || !strings.Contains(body, "landing-body") {
		t.Fatalf("body = %q, want full page with body", body)
	}
}

func TestWriteNotFoundRendersErrorPage(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewBase(module.Dependencies{}).WriteNotFound(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestWriteErrorWritesPlainTextForClientErrors(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewBase(module.Dependencies{}).WriteError(rr, httptest.NewRequest(http.MethodPost, "/contact", nil), apperrors.E(apperrors.KindInvalidInput, "bad"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("content-type = %q, want text/plain", got)
	}
}
