package weberror

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	webi18n "github.com/casanorte/casanorte/internal/services/web/platform/i18n"
)

func TestWriteModuleErrorRendersErrorPageForNotFound(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/app/invites/missing", nil)
	req = req.WithContext(modalhost.WithHost(req.Context(), modalhost.NewHost()))
	rr := httptest.NewRecorder()
	WriteModuleError(rr, req, apperrors.E(apperrors.KindNotFound, "missing"), module.Dependencies{})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	body := rr.Body.String()
	for _, marker := range []string{`class="error-state"`, `class="app"`, `href="/app/dashboard"`} {
		if !strings.Contains(body, marker) {
			t.Fatalf("body missing marker %q: %q", marker, body)
		}
	}
}

func TestWriteErrorPageFallsBackToPublicShellWithoutHost(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
	rr := httptest.NewRecorder()
	WriteErrorPage(rr, req, http.StatusInternalServerError, module.Dependencies{})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `class="public"`) {
		t.Fatalf("expected public shell: %q", body)
	}
}

func TestWriteErrorPageCoercesUnexpectedStatus(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rr := httptest.NewRecorder()
	WriteErrorPage(rr, req, http.StatusTeapot, module.Dependencies{})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestWriteModuleErrorWritesPlainTextForBadRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/app/settings", nil)
	rr := httptest.NewRecorder()
	WriteModuleError(rr, req, apperrors.E(apperrors.KindInvalidInput, "bad form"), module.Dependencies{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	body := rr.Body.String()
	if !strings.Contains(body, http.StatusText(http.StatusBadRequest)) {
		t.Fatalf("body = %q, want generic bad-request message", body)
	}
	if strings.Contains(body, "bad form") {
		t.Fatalf("body leaked internal error text: %q", body)
	}
}

func TestPublicMessagePrefersLocalizationKey(t *testing.T) {
	t.Parallel()

	loc := webi18n.Printer(webi18n.Default())
	err := apperrors.EK(apperrors.KindInvalidInput, "invites.error.roles_required", "roles missing")
	if got := PublicMessage(loc, err); got == "" || got == "invites.error.roles_required" {
		t.Fatalf("PublicMessage() = %q, want localized text", got)
	}
	if got := PublicMessage(loc, errors.New("boom")); got != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("PublicMessage() = %q, want %q", got, http.StatusText(http.StatusInternalServerError))
	}
	if got := PublicMessage(loc, nil); got != "" {
		t.Fatalf("PublicMessage(nil) = %q, want empty", got)
	}
}

func TestNotFoundHandler(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NotFoundHandler(module.Dependencies{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}
