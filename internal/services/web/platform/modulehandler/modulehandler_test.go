package modulehandler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

func TestBaseDelegatesToDependencies(t *testing.T) {
	t.Parallel()

	base := NewBase(module.Dependencies{
		ResolveUserID: func(*http.Request) string { return " user-1 " },
		ResolveViewer: func(*http.Request) module.Viewer { return module.Viewer{UserID: "user-1", DisplayName: "Ana"} },
	})
	r := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)

	if got := base.RequestUserID(r); got != "user-1" {
		t.Fatalf("RequestUserID() = %q, want %q", got, "user-1")
	}
	if got := base.RequestViewer(r); got.DisplayName != "Ana" {
		t.Fatalf("RequestViewer() = %+v, want DisplayName=Ana", got)
	}
	_, userID := base.RequestContextAndUserID(r)
	if userID != "user-1" {
		t.Fatalf("RequestContextAndUserID() user = %q, want user-1", userID)
	}
}

func TestBaseWithoutResolversReturnsZeroValues(t *testing.T) {
	t.Parallel()

	base := NewBase(module.Dependencies{})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := base.RequestUserID(r); got != "" {
		t.Fatalf("RequestUserID() = %q, want empty", got)
	}
	if got := base.RequestViewer(r); got != (module.Viewer{}) {
		t.Fatalf("RequestViewer() = %+v, want zero Viewer", got)
	}
}

func TestModalHostFailsWithoutHost(t *testing.T) {
	t.Parallel()

	_, err := NewBase(module.Dependencies{}).ModalHost(httptest.NewRequest(http.MethodGet, "/app/dashboard", nil))
	if !errors.Is(err, modalhost.ErrNoHost) {
		t.Fatalf("ModalHost() error = %v, want ErrNoHost", err)
	}
}

func TestWritePageRendersFragmentWithinHost(t *testing.T) {
	t.Parallel()

	host := modalhost.NewHost()
	r := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
	r = r.WithContext(modalhost.WithHost(r.Context(), host))
	r.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()

	NewBase(module.Dependencies{}).WritePage(rr, r, "dashboard.title", http.StatusOK, webtemplates.Text("hello-fragment"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "hello-fragment") {
		t.Fatalf("body = %q, want fragment", rr.Body.String())
	}
}

func TestWritePageWithoutHostRendersServerError(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
	r.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()

	NewBase(module.Dependencies{}).WritePage(rr, r, "dashboard.title", http.StatusOK, webtemplates.Text("hello"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestWriteErrorUsesKindStatus(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/app/settings", nil)
	NewBase(module.Dependencies{}).WriteError(rr, r, apperrors.E(apperrors.KindInvalidInput, "bad"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
