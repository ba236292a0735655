package dashboard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/htmltest"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

type staticHealth []Check

func (s staticHealth) Snapshot() []Check { return append([]Check(nil), s...) }

func viewerDeps(viewer module.Viewer) module.Dependencies {
	return module.Dependencies{
		ResolveViewer:   func(*http.Request) module.Viewer { return viewer },
		ResolveUserID:   func(*http.Request) string { return viewer.UserID },
		ResolveSignedIn: func(*http.Request) bool { return viewer.SignedIn() },
	}
}

func serve(t *testing.T, handler http.Handler, method, path string, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(modalhost.WithHost(req.Context(), modalhost.NewHost()))
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestModuleIDReturnsDashboard(t *testing.T) {
	t.Parallel()

	if got := New(module.Dependencies{}, nil).ID(); got != "dashboard" {
		t.Fatalf("ID() = %q, want %q", got, "dashboard")
	}
}

func TestRegisterRoutesHandlesNilMux(t *testing.T) {
	t.Parallel()

	registerRoutes(nil, handlers{})
}

func TestRegisterRoutesDashboardPathAndMethodContracts(t *testing.T) {
	t.Parallel()

	mount, err := New(viewerDeps(module.Viewer{UserID: "user-1"}), nil).Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if mount.Prefix != routepath.DashboardPrefix {
		t.Fatalf("Prefix = %q, want %q", mount.Prefix, routepath.DashboardPrefix)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "app dashboard get", method: http.MethodGet, path: routepath.AppDashboard, wantStatus: http.StatusOK},
		{name: "app dashboard head", method: http.MethodHead, path: routepath.AppDashboard, wantStatus: http.StatusOK},
		{name: "dashboard prefix get", method: http.MethodGet, path: routepath.DashboardPrefix, wantStatus: http.StatusOK},
		{name: "health fragment", method: http.MethodGet, path: routepath.AppDashboardHealth, wantStatus: http.StatusOK},
		{name: "dashboard unknown subpath", method: http.MethodGet, path: routepath.DashboardPrefix + "other", wantStatus: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rr := serve(t, mount.Handler, tc.method, tc.path, false)
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
		})
	}
}

func TestDashboardGreetsViewerAndListsHealth(t *testing.T) {
	t.Parallel()

	health := staticHealth{
		{Name: "api.casanorte.example", Status: StatusHealthy, CheckedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)},
		{Name: "identity.example", Status: StatusChecking},
	}
	mount, _ := New(viewerDeps(module.Viewer{UserID: "user-1", FirstName: "Ana", LastName: "Ruiz"}), health).Mount()
	rr := serve(t, mount.Handler, http.MethodGet, routepath.AppDashboard, true)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	if strings.Contains(strings.ToLower(body), "<html") {
		t.Fatal("htmx response includes document wrapper")
	}
	doc := htmltest.Parse(t, body)
	greeting := htmltest.Find(doc, htmltest.ByTag("h1"))
	if greeting == nil || !strings.Contains(htmltest.Text(greeting), "Ana Ruiz") {
		t.Fatalf("greeting missing viewer name: %s", body)
	}
	cards := htmltest.FindAll(doc, htmltest.ByAttr("data-status", string(StatusHealthy)))
	if len(cards) != 1 {
		t.Fatalf("healthy cards = %d, want 1", len(cards))
	}
	if checking := htmltest.FindAll(doc, htmltest.ByAttr("data-status", string(StatusChecking))); len(checking) != 1 {
		t.Fatalf("checking cards = %d, want 1", len(checking))
	}
}

func TestHealthFragmentPollsItself(t *testing.T) {
	t.Parallel()

	mount, _ := New(viewerDeps(module.Viewer{UserID: "user-1"}), staticHealth{{Name: "api", Status: StatusUnhealthy}}).Mount()
	rr := serve(t, mount.Handler, http.MethodGet, routepath.AppDashboardHealth, true)

	doc := htmltest.Parse(t, rr.Body.String())
	cards := htmltest.Find(doc, htmltest.ByID("health-cards"))
	if cards == nil {
		t.Fatalf("fragment missing health-cards: %s", rr.Body.String())
	}
	if got, _ := htmltest.Attr(cards, "hx-get"); got != routepath.AppDashboardHealth {
		t.Fatalf("hx-get = %q, want %q", got, routepath.AppDashboardHealth)
	}
	if got, _ := htmltest.Attr(cards, "hx-trigger"); got != "every 30s" {
		t.Fatalf("hx-trigger = %q, want %q", got, "every 30s")
	}
	if htmltest.Find(doc, htmltest.ByAttr("data-status", string(StatusUnhealthy))) == nil {
		t.Fatal("fragment missing unhealthy card")
	}
}

func TestGreetingName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		viewer module.Viewer
		want   string
	}{
		{name: "full name", viewer: module.Viewer{FirstName: "Ana", LastName: "Ruiz", DisplayName: "ana"}, want: "Ana Ruiz"},
		{name: "first name only", viewer: module.Viewer{FirstName: " Ana "}, want: "Ana"},
		{name: "display name", viewer: module.Viewer{DisplayName: "ana.r"}, want: "ana.r"},
		{name: "email", viewer: module.Viewer{Email: "ana@example.com"}, want: "ana@example.com"},
		{name: "fallback", viewer: module.Viewer{}, want: "User"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := greetingName(tc.viewer); got != tc.want {
				t.Fatalf("greetingName() = %q, want %q", got, tc.want)
			}
		})
	}
}
