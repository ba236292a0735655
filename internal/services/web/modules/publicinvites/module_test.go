package publicinvites

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/casanorte/casanorte/internal/platform/id"
	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/platform/htmltest"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"github.com/casanorte/casanorte/internal/services/web/storage"
	"github.com/casanorte/casanorte/internal/services/web/storage/sqlite"
)

var testNow = time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)

type fakeInviteAPI struct {
	invite     casanorteapi.PublicInvite
	err        error
	validation casanorteapi.Validation
	checked    []string
}

func (f *fakeInviteAPI) GetPublicInvite(_ context.Context, inviteID string) (casanorteapi.PublicInvite, error) {
	if f.err != nil {
		return casanorteapi.PublicInvite{}, f.err
	}
	invite := f.invite
	invite.InviteID = inviteID
	return invite, nil
}

func (f *fakeInviteAPI) ValidateInvitePhone(_ context.Context, _ string, last4 string) casanorteapi.Validation {
	f.checked = append(f.checked, last4)
	return f.validation
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "invites.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mountInvites(t *testing.T, api InviteAPI, validations storage.InviteValidationStore) http.Handler {
	t.Helper()
	config := Config{Now: func() time.Time { return testNow }, Logger: log.New(io.Discard, "", 0)}
	mount, err := New(module.Dependencies{}, api, validations, config).Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if mount.Prefix != routepath.InvitePrefix {
		t.Fatalf("Prefix = %q, want %q", mount.Prefix, routepath.InvitePrefix)
	}
	return mount.Handler
}

func browserCookie(t *testing.T) *http.Cookie {
	t.Helper()
	key, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	return &http.Cookie{Name: modalhost.BrowserCookieName, Value: key}
}

func postValidate(handler http.Handler, inviteID string, last4 string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, routepath.InviteValidate(inviteID), strings.NewReader(url.Values{"last4": {last4}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestModuleIDReturnsPublicInvites(t *testing.T) {
	t.Parallel()

	if got := New(module.Dependencies{}, nil, nil, Config{}).ID(); got != "publicinvites" {
		t.Fatalf("ID() = %q, want %q", got, "publicinvites")
	}
}

func TestRegisterRoutesHandlesNilMux(t *testing.T) {
	t.Parallel()

	registerRoutes(nil, handlers{})
}

func TestInviteQueryRedirectsToLanding(t *testing.T) {
	t.Parallel()

	handler := mountInvites(t, &fakeInviteAPI{}, nil)
	tests := []struct {
		name         string
		path         string
		wantStatus   int
		wantLocation string
	}{
		{name: "query id", path: routepath.InvitePrefix + "?i=inv-1", wantStatus: http.StatusFound, wantLocation: "/invite/inv-1"},
		{name: "missing id", path: routepath.InvitePrefix, wantStatus: http.StatusNotFound},
		{name: "deep unknown", path: "/invite/inv-1/other", wantStatus: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if got := rr.Header().Get("Location"); got != tc.wantLocation {
				t.Fatalf("Location = %q, want %q", got, tc.wantLocation)
			}
		})
	}
}

func TestLandingShowsMaskedInvite(t *testing.T) {
	t.Parallel()

	api := &fakeInviteAPI{invite: casanorteapi.PublicInvite{
		FirstName:         "Luis",
		MaskedPhoneNumber: "***-***-4567",
		MaskedEmail:       "l***@example.com",
		TenantName:        "Casa Norte Realty",
		Status:            "PENDING",
	}}
	rr := httptest.NewRecorder()
	mountInvites(t, api, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, routepath.Invite("inv-1"), nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	doc := htmltest.Parse(t, rr.Body.String())
	details := htmltest.Text(htmltest.Find(doc, htmltest.ByAttr("class", "invite-details")))
	if !strings.Contains(details, "***-***-4567") || !strings.Contains(details, "l***@example.com") {
		t.Fatalf("details = %q, want masked phone and email", details)
	}
	if htmltest.Find(doc, htmltest.ByID("field-last4")) == nil {
		t.Fatal("landing missing last4 field")
	}
}

func TestLandingClosedInviteHidesForm(t *testing.T) {
	t.Parallel()

	api := &fakeInviteAPI{invite: casanorteapi.PublicInvite{Status: "PENDING", ExpiresAt: testNow.Add(-time.Hour).UnixMilli()}}
	rr := httptest.NewRecorder()
	mountInvites(t, api, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, routepath.Invite("inv-1"), nil))

	doc := htmltest.Parse(t, rr.Body.String())
	if htmltest.Find(doc, htmltest.ByID("field-last4")) != nil {
		t.Fatal("expired invite still renders the digits form")
	}
	if htmltest.Find(doc, htmltest.ByAttr("class", "invite-closed")) == nil {
		t.Fatal("expired invite missing closed notice")
	}
}

func TestLandingUnknownInviteIsNotFound(t *testing.T) {
	t.Parallel()

	api := &fakeInviteAPI{err: apperrors.E(apperrors.KindNotFound, "missing")}
	rr := httptest.NewRecorder()
	mountInvites(t, api, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, routepath.Invite("nope"), nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestValidateRejectsMalformedDigitsLocally(t *testing.T) {
	t.Parallel()

	api := &fakeInviteAPI{invite: casanorteapi.PublicInvite{Status: "PENDING"}}
	rr := postValidate(mountInvites(t, api, openStore(t)), "inv-1", "45a7", browserCookie(t))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if len(api.checked) != 0 {
		t.Fatalf("upstream checks = %v, want none", api.checked)
	}
}

func TestValidateMismatchShowsUpstreamReason(t *testing.T) {
	t.Parallel()

	api := &fakeInviteAPI{
		invite:     casanorteapi.PublicInvite{Status: "PENDING"},
		validation: casanorteapi.Validation{RemainingAttempts: 2, Reason: "Digits do not match"},
	}
	rr := postValidate(mountInvites(t, api, openStore(t)), "inv-1", "0000", browserCookie(t))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	doc := htmltest.Parse(t, rr.Body.String())
	if got := htmltest.Text(htmltest.Find(doc, htmltest.ByID("field-last4-error"))); got != "Digits do not match" {
		t.Fatalf("error = %q, want upstream reason", got)
	}
	attempts := htmltest.Find(doc, htmltest.ByAttr("class", "invite-attempts"))
	if got, _ := htmltest.Attr(attempts, "data-remaining"); got != "2" {
		t.Fatalf("data-remaining = %q, want 2", got)
	}
}

func TestValidateRequiresBrowserCookie(t *testing.T) {
	t.Parallel()

	api := &fakeInviteAPI{invite: casanorteapi.PublicInvite{Status: "PENDING"}, validation: casanorteapi.Validation{IsValid: true}}
	rr := postValidate(mountInvites(t, api, openStore(t)), "inv-1", "4567", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestValidateThenContinueHandsOffToRegistration(t *testing.T) {
	t.Parallel()

	api := &fakeInviteAPI{invite: casanorteapi.PublicInvite{Status: "PENDING"}, validation: casanorteapi.Validation{IsValid: true, RemainingAttempts: 3}}
	handler := mountInvites(t, api, openStore(t))
	cookie := browserCookie(t)

	rr := postValidate(handler, "inv-1", "4567", cookie)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("validate status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if got := rr.Header().Get("Location"); got != routepath.InviteContinue("inv-1") {
		t.Fatalf("Location = %q, want %q", got, routepath.InviteContinue("inv-1"))
	}

	req := httptest.NewRequest(http.MethodGet, routepath.InviteContinue("inv-1"), nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusFound {
		t.Fatalf("continue status = %d, want %d", rr.Code, http.StatusFound)
	}
	if got, want := rr.Header().Get("Location"), routepath.AuthLogin+"?invite=inv-1&tab=register"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}

	other := httptest.NewRequest(http.MethodGet, routepath.InviteContinue("inv-1"), nil)
	other.AddCookie(browserCookie(t))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	if got := rr.Header().Get("Location"); got != routepath.Invite("inv-1") {
		t.Fatalf("other browser Location = %q, want landing", got)
	}
}
