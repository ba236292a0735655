package onboarding

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	flashnotice "github.com/casanorte/casanorte/internal/services/web/platform/flash"
	"github.com/casanorte/casanorte/internal/services/web/platform/htmltest"
	"github.com/casanorte/casanorte/internal/services/web/profile"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"github.com/casanorte/casanorte/internal/services/web/storage"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

var pngPhoto = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func hostWithOnboarding() *modalhost.Host {
	host := modalhost.NewHost()
	host.ShowModal(Descriptor(StepWelcome, Form{FirstName: "Ana"}, nil))
	return host
}

func currentStep(t *testing.T, body string) string {
	t.Helper()
	doc := htmltest.Parse(t, body)
	dialog := htmltest.Find(doc, htmltest.ByID(webtemplates.DialogElementID(ModalID)))
	if dialog == nil {
		t.Fatalf("body missing dialog %q: %s", webtemplates.DialogElementID(ModalID), body)
	}
	items := htmltest.FindAll(dialog, htmltest.ByTag("li"))
	for idx, item := range items {
		if got, _ := htmltest.Attr(item, "aria-current"); got == "step" {
			return stepOrder[idx]
		}
	}
	t.Fatalf("dialog has no current step: %s", body)
	return ""
}

func validContact() map[string]string {
	return map[string]string{"firstName": "Ana", "lastName": "Ruiz", "phoneNumber": "(555) 123-4567"}
}

func TestModuleIDReturnsOnboarding(t *testing.T) {
	t.Parallel()

	if got := New(module.Dependencies{}, Config{}).ID(); got != "onboarding" {
		t.Fatalf("ID() = %q, want %q", got, "onboarding")
	}
}

func TestRegisterRoutesHandlesNilMux(t *testing.T) {
	t.Parallel()

	registerRoutes(nil, handlers{})
}

func TestUnknownOnboardingPathReturnsNotFound(t *testing.T) {
	t.Parallel()

	handler := mountOnboarding(t, userDeps("user-1"), Config{})
	req := httptest.NewRequest(http.MethodGet, routepath.OnboardingPrefix+"missing", nil)
	req = req.WithContext(modalhost.WithHost(req.Context(), modalhost.NewHost()))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStepWithoutHostFailsFast(t *testing.T) {
	t.Parallel()

	handler := mountOnboarding(t, userDeps("user-1"), Config{})
	req := httptest.NewRequest(http.MethodPost, routepath.AppOnboardingStep, strings.NewReader("step=contact"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestStepAdvancesToContactForHTMX(t *testing.T) {
	t.Parallel()

	host := hostWithOnboarding()
	handler := mountOnboarding(t, userDeps("user-1"), Config{})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, formRequest(host, routepath.AppOnboardingStep, url.Values{
		"step":      {StepContact},
		"firstName": {"Ana"},
	}, true))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := currentStep(t, rr.Body.String()); got != StepContact {
		t.Fatalf("current step = %q, want %q", got, StepContact)
	}
	doc := htmltest.Parse(t, rr.Body.String())
	input := htmltest.Find(doc, htmltest.ByAttr("name", "firstName"))
	if input == nil {
		t.Fatal("contact step missing firstName input")
	}
	if got, _ := htmltest.Attr(input, "value"); got != "Ana" {
		t.Fatalf("firstName value = %q, want Ana", got)
	}
}

func TestStepToPhotoValidatesContact(t *testing.T) {
	t.Parallel()

	host := hostWithOnboarding()
	handler := mountOnboarding(t, userDeps("user-1"), Config{})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, formRequest(host, routepath.AppOnboardingStep, url.Values{
		"step":        {StepPhoto},
		"firstName":   {" "},
		"lastName":    {"Ruiz"},
		"phoneNumber": {"12"},
	}, true))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if got := currentStep(t, rr.Body.String()); got != StepContact {
		t.Fatalf("current step = %q, want %q", got, StepContact)
	}
	if got, ok := host.ActiveModalID(); !ok || got != ModalID {
		t.Fatalf("ActiveModalID() = %q, %v, want %q", got, ok, ModalID)
	}
}

func TestStepWithoutHTMXRedirectsToReferer(t *testing.T) {
	t.Parallel()

	host := hostWithOnboarding()
	handler := mountOnboarding(t, userDeps("user-1"), Config{})
	req := formRequest(host, routepath.AppOnboardingStep, url.Values{"step": {StepContact}}, false)
	req.Header.Set("Referer", "http://example.com/app/settings?tab=profile")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if got := rr.Header().Get("Location"); got != "/app/settings?tab=profile" {
		t.Fatalf("Location = %q, want %q", got, "/app/settings?tab=profile")
	}
}

func TestCompleteActivatesUserAndClosesModal(t *testing.T) {
	t.Parallel()

	host := hostWithOnboarding()
	completer := &fakeCompleter{}
	users := newFakeUsers(storage.User{ID: "user-1", Username: "+15550000000", Status: storage.StatusReviewRequired})
	handler := mountOnboarding(t, userDeps("user-1"), Config{Profiles: completer, Users: users})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, multipartRequest(t, host, routepath.AppOnboardingComplete, validContact(), "me.png", pngPhoto))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusSeeOther, rr.Body.String())
	}
	if got := rr.Header().Get("Location"); got != routepath.AppDashboard {
		t.Fatalf("Location = %q, want %q", got, routepath.AppDashboard)
	}
	if got, ok := host.ActiveModalID(); ok {
		t.Fatalf("ActiveModalID() = %q, want none", got)
	}
	if !host.Dismissed(ModalID) {
		t.Fatal("Dismissed(onboarding) = false, want true")
	}
	if len(completer.payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(completer.payloads))
	}
	payload := completer.payloads[0]
	if payload.PhoneNumber != "+15551234567" || payload.Photo == nil || payload.Photo.Filename != "me.png" {
		t.Fatalf("payload = %+v, want normalized phone and photo", payload)
	}
	user, _ := users.GetUser(t.Context(), "user-1")
	if user.Status != storage.StatusActive || user.FirstName != "Ana" || user.PhoneNumber != "+15551234567" {
		t.Fatalf("user = %+v, want active Ana with phone", user)
	}
	if !hasCookie(rr, flashnotice.CookieName) {
		t.Fatal("missing flash cookie")
	}
}

func TestCompleteToleratesUnavailableProfileAPI(t *testing.T) {
	t.Parallel()

	host := hostWithOnboarding()
	users := newFakeUsers(storage.User{ID: "user-1", Status: storage.StatusReviewRequired})
	handler := mountOnboarding(t, userDeps("user-1"), Config{
		Profiles: &fakeCompleter{err: profile.ErrUnavailable},
		Users:    users,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, multipartRequest(t, host, routepath.AppOnboardingComplete, validContact(), "", nil))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	user, _ := users.GetUser(t.Context(), "user-1")
	if user.Status != storage.StatusActive {
		t.Fatalf("Status = %q, want %q", user.Status, storage.StatusActive)
	}
}

func TestCompleteFailureKeepsPhotoStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "upstream", err: errors.New("boom")},
		{name: "localized", err: apperrors.EK(apperrors.KindConflict, "onboarding.error.phone_taken", "taken")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			host := hostWithOnboarding()
			users := newFakeUsers(storage.User{ID: "user-1", Status: storage.StatusReviewRequired})
			handler := mountOnboarding(t, userDeps("user-1"), Config{Profiles: &fakeCompleter{err: tc.err}, Users: users})

			req := multipartRequest(t, host, routepath.AppOnboardingComplete, validContact(), "", nil)
			req.Header.Set("HX-Request", "true")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadGateway {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
			}
			if got := currentStep(t, rr.Body.String()); got != StepPhoto {
				t.Fatalf("current step = %q, want %q", got, StepPhoto)
			}
			if host.Dismissed(ModalID) {
				t.Fatal("Dismissed(onboarding) = true, want false")
			}
			user, _ := users.GetUser(t.Context(), "user-1")
			if user.Status != storage.StatusReviewRequired {
				t.Fatalf("Status = %q, want %q", user.Status, storage.StatusReviewRequired)
			}
		})
	}
}

func TestCompleteRejectsNonImagePhoto(t *testing.T) {
	t.Parallel()

	host := hostWithOnboarding()
	completer := &fakeCompleter{}
	handler := mountOnboarding(t, userDeps("user-1"), Config{Profiles: completer})

	req := multipartRequest(t, host, routepath.AppOnboardingComplete, validContact(), "notes.txt", []byte("plain text, not a picture"))
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if got := currentStep(t, rr.Body.String()); got != StepPhoto {
		t.Fatalf("current step = %q, want %q", got, StepPhoto)
	}
	if len(completer.payloads) != 0 {
		t.Fatalf("payloads = %d, want 0", len(completer.payloads))
	}
}

func TestCompleteWithMissingNamesReturnsContactStep(t *testing.T) {
	t.Parallel()

	host := hostWithOnboarding()
	handler := mountOnboarding(t, userDeps("user-1"), Config{Profiles: &fakeCompleter{}})

	req := multipartRequest(t, host, routepath.AppOnboardingComplete, map[string]string{"firstName": "Ana"}, "", nil)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if got := currentStep(t, rr.Body.String()); got != StepContact {
		t.Fatalf("current step = %q, want %q", got, StepContact)
	}
}

func TestCompleteTooLargeUploadKeepsCarriedFields(t *testing.T) {
	t.Parallel()

	host := modalhost.NewHost()
	host.ShowModal(Descriptor(StepPhoto, Form{FirstName: "Ana", LastName: "Ruiz", PhoneNumber: "+15551234567"}, nil))
	completer := &fakeCompleter{}
	handler := mountOnboarding(t, userDeps("user-1"), Config{Profiles: completer})

	oversized := append(append([]byte{}, pngPhoto...), make([]byte, MaxPhotoBytes+128<<10)...)
	req := multipartRequest(t, host, routepath.AppOnboardingComplete, nil, "huge.png", oversized)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
	if got := currentStep(t, rr.Body.String()); got != StepPhoto {
		t.Fatalf("current step = %q, want %q", got, StepPhoto)
	}
	doc := htmltest.Parse(t, rr.Body.String())
	for name, want := range map[string]string{"firstName": "Ana", "lastName": "Ruiz", "phoneNumber": "+15551234567"} {
		input := htmltest.Find(doc, htmltest.ByAttr("name", name))
		if got, _ := htmltest.Attr(input, "value"); got != want {
			t.Fatalf("%s = %q, want %q", name, got, want)
		}
	}
	if len(completer.payloads) != 0 {
		t.Fatalf("payloads = %d, want 0", len(completer.payloads))
	}
}

func hasCookie(rr *httptest.ResponseRecorder, name string) bool {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name && cookie.Value != "" {
			return true
		}
	}
	return false
}
