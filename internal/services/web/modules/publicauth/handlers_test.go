package publicauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/platform/htmltest"
	"github.com/casanorte/casanorte/internal/services/web/platform/sessioncookie"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

func responseCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func postForm(handler http.Handler, path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func postJSON(handler http.Handler, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestLoginRedirectsSignedInViewer(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	mountAuth(t, signedInDeps("user-1"), &fakeGateway{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, routepath.AuthLogin, nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusFound)
	}
	if got := rr.Header().Get("Location"); got != routepath.AppDashboard {
		t.Fatalf("Location = %q, want %q", got, routepath.AppDashboard)
	}
}

func TestLoginWithInviteOpensRegistration(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	mountAuth(t, module.Dependencies{}, &fakeGateway{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, routepath.AuthLogin+"?invite=inv-1", nil))
	doc := htmltest.Parse(t, rr.Body.String())
	panel := htmltest.Find(doc, htmltest.ByID("auth-register"))
	if panel == nil {
		t.Fatal("login page missing registration panel")
	}
	if _, ok := htmltest.Attr(panel, "open"); !ok {
		t.Fatal("registration panel is not open")
	}
	hidden := htmltest.Find(doc, htmltest.ByAttr("name", "inviteId"))
	if got, _ := htmltest.Attr(hidden, "value"); got != "inv-1" {
		t.Fatalf("inviteId = %q, want inv-1", got)
	}
}

func TestRegisterStartRequiresValidatedInvite(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{}
	rr := postJSON(mountAuth(t, module.Dependencies{}, gateway), routepath.PasskeyRegisterStart, `{"username":"ana","inviteId":"inv-1"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
	if gateway.registrant.Username != "" {
		t.Fatalf("registration began for %+v, want none", gateway.registrant)
	}
}

func TestRegisterStartReturnsCeremony(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{inviteOK: true}
	rr := postJSON(mountAuth(t, module.Dependencies{}, gateway), routepath.PasskeyRegisterStart, `{"username":"ana","phoneNumber":"555-123-4567","inviteId":"inv-1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var body struct {
		Data ceremonyData `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.ID != "ceremony-1" || len(body.Data.Options) == 0 {
		t.Fatalf("data = %+v, want ceremony-1 with options", body.Data)
	}
	if gateway.registrant.InviteID != "inv-1" || gateway.registrant.PhoneNumber != "555-123-4567" {
		t.Fatalf("registrant = %+v", gateway.registrant)
	}
}

func TestRegisterStartSurfacesValidationKey(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{beginErr: apperrors.EK(apperrors.KindConflict, "auth.error.phone_taken", "taken")}
	rr := postJSON(mountAuth(t, module.Dependencies{}, gateway), routepath.PasskeyRegisterStart, `{"username":"ana"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("body = %v, want error message", body)
	}
}

func TestLoginFinishStartsSession(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{finishUserID: "user-7"}
	rr := postJSON(mountAuth(t, module.Dependencies{}, gateway), routepath.PasskeyLoginFinish, `{"id":"ceremony-2","credential":{},"next":"/app/invites"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	cookie := responseCookie(rr, sessioncookie.Name)
	if cookie == nil || cookie.Value != "token-user-7" {
		t.Fatalf("session cookie = %+v, want token-user-7", cookie)
	}
	var body struct {
		Data redirectData `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Redirect != routepath.AppInvites {
		t.Fatalf("redirect = %q, want %q", body.Data.Redirect, routepath.AppInvites)
	}
}

func TestLoginFinishFailureSetsNoCookie(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{finishErr: apperrors.EK(apperrors.KindUnauthorized, "auth.error.passkey_failed", "bad")}
	rr := postJSON(mountAuth(t, module.Dependencies{}, gateway), routepath.PasskeyLoginFinish, `{"id":"c","credential":{}}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if cookie := responseCookie(rr, sessioncookie.Name); cookie != nil {
		t.Fatalf("session cookie = %+v, want none", cookie)
	}
}

func TestOTPSendSetsChallengeCookie(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{sendChallenge: "challenge-1"}
	rr := postForm(mountAuth(t, module.Dependencies{}, gateway), routepath.OTPSend, url.Values{
		"phoneNumber": {"555-123-4567"},
		"next":        {"/app/settings"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if got, want := rr.Header().Get("Location"), routepath.AuthVerify+"?next=%2Fapp%2Fsettings"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
	cookie := responseCookie(rr, challengeCookieName)
	if cookie == nil || cookie.Value != "challenge-1" {
		t.Fatalf("challenge cookie = %+v, want challenge-1", cookie)
	}
	if cookie.MaxAge != int(DefaultOTPTTL.Seconds()) {
		t.Fatalf("MaxAge = %d, want %d", cookie.MaxAge, int(DefaultOTPTTL.Seconds()))
	}
}

func TestOTPSendInvalidPhoneRerendersPhonePanel(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{sendErr: apperrors.EK(apperrors.KindInvalidInput, "auth.error.phone_invalid", "bad phone")}
	rr := postForm(mountAuth(t, module.Dependencies{}, gateway), routepath.OTPSend, url.Values{"phoneNumber": {"12"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	doc := htmltest.Parse(t, rr.Body.String())
	panel := htmltest.Find(doc, htmltest.ByID("auth-phone"))
	if _, ok := htmltest.Attr(panel, "open"); !ok {
		t.Fatal("phone panel is not open")
	}
	input := htmltest.Find(doc, htmltest.ByID("field-phoneNumber"))
	if got, _ := htmltest.Attr(input, "value"); got != "12" {
		t.Fatalf("phone value = %q, want 12", got)
	}
}

func TestVerifyPageMasksPhone(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{challenge: storage.OTPChallenge{ID: "challenge-1", PhoneNumber: "+15551234567"}}
	req := httptest.NewRequest(http.MethodGet, routepath.AuthVerify, nil)
	req.AddCookie(&http.Cookie{Name: challengeCookieName, Value: "challenge-1"})
	rr := httptest.NewRecorder()
	mountAuth(t, module.Dependencies{}, gateway).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if body := rr.Body.String(); !strings.Contains(body, "4567") || strings.Contains(body, "5551234567") {
		t.Fatalf("body does not mask phone: %s", body)
	}
}

func TestOTPVerifyStartsSession(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{verifyUserID: "user-3"}
	rr := postForm(mountAuth(t, module.Dependencies{}, gateway), routepath.OTPVerify,
		url.Values{"code": {"123456"}, "next": {"https://evil.example/app/"}},
		&http.Cookie{Name: challengeCookieName, Value: "challenge-1"},
	)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if got := rr.Header().Get("Location"); got != routepath.AppDashboard {
		t.Fatalf("Location = %q, want %q", got, routepath.AppDashboard)
	}
	if cookie := responseCookie(rr, sessioncookie.Name); cookie == nil || cookie.Value != "token-user-3" {
		t.Fatalf("session cookie = %+v, want token-user-3", cookie)
	}
	if cookie := responseCookie(rr, challengeCookieName); cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("challenge cookie = %+v, want cleared", cookie)
	}
}

func TestOTPVerifyWrongCodeKeepsChallenge(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{
		verifyErr: apperrors.EK(apperrors.KindInvalidInput, "auth.error.code_invalid", "wrong code"),
		challenge: storage.OTPChallenge{ID: "challenge-1", PhoneNumber: "+15551234567", ExpiresAt: time.Now().Add(time.Minute)},
	}
	rr := postForm(mountAuth(t, module.Dependencies{}, gateway), routepath.OTPVerify,
		url.Values{"code": {"000000"}},
		&http.Cookie{Name: challengeCookieName, Value: "challenge-1"},
	)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if cookie := responseCookie(rr, challengeCookieName); cookie != nil {
		t.Fatalf("challenge cookie = %+v, want untouched", cookie)
	}
	if len(gateway.startedUserIDs) != 0 {
		t.Fatalf("sessions started = %v, want none", gateway.startedUserIDs)
	}
}

func TestOTPVerifyExpiredChallengeReturnsToPhoneTab(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{verifyErr: apperrors.EK(apperrors.KindUnauthorized, "auth.error.code_expired", "expired")}
	rr := postForm(mountAuth(t, module.Dependencies{}, gateway), routepath.OTPVerify,
		url.Values{"code": {"123456"}},
		&http.Cookie{Name: challengeCookieName, Value: "challenge-1"},
	)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if got := rr.Header().Get("Location"); got != routepath.AuthLogin+"?tab=phone" {
		t.Fatalf("Location = %q, want phone tab", got)
	}
}

func onceModal(id string) modalhost.Descriptor {
	return modalhost.Descriptor{
		ID:             id,
		Component:      modalhost.RenderFunc(func(modalhost.Props) templ.Component { return templ.NopComponent }),
		OncePerSession: true,
	}
}

// dismissedHost returns a host where the once-per-session modal id was shown
// and closed.
func dismissedHost(t *testing.T, id string) *modalhost.Host {
	t.Helper()
	host := modalhost.NewHost()
	host.ShowModal(onceModal(id))
	host.CloseModal(id)
	if !host.Dismissed(id) {
		t.Fatalf("Dismissed(%q) = false after close", id)
	}
	return host
}

func TestLogoutResetsModalSession(t *testing.T) {
	t.Parallel()

	host := dismissedHost(t, "onboarding")
	host.ShowModal(onceModal("welcome"))
	if _, ok := host.ActiveModalID(); !ok {
		t.Fatal("ActiveModalID() ok = false before logout")
	}

	gateway := &fakeGateway{}
	req := httptest.NewRequest(http.MethodPost, routepath.AuthLogout, nil)
	req.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: "tok-9"})
	req = req.WithContext(modalhost.WithHost(req.Context(), host))
	rr := httptest.NewRecorder()
	mountAuth(t, signedInDeps("user-9"), gateway).ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if gateway.endedToken != "tok-9" || gateway.endedUserID != "user-9" {
		t.Fatalf("EndSession(%q, %q), want tok-9 user-9", gateway.endedToken, gateway.endedUserID)
	}
	if id, ok := host.ActiveModalID(); ok {
		t.Fatalf("ActiveModalID() = %q, want none after logout", id)
	}
	if host.Dismissed("onboarding") {
		t.Fatal("Dismissed(onboarding) = true after logout, want false")
	}
	if cookie := responseCookie(rr, sessioncookie.Name); cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("session cookie = %+v, want cleared", cookie)
	}
}

func TestPasskeySignInResetsPreviousUserDismissals(t *testing.T) {
	t.Parallel()

	host := dismissedHost(t, "onboarding")
	req := httptest.NewRequest(http.MethodPost, routepath.PasskeyLoginFinish, strings.NewReader(`{"id":"ceremony-b","credential":{}}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(modalhost.WithHost(req.Context(), host))
	rr := httptest.NewRecorder()
	mountAuth(t, module.Dependencies{}, &fakeGateway{finishUserID: "user-b"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if host.Dismissed("onboarding") {
		t.Fatal("Dismissed(onboarding) = true after another user signed in, want false")
	}
	host.ShowModal(onceModal("onboarding"))
	if id, ok := host.ActiveModalID(); !ok || id != "onboarding" {
		t.Fatalf("ActiveModalID() = %q, %v, want onboarding, true", id, ok)
	}
}

func TestPasskeySignInFailureKeepsDismissals(t *testing.T) {
	t.Parallel()

	host := dismissedHost(t, "onboarding")
	req := httptest.NewRequest(http.MethodPost, routepath.PasskeyLoginFinish, strings.NewReader(`{"id":"c","credential":{}}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(modalhost.WithHost(req.Context(), host))
	gateway := &fakeGateway{finishErr: apperrors.EK(apperrors.KindUnauthorized, "auth.error.passkey_failed", "bad")}
	mountAuth(t, module.Dependencies{}, gateway).ServeHTTP(httptest.NewRecorder(), req)

	if !host.Dismissed("onboarding") {
		t.Fatal("Dismissed(onboarding) = false after failed sign-in, want true")
	}
}

func TestSafeNext(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                    routepath.AppDashboard,
		"/app/invites":        routepath.AppInvites,
		"//evil.example/app/": routepath.AppDashboard,
		"/app//evil":          routepath.AppDashboard,
		"https://x.example/":  routepath.AppDashboard,
		"/contact":            routepath.AppDashboard,
		" /app/settings ":     routepath.AppSettings,
	}
	for raw, want := range tests {
		if got := safeNext(raw); got != want {
			t.Fatalf("safeNext(%q) = %q, want %q", raw, got, want)
		}
	}
}
