package publicauth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/casanorte/casanorte/internal/platform/phone"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	"github.com/casanorte/casanorte/internal/services/web/passkeys"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	flashnotice "github.com/casanorte/casanorte/internal/services/web/platform/flash"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/publichandler"
	"github.com/casanorte/casanorte/internal/services/web/platform/sessioncookie"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

const maxAuthFormBytes = 16 << 10

type handlers struct {
	publichandler.Base
	gateway AuthGateway
	config  Config
	logger  *log.Logger
}

func newHandlers(base publichandler.Base, gateway AuthGateway, config Config) handlers {
	if gateway == nil {
		gateway = unavailableGateway{}
	}
	if config.OTPTTL <= 0 {
		config.OTPTTL = DefaultOTPTTL
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	return handlers{Base: base, gateway: gateway, config: config, logger: logger}
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	InviteID    string `json:"inviteId"`
}

type finishRequest struct {
	ID         string          `json:"id"`
	Credential json.RawMessage `json:"credential"`
	Next       string          `json:"next"`
}

type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ceremonyData struct {
	ID      string          `json:"id"`
	Options json.RawMessage `json:"options"`
}

type redirectData struct {
	Redirect string `json:"redirect"`
}

func (h handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.IsViewerSignedIn(r) {
		http.Redirect(w, r, safeNext(r.URL.Query().Get(routepath.RedirectQueryKey)), http.StatusFound)
		return
	}
	query := r.URL.Query()
	h.writeLogin(w, r, http.StatusOK, loginState{
		Next:     query.Get(routepath.RedirectQueryKey),
		InviteID: strings.TrimSpace(query.Get("invite")),
		Tab:      query.Get("tab"),
	})
}

func (h handlers) writeLogin(w http.ResponseWriter, r *http.Request, status int, state loginState) {
	state.Tab = normalizeTab(state.Tab, state.InviteID)
	h.WritePublicPage(w, r, "auth.login.title", status, loginView(h.RequestLocalizer(r), state))
}

func (h handlers) handleVerify(w http.ResponseWriter, r *http.Request) {
	if h.IsViewerSignedIn(r) {
		http.Redirect(w, r, routepath.AppDashboard, http.StatusFound)
		return
	}
	challengeID, ok := readChallengeCookie(r)
	if !ok {
		http.Redirect(w, r, phoneTabURL(r.URL.Query().Get(routepath.RedirectQueryKey)), http.StatusFound)
		return
	}
	challenge, err := h.gateway.PhoneChallenge(r.Context(), challengeID)
	if err != nil {
		h.expireChallenge(w, r, r.URL.Query().Get(routepath.RedirectQueryKey), err)
		return
	}
	h.writeVerify(w, r, http.StatusOK, verifyState{
		MaskedPhone: phone.Mask(challenge.PhoneNumber),
		Next:        r.URL.Query().Get(routepath.RedirectQueryKey),
	})
}

func (h handlers) writeVerify(w http.ResponseWriter, r *http.Request, status int, state verifyState) {
	h.WritePublicPage(w, r, "auth.verify.title", status, verifyView(h.RequestLocalizer(r), state))
}

func (h handlers) handlePasskeyRegisterStart(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	inviteID := strings.TrimSpace(req.InviteID)
	if inviteID != "" {
		browserKey, _ := modalhost.ReadBrowserKey(r)
		if !h.gateway.InviteValidated(r.Context(), inviteID, browserKey) {
			h.writeJSONError(w, r, apperrors.EK(apperrors.KindForbidden, "auth.error.invite_unverified", "invite phone digits were not confirmed"))
			return
		}
	}
	ceremony, err := h.gateway.BeginPasskeyRegistration(r.Context(), passkeys.Registrant{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		InviteID:    inviteID,
	})
	if err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	h.writeCeremony(w, ceremony)
}

func (h handlers) handlePasskeyRegisterFinish(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	userID, err := h.gateway.FinishPasskeyRegistration(r.Context(), req.ID, req.Credential)
	if err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	h.signInJSON(w, r, userID, "passkey_registration", req.Next)
}

func (h handlers) handlePasskeyLoginStart(w http.ResponseWriter, r *http.Request) {
	ceremony, err := h.gateway.BeginPasskeyLogin(r.Context())
	if err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	h.writeCeremony(w, ceremony)
}

func (h handlers) handlePasskeyLoginFinish(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	userID, err := h.gateway.FinishPasskeyLogin(r.Context(), req.ID, req.Credential)
	if err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	h.signInJSON(w, r, userID, "passkey", req.Next)
}

func (h handlers) handleOTPSend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	next := r.PostFormValue(routepath.RedirectQueryKey)
	phoneNumber := r.PostFormValue("phoneNumber")
	challengeID, err := h.gateway.SendPhoneCode(r.Context(), phoneNumber, r.PostFormValue("recaptchaToken"))
	if err != nil {
		h.logger.Printf("auth otp send failed request_id=%s kind=%s err=%v", httpx.RequestIDFrom(r), apperrors.KindOf(err), err)
		h.writeLogin(w, r, statusForFormError(err), loginState{
			Next:        next,
			Tab:         tabPhone,
			PhoneNumber: phoneNumber,
			ErrorKey:    errorKey(err),
		})
		return
	}
	writeChallengeCookie(w, r, challengeID, h.config.OTPTTL, h.SchemePolicy())
	httpx.WriteRedirect(w, r, verifyURL(next))
}

func (h handlers) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	next := r.PostFormValue(routepath.RedirectQueryKey)
	challengeID, ok := readChallengeCookie(r)
	if !ok {
		httpx.WriteRedirect(w, r, phoneTabURL(next))
		return
	}
	userID, err := h.gateway.VerifyPhoneCode(r.Context(), challengeID, r.PostFormValue("code"))
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindInvalidInput {
			h.expireChallenge(w, r, next, err)
			return
		}
		challenge, lookupErr := h.gateway.PhoneChallenge(r.Context(), challengeID)
		if lookupErr != nil {
			h.expireChallenge(w, r, next, lookupErr)
			return
		}
		h.writeVerify(w, r, http.StatusUnprocessableEntity, verifyState{
			MaskedPhone: phone.Mask(challenge.PhoneNumber),
			Next:        next,
			ErrorKey:    errorKey(err),
		})
		return
	}
	if !h.startSession(w, r, userID, "phone") {
		return
	}
	clearChallengeCookie(w, r, h.SchemePolicy())
	httpx.WriteRedirect(w, r, safeNext(next))
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := sessioncookie.Read(r)
	userID := h.RequestUserID(r)
	if err := h.gateway.EndSession(r.Context(), token, userID); err != nil {
		h.logger.Printf("auth logout revoke failed user_id=%s err=%v", userID, err)
	}
	resetModalSession(r)
	sessioncookie.Clear(w, r, h.SchemePolicy())
	clearChallengeCookie(w, r, h.SchemePolicy())
	httpx.WriteRedirect(w, r, routepath.Root)
}

func (h handlers) signInJSON(w http.ResponseWriter, r *http.Request, userID string, method string, next string) {
	session, err := h.gateway.StartSession(r.Context(), userID)
	if err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	resetModalSession(r)
	sessioncookie.Write(w, r, session.Token, h.config.SessionTTL, h.SchemePolicy())
	h.logger.Printf("auth sign-in user_id=%s method=%s", userID, method)
	_ = httpx.WriteJSON(w, http.StatusOK, envelope{Message: "ok", Data: redirectData{Redirect: safeNext(next)}})
}

func (h handlers) startSession(w http.ResponseWriter, r *http.Request, userID string, method string) bool {
	session, err := h.gateway.StartSession(r.Context(), userID)
	if err != nil {
		h.WriteError(w, r, err)
		return false
	}
	resetModalSession(r)
	sessioncookie.Write(w, r, session.Token, h.config.SessionTTL, h.SchemePolicy())
	h.logger.Printf("auth sign-in user_id=%s method=%s", userID, method)
	return true
}

// resetModalSession clears the browser's dismissed modals when its signed-in
// user changes.
func resetModalSession(r *http.Request) {
	if host, err := modalhost.FromContext(r.Context()); err == nil {
		host.ResetSession()
	}
}

func (h handlers) writeCeremony(w http.ResponseWriter, ceremony passkeys.Ceremony) {
	_ = httpx.WriteJSON(w, http.StatusOK, envelope{Message: "ok", Data: ceremonyData{ID: ceremony.ID, Options: ceremony.Options}})
}

func (h handlers) writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.Printf("auth request failed path=%s request_id=%s err=%v", r.URL.Path, httpx.RequestIDFrom(r), err)
	}
	_ = httpx.WriteJSONError(w, err, webtemplates.T(h.RequestLocalizer(r), errorKey(err)))
}

func (h handlers) expireChallenge(w http.ResponseWriter, r *http.Request, next string, err error) {
	if kind := apperrors.KindOf(err); kind == apperrors.KindUnavailable || kind == apperrors.KindUnknown {
		h.WriteError(w, r, err)
		return
	}
	clearChallengeCookie(w, r, h.SchemePolicy())
	flashnotice.Write(w, r, flashnotice.Failure(errorKey(err)), h.SchemePolicy())
	httpx.WriteRedirect(w, r, phoneTabURL(next))
}

func errorKey(err error) string {
	if key := apperrors.LocalizationKey(err); key != "" {
		return key
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) || apperrors.KindOf(err) == apperrors.KindInvalidInput {
		return "auth.error.invalid_request"
	}
	if apperrors.KindOf(err) == apperrors.KindUnavailable {
		return "auth.error.unavailable"
	}
	return "auth.error.generic"
}

func statusForFormError(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput:
		return http.StatusUnprocessableEntity
	case apperrors.KindUnknown:
		return http.StatusBadGateway
	}
	return apperrors.HTTPStatus(err)
}

func verifyURL(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || safeNext(next) != next {
		return routepath.AuthVerify
	}
	return routepath.AuthVerify + "?" + routepath.RedirectQueryKey + "=" + url.QueryEscape(next)
}

func phoneTabURL(next string) string {
	values := url.Values{"tab": {tabPhone}}
	if next = strings.TrimSpace(next); next != "" && safeNext(next) == next {
		values.Set(routepath.RedirectQueryKey, next)
	}
	return routepath.AuthLogin + "?" + values.Encode()
}
