package publicinvites

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/publichandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

const maxValidateFormBytes = 4 << 10

type handlers struct {
	publichandler.Base
	service service
}

func newHandlers(base publichandler.Base, s service) handlers {
	return handlers{Base: base, service: s}
}

func (h handlers) handleInviteQuery(w http.ResponseWriter, r *http.Request) {
	inviteID := strings.TrimSpace(r.URL.Query().Get(routepath.InviteQueryKey))
	if inviteID == "" {
		h.WriteNotFound(w, r)
		return
	}
	http.Redirect(w, r, routepath.Invite(inviteID), http.StatusFound)
}

func (h handlers) handleLanding(w http.ResponseWriter, r *http.Request) {
	invite, err := h.service.invite(r.Context(), r.PathValue("inviteID"))
	if err != nil {
		h.writeInviteError(w, r, err)
		return
	}
	h.WritePublicPage(w, r, "invites.public.title", http.StatusOK, landingView(h.RequestLocalizer(r), landingState{
		Invite: invite,
		Open:   h.service.open(invite),
	}))
}

func (h handlers) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxValidateFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	inviteID := strings.TrimSpace(r.PathValue("inviteID"))
	invite, err := h.service.invite(r.Context(), inviteID)
	if err != nil {
		h.writeInviteError(w, r, err)
		return
	}
	state := landingState{Invite: invite, Open: h.service.open(invite)}
	if !state.Open {
		h.WritePublicPage(w, r, "invites.public.title", http.StatusGone, landingView(h.RequestLocalizer(r), state))
		return
	}
	browserKey, ok := modalhost.ReadBrowserKey(r)
	if !ok {
		state.Outcome = &Outcome{ReasonKey: "invites.public.error.cookies_required"}
		h.WritePublicPage(w, r, "invites.public.title", http.StatusBadRequest, landingView(h.RequestLocalizer(r), state))
		return
	}
	outcome, err := h.service.validate(r.Context(), inviteID, browserKey, r.PostFormValue("last4"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	if !outcome.Valid {
		state.Outcome = &outcome
		h.WritePublicPage(w, r, "invites.public.title", http.StatusUnprocessableEntity, landingView(h.RequestLocalizer(r), state))
		return
	}
	httpx.WriteRedirect(w, r, routepath.InviteContinue(inviteID))
}

func (h handlers) handleContinue(w http.ResponseWriter, r *http.Request) {
	inviteID := strings.TrimSpace(r.PathValue("inviteID"))
	browserKey, _ := modalhost.ReadBrowserKey(r)
	if !h.service.validated(r.Context(), inviteID, browserKey) {
		http.Redirect(w, r, routepath.Invite(inviteID), http.StatusFound)
		return
	}
	values := url.Values{"invite": {inviteID}, "tab": {"register"}}
	http.Redirect(w, r, routepath.AuthLogin+"?"+values.Encode(), http.StatusFound)
}

func (h handlers) writeInviteError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound, apperrors.KindInvalidInput, apperrors.KindForbidden:
		h.WriteNotFound(w, r)
	default:
		h.WriteError(w, r, err)
	}
}
