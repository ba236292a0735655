package invites

import (
	"net/http"
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	flashnotice "github.com/casanorte/casanorte/internal/services/web/platform/flash"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/platform/requestmeta"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

const maxInviteFormBytes = 16 << 10

type handlers struct {
	modulehandler.Base
	service service
}

func newHandlers(base modulehandler.Base, s service) handlers {
	return handlers{Base: base, service: s}
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, routepath.AppInvitesNew, http.StatusFound)
}

func (h handlers) handleNew(w http.ResponseWriter, r *http.Request) {
	draft := Draft{Roles: []string{casanorteapi.RoleTeamMember}}
	h.WritePage(w, r, "invites.new.title", http.StatusOK, newInviteView(h.RequestLocalizer(r), newInviteState{Draft: draft}))
}

func (h handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxInviteFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	draft, errs := validate(Draft{
		FirstName:   r.PostFormValue("firstName"),
		LastName:    r.PostFormValue("lastName"),
		Email:       r.PostFormValue("email"),
		PhoneNumber: r.PostFormValue("phoneNumber"),
		Roles:       r.PostForm["roles"],
	})
	if errs != nil {
		h.WritePage(w, r, "invites.new.title", http.StatusUnprocessableEntity, newInviteView(h.RequestLocalizer(r), newInviteState{Draft: draft, Errors: errs}))
		return
	}

	ctx, userID := h.RequestContextAndUserID(r)
	invite, err := h.service.create(ctx, userID, draft)
	if err != nil {
		h.service.logger.Printf("invite create failed user_id=%s err=%v", userID, err)
		state := newInviteState{Draft: draft, FormError: apperrors.LocalizationKey(err), FormMessage: casanorteapi.Message(err)}
		switch apperrors.KindOf(err) {
		case apperrors.KindInvalidInput, apperrors.KindConflict:
			h.WritePage(w, r, "invites.new.title", http.StatusUnprocessableEntity, newInviteView(h.RequestLocalizer(r), state))
		case apperrors.KindUnauthorized, apperrors.KindForbidden, apperrors.KindUnknown:
			h.WriteError(w, r, err)
		default:
			if state.FormError == "" {
				state.FormError = "invites.error.unavailable"
			}
			h.WritePage(w, r, "invites.new.title", http.StatusBadGateway, newInviteView(h.RequestLocalizer(r), state))
		}
		return
	}
	flashnotice.Write(w, r, flashnotice.Success("invites.created"), h.Dependencies().SchemePolicy)
	httpx.WriteRedirect(w, r, routepath.AppInvite(invite.InviteID))
}

func (h handlers) handleDetail(w http.ResponseWriter, r *http.Request) {
	inviteID := strings.TrimSpace(r.PathValue("inviteID"))
	ctx, userID := h.RequestContextAndUserID(r)
	invite, err := h.service.invite(ctx, userID, inviteID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	state := inviteDetailState{Invite: invite, ShareLink: h.shareLink(r, invite)}
	h.WritePage(w, r, "invites.detail.title", http.StatusOK, inviteDetailView(h.RequestLocalizer(r), state))
}

// shareLink prefers the link minted by the API.
func (h handlers) shareLink(r *http.Request, invite casanorteapi.Invite) string {
	if link := strings.TrimSpace(invite.InviteLink); link != "" {
		return link
	}
	return requestmeta.AbsoluteURL(r, h.Dependencies().SchemePolicy, routepath.InviteShare(invite.InviteID))
}
