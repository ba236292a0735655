package settings

import (
	"net/http"

	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

const maxSettingsFormBytes = 16 << 10

type handlers struct {
	modulehandler.Base
	service service
}

func newHandlers(base modulehandler.Base, s service) handlers {
	return handlers{Base: base, service: s}
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, userID := h.RequestContextAndUserID(r)
	account, err := h.service.loadAccount(ctx, userID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	state := settingsState{
		Account: account,
		Saved:   r.URL.Query().Get(routepath.SettingsNoticeQueryKey) == routepath.SettingsNoticeSaved,
	}
	h.WritePage(w, r, "settings.title", http.StatusOK, settingsView(h.RequestLocalizer(r), state))
}

func (h handlers) handleSave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSettingsFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	account, errs := validate(Account{
		FirstName:   r.PostFormValue("firstName"),
		LastName:    r.PostFormValue("lastName"),
		Email:       r.PostFormValue("email"),
		PhoneNumber: r.PostFormValue("phoneNumber"),
	})
	if errs != nil {
		h.WritePage(w, r, "settings.title", http.StatusUnprocessableEntity, settingsView(h.RequestLocalizer(r), settingsState{Account: account, Errors: errs}))
		return
	}

	ctx, userID := h.RequestContextAndUserID(r)
	if err := h.service.saveAccount(ctx, userID, account); err != nil {
		key := apperrors.LocalizationKey(err)
		if key == "" {
			h.WriteError(w, r, err)
			return
		}
		state := settingsState{Account: account, FormError: key}
		h.WritePage(w, r, "settings.title", apperrors.HTTPStatus(err), settingsView(h.RequestLocalizer(r), state))
		return
	}
	httpx.WriteRedirect(w, r, routepath.AppSettingsWithNotice(routepath.SettingsNoticeSaved))
}
