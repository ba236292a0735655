package modals

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

type handlers struct {
	modulehandler.Base
}

// handleClose dismisses the active modal when its id matches the path. HTMX
// callers get an empty 200 so the dialog wrapper swaps out in place.
func (h handlers) handleClose(w http.ResponseWriter, r *http.Request) {
	host, err := h.ModalHost(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	host.CloseModal(r.PathValue("modalID"))
	if httpx.IsHTMXRequest(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	httpx.WriteRedirect(w, r, routepath.AppReturn(r.Referer(), r.Host))
}
