package dashboard

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
)

type handlers struct {
	modulehandler.Base
	service service
}

func newHandlers(base modulehandler.Base, s service) handlers {
	return handlers{Base: base, service: s}
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := h.service.loadDashboard(h.RequestViewer(r))
	h.WritePage(w, r, "dashboard.title", http.StatusOK, dashboardView(h.RequestLocalizer(r), view))
}

// handleHealth serves the polled health card list.
func (h handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	view := h.service.loadDashboard(h.RequestViewer(r))
	h.WriteFragment(w, r, http.StatusOK, healthCardsView(h.RequestLocalizer(r), view))
}
