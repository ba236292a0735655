package invites

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.AppInvites, h.handleIndex)
	mux.HandleFunc(http.MethodPost+" "+routepath.AppInvites, h.handleCreate)
	mux.HandleFunc(routepath.AppInvites, httpx.MethodNotAllowed(http.MethodGet, http.MethodHead, http.MethodPost))
	mux.HandleFunc(http.MethodGet+" "+routepath.InvitesPrefix+"{$}", h.handleIndex)
	mux.HandleFunc(http.MethodGet+" "+routepath.AppInvitesNew, h.handleNew)
	mux.HandleFunc(http.MethodGet+" "+routepath.AppInvitePattern, h.handleDetail)
	mux.HandleFunc(routepath.InvitesPrefix+"{rest...}", h.WriteNotFound)
}
