package public

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" /{$}", h.handleLanding)
	mux.HandleFunc(http.MethodGet+" "+routepath.Contact, h.handleContact)
	mux.HandleFunc(http.MethodPost+" "+routepath.Contact, h.handleContactSubmit)
	mux.HandleFunc(http.MethodGet+" "+routepath.Login, h.handleLoginRedirect)
	mux.HandleFunc(http.MethodGet+" "+routepath.Health, h.handleHealth)
	mux.HandleFunc(http.MethodGet+" "+routepath.InviteShort, h.handleInviteQuery)
	mux.HandleFunc(http.MethodGet+" /app", h.handleAppRoot)
	mux.HandleFunc(http.MethodGet+" "+routepath.AppPrefix+"{$}", h.handleAppRoot)
	mux.HandleFunc("/", h.WriteNotFound)
}
