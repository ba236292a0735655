package publicinvites

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.InvitePrefix+"{$}", h.handleInviteQuery)
	mux.HandleFunc(http.MethodGet+" "+routepath.InvitePattern, h.handleLanding)
	mux.HandleFunc(http.MethodPost+" "+routepath.InviteValidatePattern, h.handleValidate)
	mux.HandleFunc(http.MethodGet+" "+routepath.InviteContinuePattern, h.handleContinue)
	mux.HandleFunc(routepath.InvitePrefix, h.WriteNotFound)
}
