package modals

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodPost+" "+routepath.AppModalClosePattern, h.handleClose)
	mux.HandleFunc(routepath.AppModalClosePattern, httpx.MethodNotAllowed(http.MethodPost))
	mux.HandleFunc(routepath.ModalsPrefix, h.WriteNotFound)
}
