package settings

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.AppSettings, h.handleIndex)
	mux.HandleFunc(http.MethodPost+" "+routepath.AppSettings, h.handleSave)
	mux.HandleFunc(http.MethodGet+" "+routepath.SettingsPrefix+"{$}", h.handleIndex)
	mux.HandleFunc(routepath.SettingsPrefix+"{rest...}", h.WriteNotFound)
}
