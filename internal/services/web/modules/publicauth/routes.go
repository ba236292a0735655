package publicauth

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.AuthLogin, h.handleLogin)
	mux.HandleFunc(http.MethodGet+" "+routepath.AuthVerify, h.handleVerify)
	mux.HandleFunc(http.MethodPost+" "+routepath.PasskeyRegisterStart, h.handlePasskeyRegisterStart)
	mux.HandleFunc(http.MethodPost+" "+routepath.PasskeyRegisterFinish, h.handlePasskeyRegisterFinish)
	mux.HandleFunc(http.MethodPost+" "+routepath.PasskeyLoginStart, h.handlePasskeyLoginStart)
	mux.HandleFunc(http.MethodPost+" "+routepath.PasskeyLoginFinish, h.handlePasskeyLoginFinish)
	mux.HandleFunc(http.MethodPost+" "+routepath.OTPSend, h.handleOTPSend)
	mux.HandleFunc(http.MethodPost+" "+routepath.OTPVerify, h.handleOTPVerify)
	mux.HandleFunc(http.MethodPost+" "+routepath.AuthLogout, h.handleLogout)
	mux.HandleFunc(routepath.AuthLogout, httpx.MethodNotAllowed(http.MethodPost))
	mux.HandleFunc(routepath.AuthPrefix, h.WriteNotFound)
}
