package onboarding

import (
	"net/http"

	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodPost+" "+routepath.AppOnboardingStep, h.handleStep)
	mux.HandleFunc(http.MethodPost+" "+routepath.AppOnboardingComplete, h.handleComplete)
	mux.HandleFunc(routepath.OnboardingPrefix, h.WriteNotFound)
}
