package settings

import webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"

type settingsState struct {
	Account   Account
	Errors    FieldErrors
	FormError string
	Saved     bool
}

func (s settingsState) formAlert(loc webtemplates.Localizer) string {
	if s.FormError == "" {
		return ""
	}
	return webtemplates.T(loc, s.FormError)
}
