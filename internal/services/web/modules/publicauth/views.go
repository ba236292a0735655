package publicauth

import webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"

const (
	tabPasskey  = "passkey"
	tabPhone    = "phone"
	tabRegister = "register"
)

type loginState struct {
	Next        string
	InviteID    string
	Tab         string
	PhoneNumber string
	ErrorKey    string
}

type verifyState struct {
	MaskedPhone string
	Next        string
	ErrorKey    string
}

func normalizeTab(tab string, inviteID string) string {
	if inviteID != "" {
		return tabRegister
	}
	switch tab {
	case tabPhone, tabRegister:
		return tab
	}
	return tabPasskey
}

// phoneErrorKey is the error shown in the phone panel, if any.
func (s loginState) phoneErrorKey() string {
	if s.Tab != tabPhone {
		return ""
	}
	return s.ErrorKey
}

func authPanelID(tab string) string {
	return "auth-" + tab
}

func localized(loc webtemplates.Localizer, key string) string {
	if key == "" {
		return ""
	}
	return webtemplates.T(loc, key)
}
