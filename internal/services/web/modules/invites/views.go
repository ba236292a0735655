package invites

import (
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

type newInviteState struct {
	Draft       Draft
	Errors      FieldErrors
	FormError   string
	FormMessage string
}

type inviteDetailState struct {
	Invite    casanorteapi.Invite
	ShareLink string
}

// formAlert prefers the API's message over the generic form error key.
func (s newInviteState) formAlert(loc webtemplates.Localizer) string {
	switch {
	case s.FormMessage != "":
		return s.FormMessage
	case s.FormError != "":
		return webtemplates.T(loc, s.FormError)
	}
	return ""
}

func inviteStatus(invite casanorteapi.Invite) string {
	if status := strings.TrimSpace(invite.Status); status != "" {
		return status
	}
	return webtemplates.EmptyValue
}
