package publicinvites

import (
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

type landingState struct {
	Invite  casanorteapi.PublicInvite
	Open    bool
	Outcome *Outcome
}

func (s landingState) heading(loc webtemplates.Localizer) string {
	if tenant := strings.TrimSpace(s.Invite.TenantName); tenant != "" {
		return webtemplates.T(loc, "invites.public.heading_tenant", tenant)
	}
	return webtemplates.T(loc, "invites.public.heading")
}

func (s landingState) expires() string {
	if expiry := s.Invite.Expiry(); !expiry.IsZero() {
		return webtemplates.FormatTime(expiry)
	}
	return ""
}

// last4Field carries the last validation failure, preferring upstream text.
func (s landingState) last4Field() webtemplates.Field {
	field := webtemplates.Field{Name: "last4", Type: "text", LabelKey: "invites.public.field.last4", Required: true, InputMode: "numeric", MaxLength: 4, Autocomplete: "off"}
	if outcome := s.Outcome; outcome != nil {
		if outcome.Reason != "" {
			field.ErrorMessage = outcome.Reason
		} else {
			field.ErrorKey = outcome.ReasonKey
		}
	}
	return field
}

func (s landingState) remainingAttempts() int {
	if s.Outcome == nil {
		return 0
	}
	return s.Outcome.RemainingAttempts
}
