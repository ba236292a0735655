package onboarding

import (
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"
)

var stepOrder = []string{StepWelcome, StepContact, StepPhoto}

// dialogTarget is the HTMX swap target for every form inside the dialog.
var dialogTarget = "#" + webtemplates.DialogElementID(ModalID)

func dialogProps(loc webtemplates.Localizer, props modalhost.Props) webtemplates.DialogProps {
	return webtemplates.DialogProps{
		ID:          ModalID,
		Title:       webtemplates.T(loc, "onboarding.title"),
		CloseAction: props.CloseAction(),
		CloseLabel:  webtemplates.T(loc, "core.dialog.close"),
	}
}

func localized(loc webtemplates.Localizer, key string) string {
	if key == "" {
		return ""
	}
	return webtemplates.T(loc, key)
}
