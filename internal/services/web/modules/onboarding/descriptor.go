package onboarding

import (
	"github.com/casanorte/casanorte/internal/platform/phone"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
)

// ModalID identifies the onboarding dialog in the modal host.
const ModalID = "onboarding"

// Dialog steps in order.
const (
	StepWelcome = "welcome"
	StepContact = "contact"
	StepPhoto   = "photo"
)

// Dialog prop keys.
const (
	PropFirstName = "defaultFirstName"
	PropLastName  = "defaultLastName"
	PropPhone     = "defaultPhone"
	PropStep      = "step"
	PropErrors    = "errors"
)

// FieldErrors maps form field names to localization keys.
type FieldErrors map[string]string

// Form is the onboarding data carried between dialog steps.
type Form struct {
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Descriptor returns the once-per-session onboarding modal at step with form
// prefilled. errs may be nil.
func Descriptor(step string, form Form, errs FieldErrors) modalhost.Descriptor {
	props := modalhost.Props{
		PropFirstName: form.FirstName,
		PropLastName:  form.LastName,
		PropPhone:     form.PhoneNumber,
		PropStep:      normalizeStep(step),
	}
	if len(errs) > 0 {
		props[PropErrors] = errs
	}
	return modalhost.Descriptor{
		ID:             ModalID,
		Component:      modalhost.RenderFunc(renderDialog),
		Props:          props,
		OncePerSession: true,
	}
}

// FormFromViewer prefills onboarding from what is already known about the viewer.
func FormFromViewer(viewer module.Viewer) Form {
	form := Form{FirstName: viewer.FirstName, LastName: viewer.LastName, PhoneNumber: viewer.PhoneNumber}
	if formatted, ok := phone.FormatEnglish(viewer.PhoneNumber); ok {
		form.PhoneNumber = formatted
	}
	return form
}

func formFromProps(props modalhost.Props) Form {
	return Form{
		FirstName:   props.String(PropFirstName),
		LastName:    props.String(PropLastName),
		PhoneNumber: props.String(PropPhone),
	}
}

func errorsFromProps(props modalhost.Props) FieldErrors {
	if props == nil {
		return nil
	}
	errs, _ := props[PropErrors].(FieldErrors)
	return errs
}

func normalizeStep(step string) string {
	switch step {
	case StepContact, StepPhoto:
		return step
	}
	return StepWelcome
}
