package templates

// Field describes one labelled form control.
type Field struct {
	Name         string
	Type         string
	LabelKey     string
	Value        string
	Placeholder  string
	Autocomplete string
	Accept       string
	Required     bool
	ErrorKey     string
	ErrorMessage string
	HintKey      string
	InputMode    string
	MaxLength    int
}

// Option is one choice of a select control.
type Option struct {
	Value    string
	LabelKey string
}

// FieldID returns the DOM id used for a field name.
func FieldID(name string) string {
	return "field-" + name
}

func inputType(field Field) string {
	if field.Type == "" {
		return "text"
	}
	return field.Type
}

func fieldErrorID(field Field) string {
	return FieldID(field.Name) + "-error"
}

func fieldErrorMessage(loc Localizer, field Field) string {
	if field.ErrorMessage != "" {
		return field.ErrorMessage
	}
	return T(loc, field.ErrorKey)
}

func fieldHasError(field Field) bool {
	return field.ErrorKey != "" || field.ErrorMessage != ""
}
