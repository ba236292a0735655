package templates

// DialogProps configures the shared modal dialog frame.
type DialogProps struct {
	ID          string
	Title       string
	CloseAction string
	CloseLabel  string
}

// DialogElementID returns the DOM id of the dialog wrapper for a modal id.
func DialogElementID(modalID string) string {
	return "modal-" + modalID
}

func dialogTitleID(modalID string) string {
	return DialogElementID(modalID) + "-title"
}
