package port

// Alerter shows a blocking message to the user
type Alerter interface {
	Alert(message string)
}

// Modal displays an attachment preview
type Modal interface {
	Show(fileURL string)
}

// ErrorView renders a store failure in place of the normal content
type ErrorView interface {
	ShowError(message string)
}
