package event

// Type identifies the type of event
type Type string

const (
	// UI events delivered by the binding layer
	TypeClick  Type = "ui.click"
	TypeChange Type = "ui.change"
	TypeSubmit Type = "ui.submit"

	// Domain events raised by the new-bill workflow
	TypeBillCreated        Type = "bill.created"
	TypeAttachmentUploaded Type = "attachment.uploaded"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClick,
		TypeChange,
		TypeSubmit,
		TypeBillCreated,
		TypeAttachmentUploaded:
		return true
	default:
		return false
	}
}

// IsUI reports whether the event originates from a user interaction
func (t Type) IsUI() bool {
	return t == TypeClick || t == TypeChange || t == TypeSubmit
}
