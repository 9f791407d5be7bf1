package workflow

// State represents the attachment state of a new-bill form
type State string

const (
	StateIdle      State = "IDLE"
	StateRejected  State = "REJECTED"
	StateUploading State = "UPLOADING"
	StateReady     State = "READY"
)

var validStates = map[State]bool{
	StateIdle:      true,
	StateRejected:  true,
	StateUploading: true,
	StateReady:     true,
}

// HasAttachment returns true if the state carries a completed upload
func (s State) HasAttachment() bool {
	return s == StateReady
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known form state
func (s State) IsValid() bool {
	return validStates[s]
}
