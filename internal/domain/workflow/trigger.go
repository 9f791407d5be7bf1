package workflow

// Trigger represents a form event that can cause a state transition
type Trigger string

const (
	TriggerSelectNone      Trigger = "SELECT_NONE"
	TriggerSelectInvalid   Trigger = "SELECT_INVALID"
	TriggerSelectValid     Trigger = "SELECT_VALID"
	TriggerUploadSucceeded Trigger = "UPLOAD_SUCCEEDED"
	TriggerUploadFailed    Trigger = "UPLOAD_FAILED"
	TriggerSubmit          Trigger = "SUBMIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
