package workflow

// NewUploadMachine builds the state machine of the new-bill attachment.
//
// Selecting a file is allowed from every state. Upload completions are
// accepted in every state so the last completion to arrive wins. Submission
// is refused once a selection has been rejected.
func NewUploadMachine() StateMachine {
	b := NewBuilder()

	for _, s := range []State{StateIdle, StateRejected, StateUploading, StateReady} {
		b.Configure(s).
			Permit(TriggerSelectNone, StateRejected).
			Permit(TriggerSelectInvalid, StateRejected).
			Permit(TriggerSelectValid, StateUploading).
			Permit(TriggerUploadSucceeded, StateReady)
	}

	b.Configure(StateIdle).
		Permit(TriggerUploadFailed, StateIdle).
		Permit(TriggerSubmit, StateIdle)

	b.Configure(StateRejected).
		Permit(TriggerUploadFailed, StateRejected)

	b.Configure(StateUploading).
		Permit(TriggerUploadFailed, StateIdle).
		Permit(TriggerSubmit, StateIdle)

	b.Configure(StateReady).
		Permit(TriggerUploadFailed, StateReady).
		Permit(TriggerSubmit, StateIdle)

	return b.Build(StateIdle)
}
