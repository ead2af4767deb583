package upload

// Trigger represents an event that can advance the upload flow
type Trigger string

const (
	// TriggerSelect records a file being chosen (or re-chosen)
	TriggerSelect Trigger = "SELECT"

	// TriggerSubmit starts the upload request
	TriggerSubmit Trigger = "SUBMIT"

	// TriggerComplete records a successful upload response
	TriggerComplete Trigger = "COMPLETE"

	// TriggerFail records a rejected file or a failed request
	TriggerFail Trigger = "FAIL"

	// TriggerRetry returns a failed flow to the selected-file step
	TriggerRetry Trigger = "RETRY"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
