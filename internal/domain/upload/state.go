package upload

// State represents a step in the upload flow lifecycle
type State string

const (
	StateIdle         State = "IDLE"
	StateFileSelected State = "FILE_SELECTED"
	StateUploading    State = "UPLOADING"
	StateSucceeded    State = "SUCCEEDED"
	StateFailed       State = "FAILED"
)

var validStates = map[State]bool{
	StateIdle:         true,
	StateFileSelected: true,
	StateUploading:    true,
	StateSucceeded:    true,
	StateFailed:       true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known upload flow state
func (s State) IsValid() bool {
	return validStates[s]
}
