package upload

import "fmt"

// Flow tracks the state of a single upload interaction and validates
// transitions. The flow has no terminal states: a finished upload is
// simply abandoned when the user navigates away, and a failed one can
// retry from the selected file.
type Flow struct {
	current State
}

// transitions maps each state to the triggers it permits and their
// target states.
var transitions = map[State]map[Trigger]State{
	StateIdle: {
		TriggerSelect: StateFileSelected,
	},
	StateFileSelected: {
		TriggerSelect: StateFileSelected,
		TriggerSubmit: StateUploading,
		TriggerFail:   StateFileSelected,
	},
	StateUploading: {
		TriggerComplete: StateSucceeded,
		TriggerFail:     StateFailed,
	},
	StateFailed: {
		TriggerSelect: StateFileSelected,
		TriggerRetry:  StateFileSelected,
	},
	StateSucceeded: {},
}

// NewFlow creates a flow in the idle state.
func NewFlow() *Flow {
	return &Flow{current: StateIdle}
}

// State returns the current state.
func (f *Flow) State() State {
	return f.current
}

// CanFire returns true if the trigger is permitted in the current state.
func (f *Flow) CanFire(trigger Trigger) bool {
	_, ok := transitions[f.current][trigger]
	return ok
}

// Fire attempts to execute the trigger, transitioning to the new state
// if allowed.
func (f *Flow) Fire(trigger Trigger) error {
	next, ok := transitions[f.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, f.current)
	}
	f.current = next
	return nil
}

// PermittedTriggers returns all triggers that can be fired in the
// current state.
func (f *Flow) PermittedTriggers() []Trigger {
	permitted := transitions[f.current]
	triggers := make([]Trigger, 0, len(permitted))
	for trigger := range permitted {
		triggers = append(triggers, trigger)
	}
	return triggers
}
