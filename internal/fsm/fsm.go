// Package fsm defines the interview lifecycle state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StatePreparing    State = "preparing"
	StateInstructions State = "instructions"
	StateRecording    State = "recording"
	StateAnalyzing    State = "analyzing"
	StateFeedback     State = "feedback"
	StateCompleted    State = "completed"
)

const (
	EventStart     Event = "start"
	EventReady     Event = "ready"
	EventAnswer    Event = "answer"
	EventStop      Event = "stop"
	EventAnalyzed  Event = "analyzed"
	EventNext      Event = "next"
	EventComplete  Event = "complete"
	EventReset     Event = "reset"
	EventTerminate Event = "terminate"
)

// Transition returns the state reached by applying event to current.
// Reset is accepted from every known state; terminate only while the
// candidate is expected to hold full-screen.
func Transition(current State, event Event) (State, error) {
	if event == EventReset && current.known() {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StatePreparing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePreparing:
		switch event {
		case EventReady:
			return StateInstructions, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateInstructions:
		switch event {
		case EventAnswer:
			return StateRecording, nil
		case EventTerminate:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateAnalyzing, nil
		case EventTerminate:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAnalyzing:
		switch event {
		case EventAnalyzed:
			return StateFeedback, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFeedback:
		switch event {
		case EventNext:
			return StateInstructions, nil
		case EventComplete:
			return StateCompleted, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCompleted:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// FullScreenRequired reports whether the candidate must hold full-screen in s.
func (s State) FullScreenRequired() bool {
	return s == StateInstructions || s == StateRecording
}

func (s State) known() bool {
	switch s {
	case StateIdle, StatePreparing, StateInstructions, StateRecording,
		StateAnalyzing, StateFeedback, StateCompleted:
		return true
	default:
		return false
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
