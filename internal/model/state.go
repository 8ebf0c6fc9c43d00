package model

import "fmt"

// ScanState tracks one host's progress through its scan.
// A host moves strictly forward: Idle → Resolving → Connecting → Probing
// → Done, with Failed reachable from Resolving or Connecting. No state is
// ever revisited.
type ScanState int

const (
	// StateIdle means the host's task has not started yet.
	StateIdle ScanState = iota

	// StateResolving means the host name is being resolved to endpoints.
	StateResolving

	// StateConnecting means resolved endpoints are being tried in order.
	StateConnecting

	// StateProbing means per-(method, cipher) probes are being prepared
	// against the established connection.
	StateProbing

	// StateDone means the host's scan finished.
	StateDone

	// StateFailed means resolution or connection failed for this host.
	// Probing failures do not exist: probes are constructed, not executed.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s ScanState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateConnecting:
		return "connecting"
	case StateProbing:
		return "probing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// validTransitions enumerates the allowed forward edges of the state machine.
var validTransitions = map[ScanState][]ScanState{
	StateIdle:       {StateResolving},
	StateResolving:  {StateConnecting, StateFailed},
	StateConnecting: {StateProbing, StateFailed},
	StateProbing:    {StateDone},
	StateDone:       {},
	StateFailed:     {},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s ScanState) CanTransition(next ScanState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s is an end state.
func (s ScanState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// ErrInvalidTransition is returned when a state machine edge is not allowed.
type ErrInvalidTransition struct {
	From ScanState
	To   ScanState
}

// Error implements the error interface.
func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid scan state transition: %s -> %s", e.From, e.To)
}
