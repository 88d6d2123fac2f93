package module

import "fmt"

// Status is a module's synchronization state.
//
//	Unsynced -> Applying -> {Synced, Failed, Unsupported}
//
// A settled state only moves back to Applying on the next broadcast.
type Status string

const (
	StatusUnsynced    Status = "unsynced"
	StatusApplying    Status = "applying"
	StatusSynced      Status = "synced"
	StatusFailed      Status = "failed"
	StatusUnsupported Status = "unsupported"
)

// Settled reports whether s is a terminal state of one delivery.
func (s Status) Settled() bool {
	return s == StatusSynced || s == StatusFailed || s == StatusUnsupported
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusApplying:
		return from == StatusUnsynced || from.Settled()
	case StatusSynced, StatusFailed, StatusUnsupported:
		return from == StatusApplying
	case StatusUnsynced:
		// reset after unregister under the clear-on-unregister policy
		return true
	default:
		return false
	}
}

// Transition validates from -> to.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("module: illegal status transition %s -> %s", from, to)
	}
	return to, nil
}
