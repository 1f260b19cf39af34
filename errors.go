package lts

import (
	"errors"
	"fmt"
)

var (
	// ErrSyncInconsistency is returned when a message transition has no partner sharing its
	// synchronization key, or a sender lacks the matching error alternative.
	ErrSyncInconsistency = errors.New("synchronization inconsistency")

	// ErrDegenerateProbability is returned when a state with outgoing transitions has an outgoing
	// probability sum of zero, so it cannot be normalized.
	ErrDegenerateProbability = errors.New("degenerate probability")

	// ErrStructuralMismatch is returned when the input does not have the shape the algorithms expect.
	ErrStructuralMismatch = errors.New("structural mismatch")
)

// SyncError names the synchronization key that could not be resolved.
type SyncError struct {
	Key    SyncKey
	Reason string
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s (scenario=%q seq=%d sender=%d receiver=%d)",
		ErrSyncInconsistency, e.Reason, e.Key.Scenario, e.Key.Seq, e.Key.Sender, e.Key.Receiver)
}

func (e *SyncError) Unwrap() error {
	return ErrSyncInconsistency
}

func structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructuralMismatch, fmt.Sprintf(format, args...))
}
