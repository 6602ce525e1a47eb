package logistics

import "fmt"

// ScanListStatus represents the aggregate state of a scan list. It is always
// derived from the list's counters; callers never set it directly.
type ScanListStatus string

const (
	// ListStatusPending indicates a list has been generated but nothing has been scanned.
	ListStatusPending ScanListStatus = "PENDING"

	// ListStatusInProgress indicates at least one unit has been scanned but the
	// required total has not been reached.
	ListStatusInProgress ScanListStatus = "IN_PROGRESS"

	// ListStatusCompleted indicates every required unit has been scanned.
	ListStatusCompleted ScanListStatus = "COMPLETED"

	// ListStatusCancelled indicates a list was abandoned. Cancellation is terminal.
	ListStatusCancelled ScanListStatus = "CANCELLED"
)

// String returns the string representation of the ScanListStatus.
func (s ScanListStatus) String() string { return string(s) }

// ParseScanListStatus converts a string to a ScanListStatus. Unrecognized values
// return an error instead of defaulting; a corrupted status column must surface,
// not masquerade as PENDING.
func ParseScanListStatus(s string) (ScanListStatus, error) {
	switch s {
	case "PENDING":
		return ListStatusPending, nil
	case "IN_PROGRESS":
		return ListStatusInProgress, nil
	case "COMPLETED":
		return ListStatusCompleted, nil
	case "CANCELLED":
		return ListStatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrListStatusUnknown, s)
	}
}

// validateTransition checks if a status transition is valid and returns an error if not.
func (s ScanListStatus) validateTransition(target ScanListStatus) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("invalid scan list status transition from %s to %s", s, target)
	}
	return nil
}

// isValidTransition checks if the current status can transition to the target status.
// Undoing scans can legally walk a completed list back to in-progress, and an
// emptied list all the way back to pending.
func (s ScanListStatus) isValidTransition(target ScanListStatus) bool {
	switch s {
	case ListStatusPending:
		return target == ListStatusInProgress || target == ListStatusCompleted || target == ListStatusCancelled
	case ListStatusInProgress:
		return target == ListStatusCompleted || target == ListStatusPending || target == ListStatusCancelled
	case ListStatusCompleted:
		// Undo moves a completed list back to in-progress, never straight to pending.
		return target == ListStatusInProgress || target == ListStatusCancelled
	case ListStatusCancelled:
		return false
	default:
		return false
	}
}
