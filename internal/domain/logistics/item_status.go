package logistics

import "fmt"

// ItemStatus represents the progress of a single SKU line within a scan list.
type ItemStatus string

const (
	// ItemStatusPending indicates no units have been scanned for the line.
	ItemStatusPending ItemStatus = "PENDING"

	// ItemStatusPartial indicates some, but not all, required units have been scanned.
	ItemStatusPartial ItemStatus = "PARTIAL"

	// ItemStatusCompleted indicates the scanned count has reached the required count.
	ItemStatusCompleted ItemStatus = "COMPLETED"
)

// String returns the string representation of the ItemStatus.
func (s ItemStatus) String() string { return string(s) }

// ParseItemStatus converts a string to an ItemStatus.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch s {
	case "PENDING":
		return ItemStatusPending, nil
	case "PARTIAL":
		return ItemStatusPartial, nil
	case "COMPLETED":
		return ItemStatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrItemStatusUnknown, s)
	}
}

// itemStatusFor derives a line's status from its counters.
func itemStatusFor(scanned, required int) ItemStatus {
	switch {
	case required > 0 && scanned >= required:
		return ItemStatusCompleted
	case scanned > 0:
		return ItemStatusPartial
	default:
		return ItemStatusPending
	}
}
