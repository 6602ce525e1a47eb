package logistics

import (
	"errors"
	"fmt"
)

// Validation errors surfaced synchronously to callers of the mutating
// operations. None of them leave partial state behind; a failed call is a no-op.
var (
	// ErrOrderNotFinalized is returned when scan lists are requested for an order
	// that has not been finalized yet.
	ErrOrderNotFinalized = errors.New("order not finalized")

	// ErrEmptyOrder is returned when scan lists are requested for an order with
	// no line items.
	ErrEmptyOrder = errors.New("order has no line items")

	// ErrListNotFound is returned when a scan list does not exist in the store.
	ErrListNotFound = errors.New("scan list not found")

	// ErrItemNotInList is returned when a scan references a SKU the list does not track.
	ErrItemNotInList = errors.New("item not in scan list")

	// ErrUnitNotFound is returned when a scanned unit id cannot be resolved in
	// the unit registry.
	ErrUnitNotFound = errors.New("unit not found in registry")

	// ErrAlreadyScanned is returned when a unit is scanned twice against the same line.
	ErrAlreadyScanned = errors.New("unit already scanned")

	// ErrUnitNotScanned is returned when an undo references a unit that was never
	// scanned against the line.
	ErrUnitNotScanned = errors.New("unit not scanned")

	// ErrQuantityExceeded is returned when a scan or manual increment would push a
	// line past its required quantity.
	ErrQuantityExceeded = errors.New("required quantity already reached")

	// ErrDuplicateSKU is returned when a scan list is built from line items that
	// repeat a SKU. SKUs are unique within a list.
	ErrDuplicateSKU = errors.New("duplicate sku in line items")

	// ErrPermissionDenied is returned when the caller's session lacks the
	// capability for the attempted operation.
	ErrPermissionDenied = errors.New("permission denied")
)

// Parse errors for persisted raw values. A stored string that no release ever
// wrote is data corruption and must not be coerced into a valid case.
var (
	ErrDirectionUnknown  = errors.New("scan direction unknown")
	ErrListStatusUnknown = errors.New("scan list status unknown")
	ErrItemStatusUnknown = errors.New("item status unknown")
	ErrUnitStatusUnknown = errors.New("unit lifecycle status unknown")
)

// SkuMismatchError reports a physical scan whose unit carries a different SKU
// than the line it was scanned against. It guards against counting the wrong
// physical item under an assumed SKU.
type SkuMismatchError struct {
	Expected string
	Found    string
}

func (e *SkuMismatchError) Error() string {
	return fmt.Sprintf("sku mismatch: expected %q, found %q", e.Expected, e.Found)
}
