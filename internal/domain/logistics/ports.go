package logistics

import (
	"context"

	"github.com/google/uuid"
)

// Order is the finalized-order header the generator works from. Pricing and
// editing live with the order service; the scan pipeline only needs the
// identity, a display label, and the finalized flag.
type Order struct {
	ID        string
	Label     string
	Finalized bool
}

// LineItem is one (sku, name, category, quantity) tuple from the order source.
type LineItem struct {
	SKU      string
	Name     string
	Category string
	Quantity int
}

// Unit is a serialized asset referenced by identifier. The scan pipeline reads
// its SKU for validation and writes its lifecycle status as a side effect; it
// does not own the unit's lifecycle.
type Unit struct {
	ID  string
	SKU string
}

// ScanListRepository defines the storage operations for scan lists. The local
// cache implementation is the source of truth for in-flight work; the remote
// implementation backs cross-device synchronization.
type ScanListRepository interface {
	// Save persists a scan list and all of its line progress records.
	Save(ctx context.Context, list *ScanList) error

	// GetByID retrieves a scan list by its identifier.
	// Returns ErrListNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*ScanList, error)

	// ListByOrder retrieves every scan list for an order, in direction order.
	ListByOrder(ctx context.Context, orderID string) ([]*ScanList, error)

	// ReplaceForOrder deletes every scan list for the order, line records
	// included, and creates the provided set in the same transaction.
	ReplaceForOrder(ctx context.Context, orderID string, lists []*ScanList) error

	// DeleteByOrder removes every scan list for the order along with its line
	// records in one transaction.
	DeleteByOrder(ctx context.Context, orderID string) error
}

// UnitRegistry is the external serialized-asset catalog.
type UnitRegistry interface {
	// Lookup resolves a unit by identifier. Returns ErrUnitNotFound if absent.
	Lookup(ctx context.Context, unitID string) (Unit, error)

	// SetStatus writes the derived lifecycle status for a unit. The registry
	// treats the field as last-write-wins; there is no compare-and-swap.
	SetStatus(ctx context.Context, unitID string, status UnitLifecycleStatus, locationID string) error
}

// OrderSource exposes the order/quote line items that seed scan lists.
type OrderSource interface {
	GetLineItems(ctx context.Context, orderID string) ([]LineItem, error)

	// GetSelectedDirections returns the legs the dispatcher chose to track.
	// An empty result means all four.
	GetSelectedDirections(ctx context.Context, orderID string) ([]ScanDirection, error)
}

// PermissionChecker is the capability handed to the generator and the scan
// engine instead of ambient session globals.
type PermissionChecker interface {
	HasPermission(ctx context.Context, subject, action string) bool
}

// Session identifies the operator driving the scans.
type Session interface {
	CurrentUserID(ctx context.Context) string
}
