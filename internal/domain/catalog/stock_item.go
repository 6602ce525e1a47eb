// Package catalog holds the mutable bulk-stock records that ride along the
// same reconciler as scan lists. Unlike scan lists they have no state machine;
// remote and local copies are merged last-write-wins on their update stamp.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrStockItemNotFound is returned when a stock item does not exist in the store.
var ErrStockItemNotFound = errors.New("stock item not found")

// StockItem is one bulk (non-serialized) SKU in the rental inventory.
type StockItem struct {
	id        uuid.UUID
	sku       string
	name      string
	category  string
	quantity  int
	updatedAt time.Time
}

// NewStockItem creates a stock item record.
func NewStockItem(id uuid.UUID, sku, name, category string, quantity int, updatedAt time.Time) *StockItem {
	return &StockItem{
		id:        id,
		sku:       sku,
		name:      name,
		category:  category,
		quantity:  quantity,
		updatedAt: updatedAt,
	}
}

// ID returns the stock item identifier.
func (s *StockItem) ID() uuid.UUID { return s.id }

// SKU returns the stock keeping unit.
func (s *StockItem) SKU() string { return s.sku }

// Name returns the display name.
func (s *StockItem) Name() string { return s.name }

// Category returns the equipment category.
func (s *StockItem) Category() string { return s.category }

// Quantity returns the on-hand quantity.
func (s *StockItem) Quantity() int { return s.quantity }

// UpdatedAt returns the last modification stamp used for last-write-wins merges.
func (s *StockItem) UpdatedAt() time.Time { return s.updatedAt }

// NewerThan reports whether this record should win a merge against other.
// Equal stamps keep the receiver; the local copy is not churned for a tie.
func (s *StockItem) NewerThan(other *StockItem) bool {
	return s.updatedAt.After(other.updatedAt)
}

// StockItemRepository defines storage operations for the local stock cache.
type StockItemRepository interface {
	// Save persists a stock item, inserting or overwriting by id.
	Save(ctx context.Context, item *StockItem) error

	// GetByID retrieves a stock item. Returns ErrStockItemNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*StockItem, error)

	// List returns every cached stock item.
	List(ctx context.Context) ([]*StockItem, error)

	// Delete removes a stock item. Deleting an absent item is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}
