// Package memory provides the in-memory stock item store backing the local
// catalog cache.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/attewell/loadlist/internal/domain/catalog"
)

var _ catalog.StockItemRepository = (*StockItemStore)(nil)

// StockItemStore is a mutex-guarded map of stock items keyed by id.
type StockItemStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*catalog.StockItem
}

// NewStockItemStore creates an empty local stock cache.
func NewStockItemStore() *StockItemStore {
	return &StockItemStore{items: make(map[uuid.UUID]*catalog.StockItem)}
}

// Save persists a stock item, inserting or overwriting by id.
func (s *StockItemStore) Save(ctx context.Context, item *catalog.StockItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID()] = deepCopyItem(item)
	return nil
}

// GetByID retrieves a stock item by id.
func (s *StockItemStore) GetByID(ctx context.Context, id uuid.UUID) (*catalog.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, catalog.ErrStockItemNotFound
	}
	return deepCopyItem(item), nil
}

// List returns every cached stock item ordered by SKU.
func (s *StockItemStore) List(ctx context.Context) ([]*catalog.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]*catalog.StockItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, deepCopyItem(item))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU() < items[j].SKU() })
	return items, nil
}

// Delete removes a stock item. Absent items are ignored.
func (s *StockItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

func deepCopyItem(item *catalog.StockItem) *catalog.StockItem {
	return catalog.NewStockItem(
		item.ID(),
		item.SKU(),
		item.Name(),
		item.Category(),
		item.Quantity(),
		item.UpdatedAt(),
	)
}
