// Package memory provides an in-memory order source for development and
// tests. Production deployments plug in the order service client instead.
package memory

import (
	"context"
	"sync"

	"github.com/attewell/loadlist/internal/domain/logistics"
)

var _ logistics.OrderSource = (*OrderSource)(nil)

type orderEntry struct {
	order      logistics.Order
	items      []logistics.LineItem
	directions []logistics.ScanDirection
}

// OrderSource is a mutex-guarded map of orders keyed by order id.
type OrderSource struct {
	mu     sync.Mutex
	orders map[string]*orderEntry
}

// NewOrderSource creates an empty order source.
func NewOrderSource() *OrderSource {
	return &OrderSource{orders: make(map[string]*orderEntry)}
}

// Put registers an order with its line items and tracked directions,
// overwriting any prior entry. An empty direction set means all four.
func (s *OrderSource) Put(order logistics.Order, items []logistics.LineItem, directions []logistics.ScanDirection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.ID] = &orderEntry{
		order:      order,
		items:      append([]logistics.LineItem(nil), items...),
		directions: append([]logistics.ScanDirection(nil), directions...),
	}
}

// Get returns the order header, if known.
func (s *OrderSource) Get(orderID string) (logistics.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.orders[orderID]
	if !ok {
		return logistics.Order{}, false
	}
	return entry.order, true
}

// GetLineItems returns the order's line items. Unknown orders yield an empty
// set; the generator turns that into its empty-order rejection.
func (s *OrderSource) GetLineItems(ctx context.Context, orderID string) ([]logistics.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return append([]logistics.LineItem(nil), entry.items...), nil
}

// GetSelectedDirections returns the legs the dispatcher chose to track.
func (s *OrderSource) GetSelectedDirections(ctx context.Context, orderID string) ([]logistics.ScanDirection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return append([]logistics.ScanDirection(nil), entry.directions...), nil
}
