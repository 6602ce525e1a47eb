// Package memory provides the in-memory scan list store backing the local
// cache. It is the synchronous source of truth for in-flight work; the remote
// store only ever sees copies of what was committed here first.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/attewell/loadlist/internal/domain/logistics"
)

var _ logistics.ScanListRepository = (*ScanListStore)(nil)

// ScanListStore is a mutex-guarded map of scan lists keyed by id. Every read
// and write deep-copies so callers never share aggregate state with the cache.
type ScanListStore struct {
	mu    sync.Mutex
	lists map[uuid.UUID]*logistics.ScanList
}

// NewScanListStore creates an empty local scan list cache.
func NewScanListStore() *ScanListStore {
	return &ScanListStore{lists: make(map[uuid.UUID]*logistics.ScanList)}
}

// Save persists a scan list and all of its line progress records.
func (s *ScanListStore) Save(ctx context.Context, list *logistics.ScanList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[list.ID()] = deepCopyList(list)
	return nil
}

// GetByID retrieves a scan list by its identifier.
func (s *ScanListStore) GetByID(ctx context.Context, id uuid.UUID) (*logistics.ScanList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[id]
	if !ok {
		return nil, logistics.ErrListNotFound
	}
	return deepCopyList(list), nil
}

// ListByOrder retrieves every scan list for an order in pipeline direction order.
func (s *ScanListStore) ListByOrder(ctx context.Context, orderID string) ([]*logistics.ScanList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lists []*logistics.ScanList
	for _, list := range s.lists {
		if list.OrderID() == orderID {
			lists = append(lists, deepCopyList(list))
		}
	}

	order := make(map[logistics.ScanDirection]int, 4)
	for i, d := range logistics.AllDirections() {
		order[d] = i
	}
	sort.Slice(lists, func(i, j int) bool {
		return order[lists[i].Direction()] < order[lists[j].Direction()]
	})

	return lists, nil
}

// ReplaceForOrder atomically swaps the order's scan lists for the provided set.
func (s *ScanListStore) ReplaceForOrder(ctx context.Context, orderID string, lists []*logistics.ScanList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteOrderLocked(orderID)
	for _, list := range lists {
		s.lists[list.ID()] = deepCopyList(list)
	}
	return nil
}

// DeleteByOrder removes every scan list for the order. Line records are part of
// the aggregate and go with it.
func (s *ScanListStore) DeleteByOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteOrderLocked(orderID)
	return nil
}

func (s *ScanListStore) deleteOrderLocked(orderID string) {
	for id, list := range s.lists {
		if list.OrderID() == orderID {
			delete(s.lists, id)
		}
	}
}

func deepCopyList(list *logistics.ScanList) *logistics.ScanList {
	lines := make([]*logistics.LineProgress, 0, len(list.Lines()))
	for _, line := range list.Lines() {
		lines = append(lines, logistics.ReconstructLineProgress(
			line.SKU(),
			line.DisplayName(),
			line.Category(),
			line.RequiredQty(),
			line.ScannedUnits(),
			line.Status(),
			line.LastScannedAt(),
		))
	}

	return logistics.ReconstructScanList(
		list.ID(),
		list.OrderID(),
		list.OrderLabel(),
		list.Direction(),
		list.Status(),
		list.RequiredTotal(),
		list.ScannedTotal(),
		lines,
		logistics.ReconstructTimeline(
			list.Timeline().CreatedAt(),
			list.Timeline().UpdatedAt(),
			list.Timeline().CompletedAt(),
		),
	)
}
