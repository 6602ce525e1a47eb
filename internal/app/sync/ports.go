// Package sync reconciles the local scan list cache with the remote store in
// both directions: durable pushes through an outbox and full pull-and-rebuild
// refreshes per order.
package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/attewell/loadlist/internal/infra/remote"
)

// RemoteStore is the remote side of scan list synchronization. It speaks the
// flat record shapes only; aggregates never cross this boundary.
type RemoteStore interface {
	// UpsertScanList writes the full current state of one scan list.
	UpsertScanList(ctx context.Context, flat remote.FlatScanList) error

	// ReplaceOrderScanLists atomically swaps every remote list for an order
	// with the provided set. An empty set clears the order.
	ReplaceOrderScanLists(ctx context.Context, orderID string, lists []remote.FlatScanList) error

	// DeleteOrderScanLists removes every remote list for an order.
	DeleteOrderScanLists(ctx context.Context, orderID string) error

	// GetOrderScanLists fetches every remote list for an order with lines.
	GetOrderScanLists(ctx context.Context, orderID string) ([]remote.FlatScanList, error)
}

// RemoteStockStore is the remote side of stock item synchronization.
type RemoteStockStore interface {
	UpsertStockItem(ctx context.Context, rec remote.StockItemRecord) error
	GetAllStockItems(ctx context.Context) ([]remote.StockItemRecord, error)
	DeleteStockItem(ctx context.Context, id uuid.UUID) error
}
