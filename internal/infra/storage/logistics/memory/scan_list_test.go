package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attewell/loadlist/internal/domain/logistics"
)

func newList(t *testing.T, orderID string, direction logistics.ScanDirection) *logistics.ScanList {
	t.Helper()
	list, err := logistics.NewScanList(
		uuid.New(),
		logistics.Order{ID: orderID, Label: "test order", Finalized: true},
		direction,
		[]logistics.LineItem{{SKU: "SPK-12", Name: "12in speaker", Category: "audio", Quantity: 2}},
	)
	require.NoError(t, err)
	return list
}

func TestScanListStore_SaveAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewScanListStore()

	list := newList(t, "ORD-1", logistics.DirectionDepotToVehicle)
	require.NoError(t, list.RecordScan("U1", "SPK-12"))
	require.NoError(t, store.Save(ctx, list))

	loaded, err := store.GetByID(ctx, list.ID())
	require.NoError(t, err)
	assert.Equal(t, list.ID(), loaded.ID())
	assert.Equal(t, 1, loaded.ScannedTotal())
	assert.Equal(t, logistics.ListStatusInProgress, loaded.Status())

	line, ok := loaded.Line("SPK-12")
	require.True(t, ok)
	assert.Equal(t, []string{"U1"}, line.ScannedUnits())
}

func TestScanListStore_GetMissing(t *testing.T) {
	t.Parallel()
	store := NewScanListStore()

	_, err := store.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, logistics.ErrListNotFound)
}

func TestScanListStore_IsolatesCallers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewScanListStore()

	list := newList(t, "ORD-1", logistics.DirectionDepotToVehicle)
	require.NoError(t, store.Save(ctx, list))

	// Mutating the caller's copy must not leak into the cache.
	require.NoError(t, list.RecordScan("U1", "SPK-12"))

	loaded, err := store.GetByID(ctx, list.ID())
	require.NoError(t, err)
	assert.Zero(t, loaded.ScannedTotal())
}

func TestScanListStore_ListByOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewScanListStore()

	// Save out of pipeline order; reads come back in pipeline order.
	require.NoError(t, store.Save(ctx, newList(t, "ORD-1", logistics.DirectionVehicleToDepot)))
	require.NoError(t, store.Save(ctx, newList(t, "ORD-1", logistics.DirectionDepotToVehicle)))
	require.NoError(t, store.Save(ctx, newList(t, "ORD-2", logistics.DirectionDepotToVehicle)))

	lists, err := store.ListByOrder(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, logistics.DirectionDepotToVehicle, lists[0].Direction())
	assert.Equal(t, logistics.DirectionVehicleToDepot, lists[1].Direction())
}

func TestScanListStore_ReplaceForOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewScanListStore()

	old := newList(t, "ORD-1", logistics.DirectionDepotToVehicle)
	require.NoError(t, old.RecordScan("U1", "SPK-12"))
	require.NoError(t, store.Save(ctx, old))

	fresh := newList(t, "ORD-1", logistics.DirectionDepotToVehicle)
	require.NoError(t, store.ReplaceForOrder(ctx, "ORD-1", []*logistics.ScanList{fresh}))

	_, err := store.GetByID(ctx, old.ID())
	assert.ErrorIs(t, err, logistics.ErrListNotFound)

	lists, err := store.ListByOrder(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Zero(t, lists[0].ScannedTotal())
}

func TestScanListStore_DeleteByOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewScanListStore()

	require.NoError(t, store.Save(ctx, newList(t, "ORD-1", logistics.DirectionDepotToVehicle)))
	require.NoError(t, store.Save(ctx, newList(t, "ORD-2", logistics.DirectionDepotToVehicle)))

	require.NoError(t, store.DeleteByOrder(ctx, "ORD-1"))

	lists, err := store.ListByOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Empty(t, lists)

	lists, err = store.ListByOrder(ctx, "ORD-2")
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}
