package postgres

import (
	"context"
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attewell/loadlist/internal/infra/remote"
	"github.com/attewell/loadlist/internal/infra/storage"
)

func setupStockItemTest(t *testing.T) (context.Context, *stockItemStore, func()) {
	t.Helper()

	db, cleanup := storage.SetupTestContainer(t)
	store := NewStockItemStore(db, storage.NoOpTracer())
	ctx := context.Background()

	return ctx, store, cleanup
}

func TestPGStockItemStore_UpsertAndGetAll(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupStockItemTest(t)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Microsecond)
	speaker := remote.StockItemRecord{
		ID:        uuid.New(),
		SKU:       "SPK-12",
		Name:      "12in Powered Speaker",
		Category:  "Audio",
		Quantity:  14,
		UpdatedAt: now,
	}
	cable := remote.StockItemRecord{
		ID:        uuid.New(),
		SKU:       "CBL-XLR",
		Name:      "XLR Cable 10m",
		Category:  "Audio",
		Quantity:  120,
		UpdatedAt: now,
	}

	require.NoError(t, store.UpsertStockItem(ctx, speaker))
	require.NoError(t, store.UpsertStockItem(ctx, cable))

	records, err := store.GetAllStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "CBL-XLR", records[0].SKU)
	assert.Equal(t, cable.ID, records[0].ID)
	assert.Equal(t, 120, records[0].Quantity)
	assert.Equal(t, "SPK-12", records[1].SKU)
	assert.Equal(t, now, records[1].UpdatedAt.UTC())
}

func TestPGStockItemStore_UpsertOverwritesByID(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupStockItemTest(t)
	defer cleanup()

	rec := remote.StockItemRecord{
		ID:        uuid.New(),
		SKU:       "LGT-04",
		Name:      "LED Par Can",
		Category:  "Lighting",
		Quantity:  30,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.UpsertStockItem(ctx, rec))

	rec.Quantity = 27
	rec.UpdatedAt = rec.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.UpsertStockItem(ctx, rec))

	records, err := store.GetAllStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 27, records[0].Quantity)
	assert.Equal(t, rec.UpdatedAt, records[0].UpdatedAt.UTC())
}

func TestPGStockItemStore_Delete(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupStockItemTest(t)
	defer cleanup()

	rec := remote.StockItemRecord{
		ID:        uuid.New(),
		SKU:       "TRS-01",
		Name:      "Truss Segment 2m",
		Category:  "Rigging",
		Quantity:  8,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.UpsertStockItem(ctx, rec))

	require.NoError(t, store.DeleteStockItem(ctx, rec.ID))

	records, err := store.GetAllStockItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Absent records delete cleanly.
	require.NoError(t, store.DeleteStockItem(ctx, rec.ID))
}
