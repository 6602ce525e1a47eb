package remote

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attewell/loadlist/internal/domain/logistics"
)

func TestFlattenScanList(t *testing.T) {
	t.Parallel()

	list, err := logistics.NewScanList(
		uuid.New(),
		logistics.Order{ID: "ORD-2001", Label: "Harbor Stage", Finalized: true},
		logistics.DirectionEventToVehicle,
		[]logistics.LineItem{
			{SKU: "SPK-12", Name: "12in speaker", Category: "audio", Quantity: 2},
			{SKU: "LED-01", Name: "LED par", Category: "lighting", Quantity: 1},
		},
	)
	require.NoError(t, err)
	require.NoError(t, list.RecordScan("U1", "SPK-12"))

	flat := FlattenScanList(list)

	assert.Equal(t, list.ID(), flat.List.ListID)
	assert.Equal(t, "ORD-2001", flat.List.OrderID)
	assert.Equal(t, "EVENT_TO_VEHICLE", flat.List.Direction)
	assert.Equal(t, "IN_PROGRESS", flat.List.Status)
	assert.Equal(t, 3, flat.List.RequiredTotal)
	assert.Equal(t, 1, flat.List.ScannedTotal)
	assert.True(t, flat.List.CompletedAt.IsZero())

	require.Len(t, flat.Lines, 2)
	assert.Equal(t, "SPK-12", flat.Lines[0].SKU)
	assert.Equal(t, []string{"U1"}, flat.Lines[0].ScannedUnits)
	assert.Equal(t, "PARTIAL", flat.Lines[0].ItemStatus)
	assert.Equal(t, "PENDING", flat.Lines[1].ItemStatus)
	assert.Zero(t, flat.Lines[1].ScannedQty)
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	t.Run("valid header", func(t *testing.T) {
		t.Parallel()
		direction, status, err := ParseHeader(ListRecord{
			ListID:    uuid.New(),
			Direction: "VEHICLE_TO_DEPOT",
			Status:    "COMPLETED",
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, logistics.DirectionVehicleToDepot, direction)
		assert.Equal(t, logistics.ListStatusCompleted, status)
	})

	t.Run("unknown direction surfaces a parse error", func(t *testing.T) {
		t.Parallel()
		_, _, err := ParseHeader(ListRecord{Direction: "NOWHERE", Status: "PENDING"})
		assert.ErrorIs(t, err, logistics.ErrDirectionUnknown)
	})

	t.Run("unknown status surfaces a parse error", func(t *testing.T) {
		t.Parallel()
		_, _, err := ParseHeader(ListRecord{Direction: "DEPOT_TO_VEHICLE", Status: "DONEISH"})
		assert.ErrorIs(t, err, logistics.ErrListStatusUnknown)
	})
}
