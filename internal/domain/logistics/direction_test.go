package logistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDirection_UnitStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		direction ScanDirection
		expected  UnitLifecycleStatus
	}{
		{
			name:      "depot to vehicle projects in transit to event",
			direction: DirectionDepotToVehicle,
			expected:  UnitStatusInTransitToEvent,
		},
		{
			name:      "vehicle to event projects in use at event",
			direction: DirectionVehicleToEvent,
			expected:  UnitStatusInUseAtEvent,
		},
		{
			name:      "event to vehicle projects in transit to depot",
			direction: DirectionEventToVehicle,
			expected:  UnitStatusInTransitToDepot,
		},
		{
			name:      "vehicle to depot projects available",
			direction: DirectionVehicleToDepot,
			expected:  UnitStatusAvailable,
		},
		{
			name:      "unknown direction projects unspecified",
			direction: ScanDirection("SIDEWAYS"),
			expected:  UnitStatusUnspecified,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.direction.UnitStatusFor())
		})
	}
}

func TestParseScanDirection(t *testing.T) {
	t.Parallel()

	for _, d := range AllDirections() {
		d := d
		t.Run(d.String(), func(t *testing.T) {
			t.Parallel()
			parsed, err := ParseScanDirection(d.String())
			require.NoError(t, err)
			assert.Equal(t, d, parsed)
		})
	}

	t.Run("unknown value is an error, not a default", func(t *testing.T) {
		t.Parallel()
		_, err := ParseScanDirection("WAREHOUSE_TO_MOON")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDirectionUnknown)
	})

	t.Run("empty value is an error", func(t *testing.T) {
		t.Parallel()
		_, err := ParseScanDirection("")
		assert.ErrorIs(t, err, ErrDirectionUnknown)
	})
}

func TestAllDirections_PipelineOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []ScanDirection{
		DirectionDepotToVehicle,
		DirectionVehicleToEvent,
		DirectionEventToVehicle,
		DirectionVehicleToDepot,
	}, AllDirections())
}
