package logistics

import "fmt"

// ScanDirection identifies one leg of the depot -> vehicle -> event -> vehicle -> depot
// movement cycle. Every scan list tracks exactly one direction.
type ScanDirection string

const (
	// DirectionDepotToVehicle covers loading gear out of the depot onto a vehicle.
	DirectionDepotToVehicle ScanDirection = "DEPOT_TO_VEHICLE"

	// DirectionVehicleToEvent covers unloading gear at the event site.
	DirectionVehicleToEvent ScanDirection = "VEHICLE_TO_EVENT"

	// DirectionEventToVehicle covers packing gear back onto a vehicle after the event.
	DirectionEventToVehicle ScanDirection = "EVENT_TO_VEHICLE"

	// DirectionVehicleToDepot covers returning gear into the depot.
	DirectionVehicleToDepot ScanDirection = "VEHICLE_TO_DEPOT"
)

// AllDirections returns the four legs in pipeline order. Callers that generate
// scan lists without an explicit direction selection get all of them.
func AllDirections() []ScanDirection {
	return []ScanDirection{
		DirectionDepotToVehicle,
		DirectionVehicleToEvent,
		DirectionEventToVehicle,
		DirectionVehicleToDepot,
	}
}

// String returns the string representation of the ScanDirection.
func (d ScanDirection) String() string { return string(d) }

// ParseScanDirection converts a string to a ScanDirection. Unknown values are an
// error rather than a fallback; a mistyped direction must never silently track
// the wrong leg of the pipeline.
func ParseScanDirection(s string) (ScanDirection, error) {
	switch s {
	case "DEPOT_TO_VEHICLE":
		return DirectionDepotToVehicle, nil
	case "VEHICLE_TO_EVENT":
		return DirectionVehicleToEvent, nil
	case "EVENT_TO_VEHICLE":
		return DirectionEventToVehicle, nil
	case "VEHICLE_TO_DEPOT":
		return DirectionVehicleToDepot, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrDirectionUnknown, s)
	}
}

// UnitStatusFor returns the lifecycle status a unit takes on once it has been
// scanned in this direction. The projection is applied when a scan is recorded,
// not when it is undone.
func (d ScanDirection) UnitStatusFor() UnitLifecycleStatus {
	switch d {
	case DirectionDepotToVehicle:
		return UnitStatusInTransitToEvent
	case DirectionVehicleToEvent:
		return UnitStatusInUseAtEvent
	case DirectionEventToVehicle:
		return UnitStatusInTransitToDepot
	case DirectionVehicleToDepot:
		return UnitStatusAvailable
	default:
		return UnitStatusUnspecified
	}
}
