package logistics

import "fmt"

// UnitLifecycleStatus describes where a serialized unit currently is in the
// physical pipeline. It is derived from the direction of the scan that last
// touched the unit and written to the unit registry as a side effect.
type UnitLifecycleStatus string

const (
	// UnitStatusAvailable indicates a unit is back in the depot and rentable.
	UnitStatusAvailable UnitLifecycleStatus = "AVAILABLE"

	// UnitStatusInTransitToEvent indicates a unit is loaded on a vehicle heading out.
	UnitStatusInTransitToEvent UnitLifecycleStatus = "IN_TRANSIT_TO_EVENT"

	// UnitStatusInUseAtEvent indicates a unit is deployed at the event site.
	UnitStatusInUseAtEvent UnitLifecycleStatus = "IN_USE_AT_EVENT"

	// UnitStatusInTransitToDepot indicates a unit is on a vehicle heading home.
	UnitStatusInTransitToDepot UnitLifecycleStatus = "IN_TRANSIT_TO_DEPOT"

	// UnitStatusUnspecified is used when a unit status is unknown.
	UnitStatusUnspecified UnitLifecycleStatus = "UNSPECIFIED"
)

// String returns the string representation of the UnitLifecycleStatus.
func (s UnitLifecycleStatus) String() string { return string(s) }

// ParseUnitLifecycleStatus converts a string to a UnitLifecycleStatus.
func ParseUnitLifecycleStatus(s string) (UnitLifecycleStatus, error) {
	switch s {
	case "AVAILABLE":
		return UnitStatusAvailable, nil
	case "IN_TRANSIT_TO_EVENT":
		return UnitStatusInTransitToEvent, nil
	case "IN_USE_AT_EVENT":
		return UnitStatusInUseAtEvent, nil
	case "IN_TRANSIT_TO_DEPOT":
		return UnitStatusInTransitToDepot, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnitStatusUnknown, s)
	}
}
