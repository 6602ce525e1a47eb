// Package memory provides an in-memory unit registry for development and
// tests. Production deployments plug in the asset catalog service instead.
package memory

import (
	"context"
	"sync"

	"github.com/attewell/loadlist/internal/domain/logistics"
)

var _ logistics.UnitRegistry = (*Registry)(nil)

type unitState struct {
	unit       logistics.Unit
	status     logistics.UnitLifecycleStatus
	locationID string
}

// Registry is a mutex-guarded map of serialized units keyed by unit id.
type Registry struct {
	mu    sync.Mutex
	units map[string]*unitState
}

// NewRegistry creates a registry seeded with the given units.
func NewRegistry(units ...logistics.Unit) *Registry {
	r := &Registry{units: make(map[string]*unitState, len(units))}
	for _, u := range units {
		r.units[u.ID] = &unitState{unit: u, status: logistics.UnitStatusAvailable}
	}
	return r
}

// Add registers a unit, overwriting any prior entry with the same id.
func (r *Registry) Add(unit logistics.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unit.ID] = &unitState{unit: unit, status: logistics.UnitStatusAvailable}
}

// Lookup resolves a unit by identifier.
func (r *Registry) Lookup(ctx context.Context, unitID string) (logistics.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.units[unitID]
	if !ok {
		return logistics.Unit{}, logistics.ErrUnitNotFound
	}
	return state.unit, nil
}

// SetStatus writes the derived lifecycle status for a unit. Last write wins.
func (r *Registry) SetStatus(
	ctx context.Context,
	unitID string,
	status logistics.UnitLifecycleStatus,
	locationID string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.units[unitID]
	if !ok {
		return logistics.ErrUnitNotFound
	}
	state.status = status
	if locationID != "" {
		state.locationID = locationID
	}
	return nil
}

// Status reports the unit's current lifecycle status. Test helper.
func (r *Registry) Status(unitID string) (logistics.UnitLifecycleStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.units[unitID]
	if !ok {
		return logistics.UnitStatusUnspecified, false
	}
	return state.status, true
}
