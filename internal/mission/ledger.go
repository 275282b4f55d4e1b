// Package mission implements the mission ledger: mission records, their
// lifecycle, and their assignment to vehicles.
//
// Like the registry, the Ledger carries no lock; the coordinator owns
// it and serializes access. The vehicle Task field and a mission's
// AssignedVehicles list are kept mutually consistent here: they are
// always written together inside a single ledger operation.
package mission

import (
	"fmt"
	"time"

	"github.com/skycoord/fleet/internal/fleet"
	"github.com/skycoord/fleet/pkg/core"
)

// Ledger owns mission records. Missions are never deleted; completed
// and failed missions remain queryable.
type Ledger struct {
	registry *fleet.Registry
	missions map[string]*core.Mission
	order    []string
	counter  int
	now      func() time.Time
}

// NewLedger creates an empty ledger validating assignments against the
// given registry.
func NewLedger(registry *fleet.Registry) *Ledger {
	return &Ledger{
		registry: registry,
		missions: make(map[string]*core.Mission),
		now:      time.Now,
	}
}

// SetClock replaces the ledger's time source.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Create records a new pending mission with a sequential id. It always
// succeeds; bounds validation happens upstream in the coordinator.
func (l *Ledger) Create(missionType core.MissionType, area core.AreaBounds, priority int) *core.Mission {
	l.counter++
	id := fmt.Sprintf("MISSION-%04d", l.counter)

	m := &core.Mission{
		ID:        id,
		Type:      missionType,
		Area:      area,
		Priority:  priority,
		Status:    core.MissionPending,
		CreatedAt: l.now(),
	}
	l.missions[id] = m
	l.order = append(l.order, id)
	return m
}

// Get looks up a mission by id.
func (l *Ledger) Get(id string) (*core.Mission, bool) {
	m, ok := l.missions[id]
	return m, ok
}

// List returns all missions in creation order.
func (l *Ledger) List() []*core.Mission {
	out := make([]*core.Mission, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.missions[id])
	}
	return out
}

// Len returns the number of missions ever created.
func (l *Ledger) Len() int { return len(l.missions) }

// ActiveCount returns the number of currently active missions.
func (l *Ledger) ActiveCount() int {
	n := 0
	for _, m := range l.missions {
		if m.Active() {
			n++
		}
	}
	return n
}

// Assign puts the given vehicles on a mission and marks it active. The
// check is atomic: if the mission or any vehicle id is unknown, nothing
// changes — no vehicle's task moves and the mission status stays put.
func (l *Ledger) Assign(missionID string, vehicleIDs []string) error {
	m, ok := l.missions[missionID]
	if !ok {
		return fmt.Errorf("assign %s: mission: %w", missionID, core.ErrNotFound)
	}

	vehicles := make([]*core.Vehicle, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		v, ok := l.registry.Get(id)
		if !ok {
			return fmt.Errorf("assign %s: vehicle %s: %w", missionID, id, core.ErrNotFound)
		}
		vehicles = append(vehicles, v)
	}

	m.AssignedVehicles = append([]string(nil), vehicleIDs...)
	m.Status = core.MissionActive
	for _, v := range vehicles {
		v.Task = m.Type
	}
	return nil
}

// AutoAssign picks the first registered vehicle (registration order)
// that reports ready status and has no task, and assigns exactly that
// one to the mission.
func (l *Ledger) AutoAssign(missionID string) error {
	if _, ok := l.missions[missionID]; !ok {
		return fmt.Errorf("auto-assign %s: mission: %w", missionID, core.ErrNotFound)
	}

	for _, v := range l.registry.List() {
		if v.Status == core.ReadyStatus && v.Idle() {
			return l.Assign(missionID, []string{v.ID})
		}
	}
	return fmt.Errorf("auto-assign %s: %w", missionID, core.ErrNoAvailableVehicle)
}

// Complete marks a mission completed and frees every assigned vehicle
// back to idle. Vehicles unregistered since assignment are skipped
// silently; their departure must not fail the completion.
func (l *Ledger) Complete(missionID string) error {
	m, ok := l.missions[missionID]
	if !ok {
		return fmt.Errorf("complete %s: %w", missionID, core.ErrNotFound)
	}

	m.Status = core.MissionCompleted
	for _, id := range m.AssignedVehicles {
		if v, ok := l.registry.Get(id); ok {
			v.Task = core.TaskIdle
		}
	}
	return nil
}

// Fail marks a mission failed and frees its vehicles. Failure is never
// derived automatically; this is an explicit operator call.
func (l *Ledger) Fail(missionID string) error {
	m, ok := l.missions[missionID]
	if !ok {
		return fmt.Errorf("fail %s: %w", missionID, core.ErrNotFound)
	}

	m.Status = core.MissionFailed
	for _, id := range m.AssignedVehicles {
		if v, ok := l.registry.Get(id); ok {
			v.Task = core.TaskIdle
		}
	}
	return nil
}

// RemoveVehicle strips a vehicle id from every mission's assignment
// list. Called by the coordinator when a vehicle unregisters. Mission
// status is deliberately left alone: an active mission may end up with
// zero assigned vehicles.
func (l *Ledger) RemoveVehicle(vehicleID string) {
	for _, m := range l.missions {
		for i, id := range m.AssignedVehicles {
			if id == vehicleID {
				m.AssignedVehicles = append(m.AssignedVehicles[:i], m.AssignedVehicles[i+1:]...)
				break
			}
		}
	}
}
