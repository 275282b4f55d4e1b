// Package fleet implements the vehicle registry: membership, last-known
// telemetry, and liveness bookkeeping.
//
// A Registry holds no lock of its own. The coordinator owns it
// exclusively and serializes every call; nothing else keeps a mutable
// reference, so per-entity locking is unnecessary.
package fleet

import (
	"fmt"
	"time"

	"github.com/skycoord/fleet/pkg/core"
)

// DefaultMaxSize is the fleet size cap applied when none is configured.
const DefaultMaxSize = 10

// DefaultHeartbeatTimeout is the liveness window applied when none is
// configured.
const DefaultHeartbeatTimeout = 30 * time.Second

// Registry owns the set of registered vehicles. Iteration order is
// registration (insertion) order, which auto-assignment and collision
// pairing rely on for determinism.
type Registry struct {
	maxSize  int
	vehicles map[string]*core.Vehicle
	order    []string
	now      func() time.Time
}

// NewRegistry creates an empty registry with the given size cap.
// A non-positive maxSize falls back to DefaultMaxSize.
func NewRegistry(maxSize int) *Registry {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Registry{
		maxSize:  maxSize,
		vehicles: make(map[string]*core.Vehicle),
		now:      time.Now,
	}
}

// SetClock replaces the registry's time source. Tests use this to
// control liveness windows.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Register adds a vehicle with a full battery, ready status, and no
// task. Duplicate ids and a full fleet are refused, leaving the
// registry unchanged.
func (r *Registry) Register(id string, pos core.Position, capabilities []string) (*core.Vehicle, error) {
	if _, ok := r.vehicles[id]; ok {
		return nil, fmt.Errorf("register %s: %w", id, core.ErrAlreadyExists)
	}
	if len(r.vehicles) >= r.maxSize {
		return nil, fmt.Errorf("register %s: fleet at %d: %w", id, r.maxSize, core.ErrCapacityExceeded)
	}

	caps := make(map[string]bool, len(capabilities))
	for _, tag := range capabilities {
		caps[tag] = true
	}

	v := &core.Vehicle{
		ID:           id,
		Position:     pos,
		BatteryLevel: 100,
		Capabilities: caps,
		Status:       core.ReadyStatus,
		Task:         core.TaskIdle,
		LastUpdate:   r.now(),
	}
	r.vehicles[id] = v
	r.order = append(r.order, id)
	return v, nil
}

// Unregister removes a vehicle. Reconciling mission assignments is the
// coordinator's responsibility, not the registry's.
func (r *Registry) Unregister(id string) error {
	if _, ok := r.vehicles[id]; !ok {
		return fmt.Errorf("unregister %s: %w", id, core.ErrNotFound)
	}
	delete(r.vehicles, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateTelemetry applies a partial update: only non-nil fields change,
// and LastUpdate always refreshes.
func (r *Registry) UpdateTelemetry(id string, u core.TelemetryUpdate) error {
	v, ok := r.vehicles[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	if u.Position != nil {
		v.Position = *u.Position
	}
	if u.Battery != nil {
		v.BatteryLevel = *u.Battery
	}
	if u.Status != nil {
		v.Status = *u.Status
	}
	v.LastUpdate = r.now()
	return nil
}

// Get looks up a vehicle by id.
func (r *Registry) Get(id string) (*core.Vehicle, bool) {
	v, ok := r.vehicles[id]
	return v, ok
}

// List returns all vehicles in registration order.
func (r *Registry) List() []*core.Vehicle {
	out := make([]*core.Vehicle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.vehicles[id])
	}
	return out
}

// IDs returns the registered vehicle ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the fleet size.
func (r *Registry) Len() int { return len(r.vehicles) }

// ListInactive returns, in registration order, the ids of vehicles
// whose last update is older than the timeout. Pure read: stale
// vehicles are reported, never dropped — unregistering a fleet member
// is always an explicit caller decision.
func (r *Registry) ListInactive(timeout time.Duration) []string {
	if timeout <= 0 {
		timeout = DefaultHeartbeatTimeout
	}
	now := r.now()
	var inactive []string
	for _, id := range r.order {
		if now.Sub(r.vehicles[id].LastUpdate) > timeout {
			inactive = append(inactive, id)
		}
	}
	return inactive
}
