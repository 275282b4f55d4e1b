// Package coord implements the fleet coordinator: the single owner of
// the registry, the mission ledger, and the per-vehicle flight
// controllers. Every mutation is serialized behind one lock; queries
// read under the shared lock and therefore always observe a consistent
// snapshot, never a half-applied mutation.
package coord

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skycoord/fleet/internal/channel"
	"github.com/skycoord/fleet/internal/fleet"
	"github.com/skycoord/fleet/internal/flight"
	"github.com/skycoord/fleet/internal/geo"
	"github.com/skycoord/fleet/internal/mission"
	"github.com/skycoord/fleet/pkg/core"
)

// DefaultEventBuffer is the event bus capacity when none is configured.
const DefaultEventBuffer = 256

// Config holds coordinator parameters.
type Config struct {
	MaxFleetSize     int
	HeartbeatTimeout time.Duration
	MinSeparation    float64
	Limits           flight.Limits
	EventBuffer      int
}

// DefaultConfig returns the standard coordinator parameters.
func DefaultConfig() Config {
	return Config{
		MaxFleetSize:     fleet.DefaultMaxSize,
		HeartbeatTimeout: fleet.DefaultHeartbeatTimeout,
		MinSeparation:    geo.DefaultMinSeparation,
		Limits:           flight.DefaultLimits(),
		EventBuffer:      DefaultEventBuffer,
	}
}

// Coordinator composes registry, ledger, and flight controllers into
// the fleet's external API. It is safe for concurrent use.
type Coordinator struct {
	mu          sync.RWMutex
	cfg         Config
	registry    *fleet.Registry
	ledger      *mission.Ledger
	controllers map[string]*flight.Controller
	events      channel.Channel[core.FleetEvent]
	log         *slog.Logger
	now         func() time.Time
}

// New creates a coordinator with its own registry and ledger. A nil
// logger falls back to slog.Default. Multiple coordinators are fully
// independent; nothing is process-global.
func New(cfg Config, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	registry := fleet.NewRegistry(cfg.MaxFleetSize)
	return &Coordinator{
		cfg:         cfg,
		registry:    registry,
		ledger:      mission.NewLedger(registry),
		controllers: make(map[string]*flight.Controller),
		events:      channel.New[core.FleetEvent](cfg.EventBuffer),
		log:         log,
		now:         time.Now,
	}
}

// SetClock replaces the time source of the coordinator and everything
// it owns. Tests use this to control liveness behavior.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	c.registry.SetClock(now)
	c.ledger.SetClock(now)
}

// Events returns the fleet event stream. Delivery is at-most-once in
// emission order: when the buffer is full, new events are dropped
// rather than blocking mutations.
func (c *Coordinator) Events() <-chan core.FleetEvent {
	return c.events.Receive()
}

// Close closes the event stream. The coordinator must not be used
// afterward.
func (c *Coordinator) Close() {
	c.events.Close()
}

// emit publishes a fleet event without blocking. Callers hold the lock.
func (c *Coordinator) emit(kind core.EventKind, vehicleID, missionID, detail string) {
	ev := core.FleetEvent{
		Kind:      kind,
		VehicleID: vehicleID,
		MissionID: missionID,
		Detail:    detail,
		Time:      c.now(),
	}
	if !c.events.TrySend(ev) {
		c.log.Warn("event bus full, dropping event", "kind", kind)
	}
}

// RegisterVehicle adds a vehicle to the fleet and creates its flight
// controller, grounded and disarmed.
func (c *Coordinator) RegisterVehicle(id string, pos core.Position, capabilities []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.registry.Register(id, pos, capabilities); err != nil {
		return err
	}
	c.controllers[id] = flight.NewController(id, pos, c.cfg.Limits)

	c.log.Info("vehicle registered", "vehicle", id, "fleetSize", c.registry.Len())
	c.emit(core.EventVehicleRegistered, id, "", "")
	return nil
}

// UnregisterVehicle removes a vehicle and strips it from every
// mission's assignment list. Missions whose assignment list empties out
// keep their status: an active mission with zero vehicles is reported,
// not repaired.
func (c *Coordinator) UnregisterVehicle(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.registry.Unregister(id); err != nil {
		return err
	}
	c.ledger.RemoveVehicle(id)
	delete(c.controllers, id)

	c.log.Info("vehicle unregistered", "vehicle", id, "fleetSize", c.registry.Len())
	c.emit(core.EventVehicleUnregistered, id, "", "")
	return nil
}

// UpdateTelemetry applies a partial telemetry update. A battery level
// below the emergency threshold while airborne triggers the flight
// controller's emergency landing as a side effect — observable through
// the vehicle's flight state afterward, never as an error here.
func (c *Coordinator) UpdateTelemetry(id string, u core.TelemetryUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.registry.UpdateTelemetry(id, u); err != nil {
		return err
	}

	ctrl := c.controllers[id]
	if u.Position != nil {
		ctrl.SetPosition(*u.Position)
	}
	if u.Battery != nil {
		airborne := ctrl.State().Status.Airborne()
		ctrl.UpdateBattery(*u.Battery)
		if airborne && ctrl.Battery() < c.cfg.Limits.EmergencyBattery {
			c.syncPosition(id, ctrl)
			c.log.Warn("critical battery, emergency landing",
				"vehicle", id, "battery", ctrl.Battery())
			c.emit(core.EventEmergencyStop, id, "", "critical battery")
		}
	}

	c.emit(core.EventTelemetryUpdated, id, "", "")
	return nil
}

// GetVehicle returns a snapshot of the vehicle, flight state included
// in the Status-independent fields owned by the registry.
func (c *Coordinator) GetVehicle(id string) (core.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.registry.Get(id)
	if !ok {
		return core.Vehicle{}, fmt.Errorf("get vehicle %s: %w", id, core.ErrNotFound)
	}
	return *v, nil
}

// ListVehicles returns snapshots of all vehicles in registration order.
func (c *Coordinator) ListVehicles() []core.Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.registry.List()
	out := make([]core.Vehicle, len(list))
	for i, v := range list {
		out[i] = *v
	}
	return out
}

// FlightState returns the vehicle's current flight state.
func (c *Coordinator) FlightState(id string) (core.FlightState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctrl, ok := c.controllers[id]
	if !ok {
		return core.FlightState{}, fmt.Errorf("flight state %s: %w", id, core.ErrNotFound)
	}
	return ctrl.State(), nil
}

// CreateMission records a new pending mission. The area bounds must be
// ordered and the mission type assignable.
func (c *Coordinator) CreateMission(missionType core.MissionType, area core.AreaBounds, priority int) (core.Mission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !missionType.IsValid() {
		return core.Mission{}, fmt.Errorf("create mission: type %q: %w", missionType, core.ErrInvalidParameter)
	}
	if !area.Valid() {
		return core.Mission{}, fmt.Errorf("create mission: bounds %+v: %w", area, core.ErrInvalidParameter)
	}

	m := c.ledger.Create(missionType, area, priority)
	c.log.Info("mission created", "mission", m.ID, "type", m.Type, "priority", m.Priority)
	c.emit(core.EventMissionCreated, "", m.ID, string(m.Type))
	return *m, nil
}

// AssignMission assigns the given vehicles to a mission atomically.
func (c *Coordinator) AssignMission(missionID string, vehicleIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ledger.Assign(missionID, vehicleIDs); err != nil {
		return err
	}
	c.log.Info("mission assigned", "mission", missionID, "vehicles", len(vehicleIDs))
	c.emit(core.EventMissionAssigned, "", missionID, "")
	return nil
}

// AutoAssignMission assigns the first ready, idle vehicle in
// registration order.
func (c *Coordinator) AutoAssignMission(missionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ledger.AutoAssign(missionID); err != nil {
		return err
	}
	c.log.Info("mission auto-assigned", "mission", missionID)
	c.emit(core.EventMissionAssigned, "", missionID, "auto")
	return nil
}

// CompleteMission marks the mission completed and frees its vehicles.
func (c *Coordinator) CompleteMission(missionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ledger.Complete(missionID); err != nil {
		return err
	}
	c.log.Info("mission completed", "mission", missionID)
	c.emit(core.EventMissionCompleted, "", missionID, "")
	return nil
}

// FailMission marks the mission failed. Never called automatically.
func (c *Coordinator) FailMission(missionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ledger.Fail(missionID); err != nil {
		return err
	}
	c.log.Warn("mission failed", "mission", missionID)
	c.emit(core.EventMissionFailed, "", missionID, "")
	return nil
}

// GetMission returns a snapshot of the mission.
func (c *Coordinator) GetMission(missionID string) (core.Mission, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.ledger.Get(missionID)
	if !ok {
		return core.Mission{}, fmt.Errorf("get mission %s: %w", missionID, core.ErrNotFound)
	}
	snap := *m
	snap.AssignedVehicles = append([]string(nil), m.AssignedVehicles...)
	return snap, nil
}

// ListMissions returns snapshots of all missions in creation order.
func (c *Coordinator) ListMissions() []core.Mission {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.ledger.List()
	out := make([]core.Mission, len(list))
	for i, m := range list {
		out[i] = *m
		out[i].AssignedVehicles = append([]string(nil), m.AssignedVehicles...)
	}
	return out
}

// CheckCollisionRisks reports every vehicle pair closer than the
// configured minimum separation, each unordered pair once in
// registration order.
func (c *Coordinator) CheckCollisionRisks() []core.CollisionRisk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return geo.CollisionRisks(c.registry.List(), c.cfg.MinSeparation)
}

// OptimizeCoverage computes one target per vehicle over the area.
func (c *Coordinator) OptimizeCoverage(area core.AreaBounds, vehicleIDs []string) (map[string]core.Target, error) {
	if !area.Valid() {
		return nil, fmt.Errorf("optimize coverage: bounds %+v: %w", area, core.ErrInvalidParameter)
	}
	return geo.CoverageTargets(area, vehicleIDs), nil
}

// ListInactiveVehicles reports vehicles whose telemetry is older than
// the timeout. A non-positive timeout uses the configured default.
func (c *Coordinator) ListInactiveVehicles(timeout time.Duration) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if timeout <= 0 {
		timeout = c.cfg.HeartbeatTimeout
	}
	inactive := c.registry.ListInactive(timeout)
	return inactive
}

// Statistics summarizes the fleet at a point in time.
func (c *Coordinator) Statistics() core.Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idle := 0
	for _, v := range c.registry.List() {
		if v.Idle() {
			idle++
		}
	}
	total := c.registry.Len()

	return core.Statistics{
		TotalVehicles:  total,
		IdleVehicles:   idle,
		ActiveVehicles: total - idle,
		TotalMissions:  c.ledger.Len(),
		ActiveMissions: c.ledger.ActiveCount(),
		CollisionRisks: len(geo.CollisionRisks(c.registry.List(), c.cfg.MinSeparation)),
	}
}

// syncPosition copies the flight controller's position into the
// registry record without touching LastUpdate: flight transitions are
// not telemetry heartbeats.
func (c *Coordinator) syncPosition(id string, ctrl *flight.Controller) {
	if v, ok := c.registry.Get(id); ok {
		v.Position = ctrl.Position()
	}
}
