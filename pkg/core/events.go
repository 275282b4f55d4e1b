// pkg/core/events.go
package core

import "time"

// EventKind identifies a fleet event category.
type EventKind string

const (
	EventVehicleRegistered   EventKind = "vehicle_registered"
	EventVehicleUnregistered EventKind = "vehicle_unregistered"
	EventTelemetryUpdated    EventKind = "telemetry_updated"
	EventMissionCreated      EventKind = "mission_created"
	EventMissionAssigned     EventKind = "mission_assigned"
	EventMissionCompleted    EventKind = "mission_completed"
	EventMissionFailed       EventKind = "mission_failed"
	EventCollisionRisk       EventKind = "collision_risk"
	EventEmergencyStop       EventKind = "emergency_stop"
	EventVehicleInactive     EventKind = "vehicle_inactive"
	EventVehicleOffStation   EventKind = "vehicle_off_station"
)

// FleetEvent is a notification emitted by the coordinator. Delivery is
// at-most-once over a bounded channel, in emission order; consumers that
// fall behind lose events rather than blocking mutations.
type FleetEvent struct {
	Kind      EventKind `json:"kind"`
	VehicleID string    `json:"vehicleId,omitempty"`
	MissionID string    `json:"missionId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Time      time.Time `json:"time"`
}

// CollisionRisk is a pair of vehicles closer than the separation
// minimum. A appears before B in registry insertion order and each
// unordered pair is reported once.
type CollisionRisk struct {
	VehicleA string  `json:"vehicleA"`
	VehicleB string  `json:"vehicleB"`
	Distance float64 `json:"distance"`
}

// Statistics is a point-in-time summary of the fleet.
type Statistics struct {
	TotalVehicles  int `json:"totalVehicles"`
	IdleVehicles   int `json:"idleVehicles"`
	ActiveVehicles int `json:"activeVehicles"`
	TotalMissions  int `json:"totalMissions"`
	ActiveMissions int `json:"activeMissions"`
	CollisionRisks int `json:"collisionRisks"`
}
