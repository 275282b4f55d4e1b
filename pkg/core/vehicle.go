// pkg/core/vehicle.go
package core

import "time"

// ReadyStatus is the readiness string a vehicle carries on registration.
// Telemetry updates may overwrite it with operator-defined strings;
// auto-assignment only considers vehicles reporting ReadyStatus.
const ReadyStatus = "ready"

// Vehicle is a registered fleet member. ID is unique and immutable for
// the lifetime of the registration.
type Vehicle struct {
	ID           string          `json:"vehicleId"`
	Position     Position        `json:"position"`
	BatteryLevel float64         `json:"batteryLevel"`
	Capabilities map[string]bool `json:"capabilities"`
	Status       string          `json:"status"`
	Task         MissionType     `json:"task"`
	LastUpdate   time.Time       `json:"lastUpdate"`
}

// HasCapability reports whether the vehicle advertises the given tag.
func (v *Vehicle) HasCapability(tag string) bool {
	return v.Capabilities[tag]
}

// Idle reports whether the vehicle has no mission task assigned.
func (v *Vehicle) Idle() bool {
	return v.Task == TaskIdle
}

// CapabilityList returns the capability tags as a slice.
// Map iteration order applies; callers needing determinism should sort.
func (v *Vehicle) CapabilityList() []string {
	if len(v.Capabilities) == 0 {
		return nil
	}
	tags := make([]string, 0, len(v.Capabilities))
	for tag := range v.Capabilities {
		tags = append(tags, tag)
	}
	return tags
}

// TelemetryUpdate is a partial state update for a vehicle. Nil fields
// are left unchanged; LastUpdate always refreshes.
type TelemetryUpdate struct {
	Position *Position
	Battery  *float64
	Status   *string
}
