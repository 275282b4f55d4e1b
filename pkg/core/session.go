// pkg/core/session.go
package core

import "time"

// Session is one run of the coordination daemon. History backends group
// everything they record under the active session.
type Session struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"startedAt"`
}

// TelemetrySample is one recorded telemetry observation for a vehicle.
type TelemetrySample struct {
	VehicleID string    `json:"vehicleId"`
	Position  Position  `json:"position"`
	Battery   float64   `json:"battery"`
	Status    string    `json:"status"`
	Time      time.Time `json:"time"`
}
