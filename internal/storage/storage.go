// internal/storage/storage.go
package storage

import "github.com/skycoord/fleet/pkg/core"

// Backend is the interface all history backends must satisfy. Backends
// record what happened; they never influence coordination decisions.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// Fleet membership
	AddVehicle(v *core.Vehicle) error
	RemoveVehicle(vehicleID string) error

	// Time-series recording
	RecordTelemetry(t *core.TelemetrySample) error
	RecordFleetEvent(e *core.FleetEvent) error
	RecordMission(m *core.Mission) error
	RecordCollisionRisk(r *core.CollisionRisk) error
	RecordWeather(w *core.WeatherData) error
	RecordObstacle(o *core.Obstacle) error
	RecordStatistics(s *core.Statistics) error
}

// Exportable is an optional interface for backends that produce a
// flight log file on session end.
type Exportable interface {
	GetExportedFilePath() string
}

// UploadMetadata describes an exported flight log for the ops server.
type UploadMetadata struct {
	SessionName  string
	Version      string
	Duration     float64 // seconds
	VehicleCount int
}
