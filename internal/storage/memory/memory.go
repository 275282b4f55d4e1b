// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/skycoord/fleet/internal/config"
	"github.com/skycoord/fleet/pkg/core"
)

// VehicleRecord groups a vehicle with its recorded telemetry track
type VehicleRecord struct {
	Vehicle core.Vehicle
	Track   []core.TelemetrySample
}

// Backend stores session data in memory and exports to JSON on session end
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	vehicles   map[string]*VehicleRecord // keyed by vehicle ID
	order      []string                  // registration order for stable export
	missions   []core.Mission
	missionIdx map[string]int // mission ID -> index in missions

	events    []core.FleetEvent
	risks     []core.CollisionRisk
	weather   []core.WeatherData
	obstacles []core.Obstacle
	stats     []core.Statistics

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:        cfg,
		vehicles:   make(map[string]*VehicleRecord),
		missionIdx: make(map[string]int),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s

	// Reset all collections
	b.vehicles = make(map[string]*VehicleRecord)
	b.order = nil
	b.missions = nil
	b.missionIdx = make(map[string]int)
	b.events = nil
	b.risks = nil
	b.weather = nil
	b.obstacles = nil
	b.stats = nil

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	return b.exportJSON()
}

// AddVehicle registers a new vehicle
func (b *Backend) AddVehicle(v *core.Vehicle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.vehicles[v.ID]; !ok {
		b.order = append(b.order, v.ID)
	}
	b.vehicles[v.ID] = &VehicleRecord{
		Vehicle: *v,
		Track:   make([]core.TelemetrySample, 0),
	}
	return nil
}

// RemoveVehicle keeps the recorded history; departure shows up as a
// fleet event, not as data loss.
func (b *Backend) RemoveVehicle(vehicleID string) error {
	return nil
}

// RecordTelemetry appends a telemetry sample to the vehicle's track
func (b *Backend) RecordTelemetry(t *core.TelemetrySample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.vehicles[t.VehicleID]
	if !ok {
		// telemetry for an unknown vehicle is dropped silently
		return nil
	}
	record.Track = append(record.Track, *t)
	return nil
}

// RecordFleetEvent appends a coordination event
func (b *Backend) RecordFleetEvent(e *core.FleetEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, *e)
	return nil
}

// RecordMission upserts a mission snapshot by ID, keeping creation order
func (b *Backend) RecordMission(m *core.Mission) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx, ok := b.missionIdx[m.ID]; ok {
		b.missions[idx] = *m
		return nil
	}
	b.missionIdx[m.ID] = len(b.missions)
	b.missions = append(b.missions, *m)
	return nil
}

// RecordCollisionRisk appends a separation violation
func (b *Backend) RecordCollisionRisk(r *core.CollisionRisk) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.risks = append(b.risks, *r)
	return nil
}

// RecordWeather appends a weather observation
func (b *Backend) RecordWeather(w *core.WeatherData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.weather = append(b.weather, *w)
	return nil
}

// RecordObstacle appends a detection
func (b *Backend) RecordObstacle(o *core.Obstacle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.obstacles = append(b.obstacles, *o)
	return nil
}

// RecordStatistics appends a fleet counter snapshot
func (b *Backend) RecordStatistics(s *core.Statistics) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats = append(b.stats, *s)
	return nil
}

// RecordedEvents returns a copy of the fleet events recorded so far.
func (b *Backend) RecordedEvents() []core.FleetEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.FleetEvent(nil), b.events...)
}

// GetExportedFilePath returns the path of the last exported flight log
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
