// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine. It serves both
// the postgres and the local sqlite configurations; the sqlite backend
// composes over it.
package gormstorage

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/skycoord/fleet/internal/cache"
	"github.com/skycoord/fleet/internal/database"
	"github.com/skycoord/fleet/internal/logging"
	"github.com/skycoord/fleet/internal/model"
	"github.com/skycoord/fleet/internal/model/convert"
	"github.com/skycoord/fleet/internal/queue"
	"github.com/skycoord/fleet/pkg/core"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	Vehicles   *cache.VehicleCache
	LogManager *logging.SlogManager

	// IsDatabaseValid gates the standalone postgres dial in Init. With DB nil
	// and this returning false the backend runs queue-only, which is what the
	// unit tests use.
	IsDatabaseValid func() bool
	// DBInsertsPaused suspends writer cycles during maintenance windows.
	DBInsertsPaused func() bool
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Vehicles       *queue.Queue[model.Vehicle]
	Telemetry      *queue.Queue[model.TelemetrySample]
	Missions       *queue.Queue[model.Mission]
	FleetEvents    *queue.Queue[model.FleetEvent]
	CollisionRisks *queue.Queue[model.CollisionRisk]
	Weather        *queue.Queue[model.WeatherObservation]
	Obstacles      *queue.Queue[model.Obstacle]
	Statistics     *queue.Queue[model.FleetStatistics]
}

func newQueues() *queues {
	return &queues{
		Vehicles:       queue.New[model.Vehicle](),
		Telemetry:      queue.New[model.TelemetrySample](),
		Missions:       queue.New[model.Mission](),
		FleetEvents:    queue.New[model.FleetEvent](),
		CollisionRisks: queue.New[model.CollisionRisk](),
		Weather:        queue.New[model.WeatherObservation](),
		Obstacles:      queue.New[model.Obstacle](),
		Statistics:     queue.New[model.FleetStatistics](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps                Dependencies
	queues              *queues
	sessionID           atomic.Uint64
	stopChan            chan struct{}
	dbReady             bool
	lastDBWriteDuration time.Duration
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.IsDatabaseValid == nil {
		deps.IsDatabaseValid = func() bool { return deps.DB != nil }
	}
	if deps.DBInsertsPaused == nil {
		deps.DBInsertsPaused = func() bool { return false }
	}
	return &Backend{
		deps: deps,
	}
}

// Init creates internal queues, runs schema migration, and starts the DB
// writer goroutine. If no DB was injected via Dependencies and the database
// is reported valid, it creates its own postgres connection.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if b.deps.DB == nil && b.deps.IsDatabaseValid() {
		db, err := database.GetPostgresDBStandalone()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	if b.deps.DB != nil {
		if err := b.setupDB(); err != nil {
			return fmt.Errorf("failed to setup DB: %w", err)
		}
		b.dbReady = true
	}

	b.startDBWriter()
	return nil
}

// setupDB migrates tables and seeds operator info if it doesn't exist.
func (b *Backend) setupDB() error {
	db := b.deps.DB
	log := b.deps.LogManager

	if !db.Migrator().HasTable(&model.FleetInfo{}) {
		if err := db.AutoMigrate(&model.FleetInfo{}); err != nil {
			log.WriteLog("setupDB", fmt.Sprintf("Failed to create fleet_infos table: %s", err), "ERROR")
			return fmt.Errorf("failed to auto-migrate FleetInfo: %w", err)
		}
		if err := db.Create(&model.FleetInfo{
			OperatorName:        "SkyCoord",
			OperatorDescription: "SkyCoord fleet operations",
			OperatorWebsite:     "https://skycoord.example.com",
		}).Error; err != nil {
			return fmt.Errorf("failed to create fleet_info entry: %w", err)
		}
	}

	log.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}

// Close flushes outstanding writes and stops the DB writer goroutine.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		b.stopChan = nil
	}
	if b.deps.DB != nil && b.dbReady {
		b.flushAll()
	}
	return nil
}

// StartSession inserts the session row and stores its DB-generated ID for
// the writer goroutine to stamp onto queued records.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB == nil {
		return nil
	}

	gormSession := convert.SessionToModel(*s)
	if err := b.deps.DB.Create(&gormSession).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}

	s.ID = gormSession.ID
	b.sessionID.Store(uint64(gormSession.ID))
	return nil
}

// SetSessionID sets the current session ID for the DB writer (used by CLI tools).
func (b *Backend) SetSessionID(id uint) {
	b.sessionID.Store(uint64(id))
}

// EndSession flushes outstanding writes and stamps the session end time.
func (b *Backend) EndSession() error {
	if b.deps.DB == nil {
		return nil
	}

	b.flushAll()

	sessionID := uint(b.sessionID.Load())
	if sessionID == 0 {
		return nil
	}
	now := time.Now()
	if err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", sessionID).
		Update("ended_at", &now).Error; err != nil {
		return fmt.Errorf("failed to stamp session end: %w", err)
	}
	return nil
}

// AddVehicle converts a core vehicle to GORM, pushes to the write queue,
// and records it in the vehicle cache.
func (b *Backend) AddVehicle(v *core.Vehicle) error {
	gormObj := convert.VehicleToModel(*v)
	b.queues.Vehicles.Push(gormObj)
	if b.deps.Vehicles != nil {
		b.deps.Vehicles.Add(*v)
	}
	return nil
}

// RemoveVehicle soft-deletes the vehicle row and drops it from the cache.
// Recorded telemetry for the vehicle is kept.
func (b *Backend) RemoveVehicle(vehicleID string) error {
	if b.deps.Vehicles != nil {
		b.deps.Vehicles.Remove(vehicleID)
	}
	if b.deps.DB == nil {
		return nil
	}

	sessionID := uint(b.sessionID.Load())
	if err := b.deps.DB.
		Where("session_id = ? AND vehicle_id = ?", sessionID, vehicleID).
		Delete(&model.Vehicle{}).Error; err != nil {
		return fmt.Errorf("failed to soft-delete vehicle %s: %w", vehicleID, err)
	}
	return nil
}

// RecordTelemetry converts and queues a telemetry sample.
func (b *Backend) RecordTelemetry(t *core.TelemetrySample) error {
	gormObj := convert.TelemetryToModel(*t)
	b.queues.Telemetry.Push(gormObj)
	return nil
}

// RecordFleetEvent converts and queues a coordination event.
func (b *Backend) RecordFleetEvent(e *core.FleetEvent) error {
	gormObj := convert.FleetEventToModel(*e)
	b.queues.FleetEvents.Push(gormObj)
	return nil
}

// RecordMission converts and queues a mission snapshot. Rows are append-only;
// the latest row per mission ID reflects the current state.
func (b *Backend) RecordMission(m *core.Mission) error {
	gormObj := convert.MissionToModel(*m)
	b.queues.Missions.Push(gormObj)
	return nil
}

// RecordCollisionRisk converts and queues a separation violation.
func (b *Backend) RecordCollisionRisk(r *core.CollisionRisk) error {
	gormObj := convert.CollisionRiskToModel(*r)
	b.queues.CollisionRisks.Push(gormObj)
	return nil
}

// RecordWeather converts and queues a weather observation.
func (b *Backend) RecordWeather(w *core.WeatherData) error {
	gormObj := convert.WeatherToModel(*w)
	b.queues.Weather.Push(gormObj)
	return nil
}

// RecordObstacle converts and queues a detection.
func (b *Backend) RecordObstacle(o *core.Obstacle) error {
	gormObj := convert.ObstacleToModel(*o)
	b.queues.Obstacles.Push(gormObj)
	return nil
}

// RecordStatistics converts and queues a fleet counter snapshot.
func (b *Backend) RecordStatistics(s *core.Statistics) error {
	gormObj := convert.StatisticsToModel(*s)
	b.queues.Statistics.Push(gormObj)
	return nil
}

// GetVehicle looks up a vehicle in the cache by its fleet ID.
func (b *Backend) GetVehicle(vehicleID string) (core.Vehicle, bool) {
	if b.deps.Vehicles == nil {
		return core.Vehicle{}, false
	}
	return b.deps.Vehicles.Get(vehicleID)
}

// GetLastDBWriteDuration returns how long the most recent write cycle took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return b.lastDBWriteDuration
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string), prepare func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.Drain()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Push(items...)
		return
	}

	tx.Commit()
}

// flushAll drains every queue into the DB once, stamping the current session ID.
func (b *Backend) flushAll() {
	log := b.deps.LogManager.WriteLog
	sessionID := uint(b.sessionID.Load())

	stampVehicles := func(items []model.Vehicle) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampTelemetry := func(items []model.TelemetrySample) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampMissions := func(items []model.Mission) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampFleetEvents := func(items []model.FleetEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampCollisionRisks := func(items []model.CollisionRisk) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampWeather := func(items []model.WeatherObservation) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampObstacles := func(items []model.Obstacle) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampStatistics := func(items []model.FleetStatistics) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}

	// Fleet membership before the rows that reference it
	writeQueue(b.deps.DB, b.queues.Vehicles, "vehicles", log, stampVehicles)

	// High-volume streams
	writeQueue(b.deps.DB, b.queues.Telemetry, "telemetry samples", log, stampTelemetry)

	// Coordination records
	writeQueue(b.deps.DB, b.queues.Missions, "missions", log, stampMissions)
	writeQueue(b.deps.DB, b.queues.FleetEvents, "fleet events", log, stampFleetEvents)
	writeQueue(b.deps.DB, b.queues.CollisionRisks, "collision risks", log, stampCollisionRisks)
	writeQueue(b.deps.DB, b.queues.Weather, "weather observations", log, stampWeather)
	writeQueue(b.deps.DB, b.queues.Obstacles, "obstacles", log, stampObstacles)
	writeQueue(b.deps.DB, b.queues.Statistics, "fleet statistics", log, stampStatistics)
}

// startDBWriter starts the background goroutine that periodically drains
// queues into the DB.
func (b *Backend) startDBWriter() {
	stop := b.stopChan
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}

			if b.deps.DB == nil || !b.dbReady || b.deps.DBInsertsPaused() {
				time.Sleep(1 * time.Second)
				continue
			}

			start := time.Now()
			b.flushAll()
			b.lastDBWriteDuration = time.Since(start)

			time.Sleep(2 * time.Second)
		}
	}()
}
