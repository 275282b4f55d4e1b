package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&FleetInfo{},
	&Session{},
	&Vehicle{},
	&TelemetrySample{},
	&Mission{},
	&FleetEvent{},
	&CollisionRisk{},
	&WeatherObservation{},
	&Obstacle{},
	&FleetStatistics{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// FleetInfo contains operator information about the instance
type FleetInfo struct {
	gorm.Model
	OperatorName        string `json:"operatorName" gorm:"size:127"`
	OperatorDescription string `json:"operatorDescription" gorm:"size:255"`
	OperatorWebsite     string `json:"operatorURL" gorm:"size:255"`
}

func (*FleetInfo) TableName() string {
	return "fleet_infos"
}

// Session is one run of the coordination daemon
type Session struct {
	gorm.Model
	Name      string     `json:"name" gorm:"size:200"`
	Version   string     `json:"version" gorm:"size:64"`
	StartedAt time.Time  `json:"startedAt" gorm:"type:timestamptz;index:idx_session_start"`
	EndedAt   *time.Time `json:"endedAt" gorm:"type:timestamptz"`

	Vehicles        []Vehicle
	Missions        []Mission
	FleetEvents     []FleetEvent
	CollisionRisks  []CollisionRisk
	Observations    []WeatherObservation
	Obstacles       []Obstacle
	FleetStatistics []FleetStatistics
}

func (*Session) TableName() string {
	return "sessions"
}

////////////////////////
// FLEET MODELS
////////////////////////

// Vehicle is a registered fleet member
type Vehicle struct {
	SessionID    uint           `json:"sessionId" gorm:"primaryKey;autoIncrement:false"`
	VehicleID    string         `json:"vehicleId" gorm:"primaryKey;size:64"`
	Session      Session        `gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"deletedAt" gorm:"index"`
	JoinTime     time.Time      `json:"joinTime" gorm:"type:timestamptz;NOT NULL;index:idx_vehicle_join_time"`
	Capabilities datatypes.JSON `json:"capabilities"` // capability names as JSON array
	JoinLat      float64        `json:"joinLat"`
	JoinLon      float64        `json:"joinLon"`
	JoinAlt      float64        `json:"joinAlt"`
}

func (*Vehicle) TableName() string {
	return "vehicles"
}

// TelemetrySample tracks vehicle state at a point in time.
// References Vehicle by (SessionID, VehicleID) composite FK.
type TelemetrySample struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_telemetry_session_id"`
	VehicleID string    `json:"vehicleId" gorm:"size:64;index:idx_telemetry_vehicle_id"`
	Time      time.Time `json:"time" gorm:"type:timestamptz;index:idx_telemetry_time"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Alt       float64   `json:"alt"`
	// Web mercator (EPSG:3857) easting and northing derived from
	// Lat/Lon, so exported rows can be mapped without spatial
	// awareness in SQLite
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Battery float64 `json:"battery"`
	Status  string  `json:"status" gorm:"size:32"`
}

func (*TelemetrySample) TableName() string {
	return "telemetry_samples"
}

// Mission is a recorded tasking order
type Mission struct {
	gorm.Model
	SessionID        uint           `json:"sessionId" gorm:"index:idx_mission_session_id"`
	MissionID        string         `json:"missionId" gorm:"size:64;index:idx_mission_mission_id"`
	Type             string         `json:"type" gorm:"size:32"`
	Status           string         `json:"status" gorm:"size:32"`
	Priority         int            `json:"priority"`
	MinLat           float64        `json:"minLat"`
	MaxLat           float64        `json:"maxLat"`
	MinLon           float64        `json:"minLon"`
	MaxLon           float64        `json:"maxLon"`
	AreaGeometry     []byte         `json:"-"` // WKB envelope of the area bounds
	AssignedVehicles datatypes.JSON `json:"assignedVehicles"` // vehicle ids as JSON array
}

func (*Mission) TableName() string {
	return "missions"
}

// FleetEvent is a recorded coordination event
type FleetEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	SessionID uint           `json:"sessionId" gorm:"index:idx_fleetevent_session_id"`
	Time      time.Time      `json:"time" gorm:"type:timestamptz;index:idx_fleetevent_time"`
	Kind      string         `json:"kind" gorm:"size:64"`
	VehicleID string         `json:"vehicleId" gorm:"size:64"`
	MissionID string         `json:"missionId" gorm:"size:64"`
	Detail    datatypes.JSON `json:"detail" gorm:"default:'{}'"`
}

func (*FleetEvent) TableName() string {
	return "fleet_events"
}

// CollisionRisk is a recorded separation violation between two vehicles
type CollisionRisk struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_collisionrisk_session_id"`
	Time      time.Time `json:"time" gorm:"type:timestamptz;index:idx_collisionrisk_time"`
	VehicleA  string    `json:"vehicleA" gorm:"size:64"`
	VehicleB  string    `json:"vehicleB" gorm:"size:64"`
	Distance  float64   `json:"distance"`
}

func (*CollisionRisk) TableName() string {
	return "collision_risks"
}

// WeatherObservation is a recorded weather data point
type WeatherObservation struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	SessionID     uint      `json:"sessionId" gorm:"index:idx_weather_session_id"`
	Time          time.Time `json:"time" gorm:"type:timestamptz;index:idx_weather_time"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection float64   `json:"windDirection"`
	Pressure      float64   `json:"pressure"`
	Visibility    float64   `json:"visibility"`
	Precipitation float64   `json:"precipitation"`
	Condition     string    `json:"condition" gorm:"size:32"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
}

func (*WeatherObservation) TableName() string {
	return "weather_observations"
}

// Obstacle is a recorded detection
type Obstacle struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SessionID  uint      `json:"sessionId" gorm:"index:idx_obstacle_session_id"`
	ObstacleID string    `json:"obstacleId" gorm:"size:64"`
	Time       time.Time `json:"time" gorm:"type:timestamptz;index:idx_obstacle_time"`
	Type       string    `json:"type" gorm:"size:32"`
	Distance   float64   `json:"distance"`
	Threat     string    `json:"threatLevel" gorm:"size:16"`
	Confidence float64   `json:"confidence"`
	OffsetX    float64   `json:"offsetX"`
	OffsetY    float64   `json:"offsetY"`
	OffsetZ    float64   `json:"offsetZ"`
}

func (*Obstacle) TableName() string {
	return "obstacles"
}

// FleetStatistics is a periodic snapshot of fleet counters
type FleetStatistics struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	SessionID      uint      `json:"sessionId" gorm:"index:idx_fleetstats_session_id"`
	Time           time.Time `json:"time" gorm:"type:timestamptz;index:idx_fleetstats_time"`
	TotalVehicles  int       `json:"totalVehicles"`
	IdleVehicles   int       `json:"idleVehicles"`
	ActiveVehicles int       `json:"activeVehicles"`
	TotalMissions  int       `json:"totalMissions"`
	ActiveMissions int       `json:"activeMissions"`
	CollisionRisks int       `json:"collisionRisks"`
}

func (*FleetStatistics) TableName() string {
	return "fleet_statistics"
}
