package convert

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycoord/fleet/internal/geo"
	"github.com/skycoord/fleet/pkg/core"
)

func TestVehicleToModel(t *testing.T) {
	joined := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	v := core.Vehicle{
		ID:           "UAV-01",
		Position:     core.Position{Lat: 40.1, Lon: -75.2, Alt: 30},
		BatteryLevel: 80,
		Capabilities: map[string]bool{"camera": true, "lidar": true},
		LastUpdate:   joined,
	}

	m := VehicleToModel(v)

	assert.Equal(t, "UAV-01", m.VehicleID)
	assert.Equal(t, joined, m.JoinTime)
	assert.Equal(t, 40.1, m.JoinLat)
	assert.Equal(t, -75.2, m.JoinLon)
	assert.Equal(t, 30.0, m.JoinAlt)

	var caps []string
	require.NoError(t, json.Unmarshal(m.Capabilities, &caps))
	assert.ElementsMatch(t, []string{"camera", "lidar"}, caps)
}

func TestTelemetryToModel(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := core.TelemetrySample{
		VehicleID: "UAV-02",
		Position:  core.Position{Lat: 41, Lon: -74, Alt: 55},
		Battery:   63.5,
		Status:    "flying",
		Time:      now,
	}

	m := TelemetryToModel(s)

	assert.Equal(t, "UAV-02", m.VehicleID)
	assert.Equal(t, now, m.Time)
	assert.Equal(t, 41.0, m.Lat)
	assert.Equal(t, 55.0, m.Alt)
	assert.Equal(t, 63.5, m.Battery)
	assert.Equal(t, "flying", m.Status)
}

func TestTelemetryToModelMercator(t *testing.T) {
	s := core.TelemetrySample{
		VehicleID: "UAV-02",
		Position:  core.Position{Lat: 41, Lon: -74, Alt: 55},
		Time:      time.Now(),
	}

	m := TelemetryToModel(s)

	// Easting is analytic in spherical mercator, lon/180 * pi * R
	assert.InDelta(t, -74.0/180.0*math.Pi*6378137, m.X, 1.0)
	assert.Positive(t, m.Y, "northern hemisphere northing")

	merc, ok := geo.Point3857(s.Position).XY()
	require.True(t, ok)
	assert.Equal(t, merc.X, m.X)
	assert.Equal(t, merc.Y, m.Y)
}

func TestMissionToModel(t *testing.T) {
	c := core.Mission{
		ID:               "MISSION-0001",
		Type:             core.TaskSurvey,
		Area:             core.AreaBounds{MinLat: 40, MaxLat: 40.1, MinLon: -75, MaxLon: -74.9},
		AssignedVehicles: []string{"UAV-01", "UAV-02"},
		Priority:         3,
		Status:           core.MissionActive,
	}

	m := MissionToModel(c)

	assert.Equal(t, "MISSION-0001", m.MissionID)
	assert.Equal(t, "survey", m.Type)
	assert.Equal(t, "active", m.Status)
	assert.Equal(t, 3, m.Priority)
	assert.Equal(t, 40.1, m.MaxLat)
	assert.Equal(t, geo.AreaWKB(c.Area), m.AreaGeometry)
	assert.NotEmpty(t, m.AreaGeometry)

	var assigned []string
	require.NoError(t, json.Unmarshal(m.AssignedVehicles, &assigned))
	assert.Equal(t, []string{"UAV-01", "UAV-02"}, assigned)
}

func TestFleetEventToModel(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e := core.FleetEvent{
		Kind:      core.EventEmergencyStop,
		VehicleID: "UAV-01",
		Detail:    "battery",
		Time:      now,
	}

	m := FleetEventToModel(e)

	assert.Equal(t, "emergency_stop", m.Kind)
	assert.Equal(t, "UAV-01", m.VehicleID)
	assert.Equal(t, now, m.Time)

	var detail map[string]string
	require.NoError(t, json.Unmarshal(m.Detail, &detail))
	assert.Equal(t, "battery", detail["detail"])
}

func TestCollisionRiskToModel(t *testing.T) {
	m := CollisionRiskToModel(core.CollisionRisk{VehicleA: "A", VehicleB: "B", Distance: 5.57})
	assert.Equal(t, "A", m.VehicleA)
	assert.Equal(t, "B", m.VehicleB)
	assert.Equal(t, 5.57, m.Distance)
}

func TestWeatherToModel(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w := core.WeatherData{
		Temperature:   22,
		WindSpeed:     8.5,
		Visibility:    9000,
		Precipitation: 0.5,
		Condition:     core.WeatherLightRain,
		Time:          now,
		Lat:           40.5,
		Lon:           -74.5,
	}

	m := WeatherToModel(w)

	assert.Equal(t, "light_rain", m.Condition)
	assert.Equal(t, 8.5, m.WindSpeed)
	assert.Equal(t, now, m.Time)
	assert.Equal(t, 40.5, m.Lat)
}

func TestObstacleToModel(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	o := core.Obstacle{
		ID:         "OBS-0004",
		Type:       core.ObstacleTower,
		Offset:     [3]float64{3, 4, 0},
		Distance:   5,
		Threat:     core.ThreatCritical,
		Confidence: 0.92,
		DetectedAt: now,
	}

	m := ObstacleToModel(o)

	assert.Equal(t, "OBS-0004", m.ObstacleID)
	assert.Equal(t, "tower", m.Type)
	assert.Equal(t, "critical", m.Threat)
	assert.Equal(t, 5.0, m.Distance)
	assert.Equal(t, 3.0, m.OffsetX)
	assert.Equal(t, 4.0, m.OffsetY)
}

func TestStatisticsToModel(t *testing.T) {
	m := StatisticsToModel(core.Statistics{
		TotalVehicles:  5,
		IdleVehicles:   2,
		ActiveVehicles: 3,
		TotalMissions:  4,
		ActiveMissions: 1,
		CollisionRisks: 2,
	})

	assert.Equal(t, 5, m.TotalVehicles)
	assert.Equal(t, 3, m.ActiveVehicles)
	assert.Equal(t, 1, m.ActiveMissions)
	assert.Equal(t, 2, m.CollisionRisks)
}
