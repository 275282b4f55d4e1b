// Package convert maps wire-level core types to GORM models. The
// conversion never touches the database; session ids are stamped by the
// write loop at flush time.
package convert

import (
	"encoding/json"

	"github.com/skycoord/fleet/internal/geo"
	"github.com/skycoord/fleet/internal/model"
	"github.com/skycoord/fleet/pkg/core"

	"gorm.io/datatypes"
)

// SessionToModel converts a core session to its GORM model.
func SessionToModel(s core.Session) model.Session {
	return model.Session{
		Name:      s.Name,
		Version:   s.Version,
		StartedAt: s.StartedAt,
	}
}

// VehicleToModel converts a registered vehicle to its GORM model.
func VehicleToModel(v core.Vehicle) model.Vehicle {
	caps, _ := json.Marshal(v.CapabilityList())
	return model.Vehicle{
		VehicleID:    v.ID,
		JoinTime:     v.LastUpdate,
		Capabilities: datatypes.JSON(caps),
		JoinLat:      v.Position.Lat,
		JoinLon:      v.Position.Lon,
		JoinAlt:      v.Position.Alt,
	}
}

// TelemetryToModel converts a telemetry sample to its GORM model.
// Positions are stored twice, as the geodetic degrees the vehicle
// reported and as the 3857 projection of them.
func TelemetryToModel(t core.TelemetrySample) model.TelemetrySample {
	merc, _ := geo.Point3857(t.Position).XY()
	return model.TelemetrySample{
		VehicleID: t.VehicleID,
		Time:      t.Time,
		Lat:       t.Position.Lat,
		Lon:       t.Position.Lon,
		Alt:       t.Position.Alt,
		X:         merc.X,
		Y:         merc.Y,
		Battery:   t.Battery,
		Status:    t.Status,
	}
}

// MissionToModel converts a mission to its GORM model.
func MissionToModel(m core.Mission) model.Mission {
	assigned, _ := json.Marshal(m.AssignedVehicles)
	return model.Mission{
		MissionID:        m.ID,
		Type:             string(m.Type),
		Status:           string(m.Status),
		Priority:         m.Priority,
		MinLat:           m.Area.MinLat,
		MaxLat:           m.Area.MaxLat,
		MinLon:           m.Area.MinLon,
		MaxLon:           m.Area.MaxLon,
		AreaGeometry:     geo.AreaWKB(m.Area),
		AssignedVehicles: datatypes.JSON(assigned),
	}
}

// FleetEventToModel converts a coordination event to its GORM model.
func FleetEventToModel(e core.FleetEvent) model.FleetEvent {
	detail, _ := json.Marshal(map[string]string{"detail": e.Detail})
	return model.FleetEvent{
		Time:      e.Time,
		Kind:      string(e.Kind),
		VehicleID: e.VehicleID,
		MissionID: e.MissionID,
		Detail:    datatypes.JSON(detail),
	}
}

// CollisionRiskToModel converts a separation violation to its GORM model.
func CollisionRiskToModel(r core.CollisionRisk) model.CollisionRisk {
	return model.CollisionRisk{
		VehicleA: r.VehicleA,
		VehicleB: r.VehicleB,
		Distance: r.Distance,
	}
}

// WeatherToModel converts a weather observation to its GORM model.
func WeatherToModel(w core.WeatherData) model.WeatherObservation {
	return model.WeatherObservation{
		Time:          w.Time,
		Temperature:   w.Temperature,
		Humidity:      w.Humidity,
		WindSpeed:     w.WindSpeed,
		WindDirection: w.WindDirection,
		Pressure:      w.Pressure,
		Visibility:    w.Visibility,
		Precipitation: w.Precipitation,
		Condition:     string(w.Condition),
		Lat:           w.Lat,
		Lon:           w.Lon,
	}
}

// ObstacleToModel converts a detection to its GORM model.
func ObstacleToModel(o core.Obstacle) model.Obstacle {
	return model.Obstacle{
		ObstacleID: o.ID,
		Time:       o.DetectedAt,
		Type:       string(o.Type),
		Distance:   o.Distance,
		Threat:     string(o.Threat),
		Confidence: o.Confidence,
		OffsetX:    o.Offset[0],
		OffsetY:    o.Offset[1],
		OffsetZ:    o.Offset[2],
	}
}

// StatisticsToModel converts a fleet counter snapshot to its GORM model.
func StatisticsToModel(s core.Statistics) model.FleetStatistics {
	return model.FleetStatistics{
		TotalVehicles:  s.TotalVehicles,
		IdleVehicles:   s.IdleVehicles,
		ActiveVehicles: s.ActiveVehicles,
		TotalMissions:  s.TotalMissions,
		ActiveMissions: s.ActiveMissions,
		CollisionRisks: s.CollisionRisks,
	}
}
