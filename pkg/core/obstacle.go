// pkg/core/obstacle.go
package core

import "time"

// ObstacleType classifies a detected obstacle.
type ObstacleType string

const (
	ObstacleUnknown   ObstacleType = "unknown"
	ObstacleTree      ObstacleType = "tree"
	ObstacleBuilding  ObstacleType = "building"
	ObstaclePowerLine ObstacleType = "power_line"
	ObstacleTower     ObstacleType = "tower"
	ObstacleVehicle   ObstacleType = "vehicle"
	ObstacleAnimal    ObstacleType = "animal"
	ObstaclePerson    ObstacleType = "person"
	ObstacleFence     ObstacleType = "fence"
	ObstacleTerrain   ObstacleType = "terrain"
	ObstacleDrone     ObstacleType = "drone"
)

// ThreatLevel grades how dangerous an obstacle is to the vehicle.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// Obstacle is a detection reported by the obstacle feed. Position is
// relative to the observing vehicle; Distance is meters. The flight
// controller consumes obstacles as data only and never reacts
// autonomously to them.
type Obstacle struct {
	ID         string       `json:"obstacleId"`
	Type       ObstacleType `json:"type"`
	Offset     [3]float64   `json:"offset"`
	Distance   float64      `json:"distance"`
	Threat     ThreatLevel  `json:"threatLevel"`
	Confidence float64      `json:"confidence"`
	DetectedAt time.Time    `json:"detectedAt"`
}
