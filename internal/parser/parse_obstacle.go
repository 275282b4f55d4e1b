package parser

import (
	"fmt"

	"github.com/skycoord/fleet/pkg/core"
)

// ObstacleReport is the parsed payload of an obstacle detection.
// Offset is relative to the observing vehicle, in meters.
type ObstacleReport struct {
	VehicleID  string
	Type       core.ObstacleType
	Offset     [3]float64
	Confidence float64
}

// ParseObstacle parses an obstacle detection report.
// Args: [vehicleId, obstacleType, dx, dy, dz, confidence]
func (p *Parser) ParseObstacle(data []string) (ObstacleReport, error) {
	var report ObstacleReport

	sanitize(data)

	if len(data) < 6 {
		return report, fmt.Errorf("obstacle: expected 6 args, got %d", len(data))
	}

	if data[0] == "" {
		return report, fmt.Errorf("obstacle: empty vehicle id")
	}
	report.VehicleID = data[0]
	report.Type = core.ObstacleType(data[1])

	for i, field := range []string{"dx", "dy", "dz"} {
		v, err := parseFloat(data[2+i], field)
		if err != nil {
			return report, err
		}
		report.Offset[i] = v
	}

	confidence, err := parseFloat(data[5], "confidence")
	if err != nil {
		return report, err
	}
	if confidence < 0 || confidence > 1 {
		return report, fmt.Errorf("obstacle: confidence %v out of range", confidence)
	}
	report.Confidence = confidence

	return report, nil
}
