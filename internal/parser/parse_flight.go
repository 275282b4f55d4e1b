package parser

import (
	"fmt"

	"github.com/skycoord/fleet/pkg/core"
)

// ParseVehicleID parses commands that carry a bare vehicle id.
// Args: [vehicleId]
func (p *Parser) ParseVehicleID(data []string) (string, error) {
	sanitize(data)

	if len(data) < 1 || data[0] == "" {
		return "", fmt.Errorf("empty vehicle id")
	}
	return data[0], nil
}

// ParseTakeoff parses a takeoff command.
// Args: [vehicleId, targetAltitude]
func (p *Parser) ParseTakeoff(data []string) (string, float64, error) {
	sanitize(data)

	if len(data) < 2 {
		return "", 0, fmt.Errorf("takeoff: expected 2 args, got %d", len(data))
	}
	if data[0] == "" {
		return "", 0, fmt.Errorf("takeoff: empty vehicle id")
	}

	alt, err := parseFloat(data[1], "targetAltitude")
	if err != nil {
		return "", 0, err
	}

	return data[0], alt, nil
}

// ParseNavigate parses a navigation command.
// Args: [vehicleId, lat, lon, alt]
func (p *Parser) ParseNavigate(data []string) (string, core.Position, error) {
	sanitize(data)

	if len(data) < 4 {
		return "", core.Position{}, fmt.Errorf("navigate: expected 4 args, got %d", len(data))
	}
	if data[0] == "" {
		return "", core.Position{}, fmt.Errorf("navigate: empty vehicle id")
	}

	lat, err := parseFloat(data[1], "lat")
	if err != nil {
		return "", core.Position{}, err
	}
	lon, err := parseFloat(data[2], "lon")
	if err != nil {
		return "", core.Position{}, err
	}
	alt, err := parseFloat(data[3], "alt")
	if err != nil {
		return "", core.Position{}, err
	}

	return data[0], core.Position{Lat: lat, Lon: lon, Alt: alt}, nil
}

// ParseFlightMode parses a flight mode change.
// Args: [vehicleId, mode]
func (p *Parser) ParseFlightMode(data []string) (string, core.FlightMode, error) {
	sanitize(data)

	if len(data) < 2 {
		return "", "", fmt.Errorf("mode: expected 2 args, got %d", len(data))
	}
	if data[0] == "" {
		return "", "", fmt.Errorf("mode: empty vehicle id")
	}

	mode := core.FlightMode(data[1])
	if !mode.IsValid() {
		return "", "", fmt.Errorf("mode: unknown flight mode %q", data[1])
	}

	return data[0], mode, nil
}
