package parser

import (
	"fmt"

	"github.com/skycoord/fleet/internal/geo"
	"github.com/skycoord/fleet/internal/util"
	"github.com/skycoord/fleet/pkg/core"
)

// Registration is the parsed payload of a vehicle registration command.
type Registration struct {
	VehicleID    string
	Position     core.Position
	Capabilities []string
}

// ParseRegister parses vehicle registration data.
// Args: [vehicleId, position, capabilities]
func (p *Parser) ParseRegister(data []string) (Registration, error) {
	var reg Registration

	sanitize(data)

	if len(data) < 3 {
		return reg, fmt.Errorf("register: expected 3 args, got %d", len(data))
	}

	if data[0] == "" {
		return reg, fmt.Errorf("register: empty vehicle id")
	}
	reg.VehicleID = data[0]

	pos, err := geo.PositionFromString(trimBrackets(data[1]))
	if err != nil {
		return reg, fmt.Errorf("error converting position: %w", err)
	}
	reg.Position = pos

	reg.Capabilities = util.ParseStringArray(data[2])

	return reg, nil
}

// ParseTelemetry parses a partial telemetry update. Empty fields are
// left nil so the registry keeps the previous value.
// Args: [vehicleId, position, battery, status]
func (p *Parser) ParseTelemetry(data []string) (string, core.TelemetryUpdate, error) {
	var update core.TelemetryUpdate

	sanitize(data)

	if len(data) < 4 {
		return "", update, fmt.Errorf("telemetry: expected 4 args, got %d", len(data))
	}

	id := data[0]
	if id == "" {
		return "", update, fmt.Errorf("telemetry: empty vehicle id")
	}

	if data[1] != "" {
		pos, err := geo.PositionFromString(trimBrackets(data[1]))
		if err != nil {
			return "", update, fmt.Errorf("error converting position: %w", err)
		}
		update.Position = &pos
	}

	if data[2] != "" {
		battery, err := parseFloat(data[2], "battery")
		if err != nil {
			return "", update, err
		}
		update.Battery = &battery
	}

	if data[3] != "" {
		status := data[3]
		update.Status = &status
	}

	return id, update, nil
}
