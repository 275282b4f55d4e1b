package parser

import (
	"fmt"

	"github.com/skycoord/fleet/internal/geo"
	"github.com/skycoord/fleet/internal/util"
	"github.com/skycoord/fleet/pkg/core"
)

// MissionCreate is the parsed payload of a mission creation command.
type MissionCreate struct {
	Type     core.MissionType
	Area     core.AreaBounds
	Priority int
}

// ParseMissionCreate parses mission creation data.
// Args: [missionType, areaBounds, priority]
func (p *Parser) ParseMissionCreate(data []string) (MissionCreate, error) {
	var mc MissionCreate

	sanitize(data)

	if len(data) < 3 {
		return mc, fmt.Errorf("mission create: expected 3 args, got %d", len(data))
	}

	mc.Type = core.MissionType(data[0])
	if !mc.Type.IsValid() {
		return mc, fmt.Errorf("mission create: unknown mission type %q", data[0])
	}

	area, err := geo.BoundsFromString(trimBrackets(data[1]))
	if err != nil {
		return mc, fmt.Errorf("error converting area bounds: %w", err)
	}
	mc.Area = area

	priority, err := parseIntFromFloat(data[2], "priority")
	if err != nil {
		return mc, err
	}
	mc.Priority = priority

	return mc, nil
}

// ParseAssign parses a mission assignment. An empty vehicle list means
// the caller should auto-select vehicles.
// Args: [missionId, vehicleIds]
func (p *Parser) ParseAssign(data []string) (string, []string, error) {
	sanitize(data)

	if len(data) < 2 {
		return "", nil, fmt.Errorf("assign: expected 2 args, got %d", len(data))
	}

	missionID := data[0]
	if missionID == "" {
		return "", nil, fmt.Errorf("assign: empty mission id")
	}

	vehicleIDs := util.ParseStringArray(data[1])

	return missionID, vehicleIDs, nil
}

// ParseMissionID parses commands that carry a bare mission id.
// Args: [missionId]
func (p *Parser) ParseMissionID(data []string) (string, error) {
	sanitize(data)

	if len(data) < 1 || data[0] == "" {
		return "", fmt.Errorf("empty mission id")
	}
	return data[0], nil
}

// ParseCoverage parses a coverage optimization request.
// Args: [areaBounds, vehicleIds]
func (p *Parser) ParseCoverage(data []string) (core.AreaBounds, []string, error) {
	sanitize(data)

	if len(data) < 2 {
		return core.AreaBounds{}, nil, fmt.Errorf("coverage: expected 2 args, got %d", len(data))
	}

	area, err := geo.BoundsFromString(trimBrackets(data[0]))
	if err != nil {
		return core.AreaBounds{}, nil, fmt.Errorf("error converting area bounds: %w", err)
	}

	vehicleIDs := util.ParseStringArray(data[1])

	return area, vehicleIDs, nil
}
