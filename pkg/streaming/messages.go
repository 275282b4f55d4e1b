package streaming

import (
	"encoding/json"

	"github.com/skycoord/fleet/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession  = "start_session"
	TypeEndSession    = "end_session"
	TypeAddVehicle    = "add_vehicle"
	TypeRemoveVehicle = "remove_vehicle"
	TypeTelemetry     = "telemetry"
	TypeMission       = "mission"
	TypeFleetEvent    = "fleet_event"
	TypeCollisionRisk = "collision_risk"
	TypeWeather       = "weather"
	TypeObstacle      = "obstacle"
	TypeStatistics    = "statistics"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload carries the session metadata.
type StartSessionPayload struct {
	Session *core.Session `json:"session"`
}

// RemoveVehiclePayload identifies a vehicle leaving the fleet.
type RemoveVehiclePayload struct {
	VehicleID string `json:"vehicleId"`
}
