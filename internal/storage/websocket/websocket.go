package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/skycoord/fleet/pkg/core"
	"github.com/skycoord/fleet/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams session data over WebSocket to a ground station server.
// It implements storage.Backend but not storage.Exportable.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	return &Backend{
		conn: newConnection(slog.Default()),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// sendEnvelopeAndWait marshals the payload and waits for a server ack.
func (b *Backend) sendEnvelopeAndWait(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, msgType, ackTimeout)
}

// StartSession sends the session metadata and waits for server ack.
func (b *Backend) StartSession(s *core.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends end_session and waits for server ack.
func (b *Backend) EndSession() error {
	err := b.sendEnvelopeAndWait(streaming.TypeEndSession, nil)

	// Clear cached state regardless of error.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = nil
	b.conn.mu.Unlock()

	return err
}

func (b *Backend) AddVehicle(v *core.Vehicle) error {
	return b.sendEnvelope(streaming.TypeAddVehicle, v)
}

func (b *Backend) RemoveVehicle(vehicleID string) error {
	return b.sendEnvelope(streaming.TypeRemoveVehicle, streaming.RemoveVehiclePayload{VehicleID: vehicleID})
}

func (b *Backend) RecordTelemetry(t *core.TelemetrySample) error {
	return b.sendEnvelope(streaming.TypeTelemetry, t)
}

func (b *Backend) RecordFleetEvent(e *core.FleetEvent) error {
	return b.sendEnvelope(streaming.TypeFleetEvent, e)
}

func (b *Backend) RecordMission(m *core.Mission) error {
	return b.sendEnvelope(streaming.TypeMission, m)
}

func (b *Backend) RecordCollisionRisk(r *core.CollisionRisk) error {
	return b.sendEnvelope(streaming.TypeCollisionRisk, r)
}

func (b *Backend) RecordWeather(w *core.WeatherData) error {
	return b.sendEnvelope(streaming.TypeWeather, w)
}

func (b *Backend) RecordObstacle(o *core.Obstacle) error {
	return b.sendEnvelope(streaming.TypeObstacle, o)
}

func (b *Backend) RecordStatistics(s *core.Statistics) error {
	return b.sendEnvelope(streaming.TypeStatistics, s)
}
