package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycoord/fleet/pkg/core"
	"github.com/skycoord/fleet/pkg/streaming"
)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and sends acks for start_session/end_session.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			// Ack start_session and end_session.
			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				ack := streaming.AckMessage{Type: "ack", For: env.Type}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndSession(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"})
	require.NoError(t, b.Init())
	defer b.Close()

	session := &core.Session{Name: "Harbor Patrol", Version: "1.2.0", StartedAt: time.Now()}
	require.NoError(t, b.StartSession(session))

	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, streaming.TypeStartSession, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndSession, msgs[len(msgs)-1].Type)
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"})
	require.NoError(t, b.Init())
	defer b.Close()

	session := &core.Session{Name: "S", StartedAt: time.Now()}
	require.NoError(t, b.StartSession(session))

	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: "drone-01", Status: core.ReadyStatus}))
	require.NoError(t, b.RecordTelemetry(&core.TelemetrySample{VehicleID: "drone-01", Battery: 92}))
	require.NoError(t, b.RecordMission(&core.Mission{ID: "m-1", Type: core.TaskSurvey}))
	require.NoError(t, b.RecordFleetEvent(&core.FleetEvent{Kind: core.EventVehicleRegistered, VehicleID: "drone-01"}))
	require.NoError(t, b.RecordCollisionRisk(&core.CollisionRisk{VehicleA: "drone-01", VehicleB: "drone-02", Distance: 5}))
	require.NoError(t, b.RecordWeather(&core.WeatherData{WindSpeed: 2.5}))
	require.NoError(t, b.RecordObstacle(&core.Obstacle{ID: "OBS-0001"}))
	require.NoError(t, b.RecordStatistics(&core.Statistics{TotalVehicles: 1}))
	require.NoError(t, b.RemoveVehicle("drone-01"))

	require.NoError(t, b.EndSession())

	// Give a moment for all messages to arrive at server.
	time.Sleep(50 * time.Millisecond)

	msgs := ml.all()

	types := make(map[string]int)
	for _, m := range msgs {
		types[m.Type]++
	}

	assert.Equal(t, 1, types[streaming.TypeStartSession])
	assert.Equal(t, 1, types[streaming.TypeEndSession])
	assert.Equal(t, 1, types[streaming.TypeAddVehicle])
	assert.Equal(t, 1, types[streaming.TypeRemoveVehicle])
	assert.Equal(t, 1, types[streaming.TypeTelemetry])
	assert.Equal(t, 1, types[streaming.TypeMission])
	assert.Equal(t, 1, types[streaming.TypeFleetEvent])
	assert.Equal(t, 1, types[streaming.TypeCollisionRisk])
	assert.Equal(t, 1, types[streaming.TypeWeather])
	assert.Equal(t, 1, types[streaming.TypeObstacle])
	assert.Equal(t, 1, types[streaming.TypeStatistics])
}

func TestEnvelopeSerialization(t *testing.T) {
	payload := streaming.RemoveVehiclePayload{VehicleID: "drone-07"}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	env := streaming.Envelope{Type: streaming.TypeRemoveVehicle, Payload: raw}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded streaming.Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, streaming.TypeRemoveVehicle, decoded.Type)

	var rp streaming.RemoveVehiclePayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &rp))
	assert.Equal(t, "drone-07", rp.VehicleID)
}
