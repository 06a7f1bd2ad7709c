package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"screenlink/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(models.Envelope{Event: event, Data: payload}))
}

// readUntil reads envelopes until one matching event arrives, skipping
// unrelated notifications.
func readUntil(t *testing.T, conn *websocket.Conn, event string) models.Envelope {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var env models.Envelope
		err := conn.ReadJSON(&env)
		require.NoError(t, err, "waiting for %q", event)
		if env.Event == event {
			return env
		}
	}
}

func TestWebSocketSignalingScenario(t *testing.T) {
	router, h := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	// Register device A with capability server.
	connA := dialWS(t, server)
	sendEvent(t, connA, models.EventRegisterDevice, models.DeviceInfo{
		DeviceID:     "A",
		Capabilities: []string{models.RoleServer},
	})
	readUntil(t, connA, models.EventDeviceRegistered)

	servers := h.Store.ListAvailable(models.RoleServer)
	require.Len(t, servers, 1)
	assert.Equal(t, "A", servers[0].ID)

	// Create session S bound to A.
	session, err := h.Store.CreateSession("A")
	require.NoError(t, err)

	// Register device B with capability client and bind it as the client
	// of S.
	connB := dialWS(t, server)
	sendEvent(t, connB, models.EventRegisterDevice, models.DeviceInfo{
		DeviceID:     "B",
		Capabilities: []string{models.RoleClient},
	})
	readUntil(t, connB, models.EventDeviceRegistered)

	sendEvent(t, connB, models.EventBindClient, map[string]string{"sessionId": session.ID})
	env := readUntil(t, connB, models.EventSessionStatusChanged)
	var status models.SessionStatusEvent
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, models.SessionPaired, status.Status)

	// Route an offer from A; B receives the exact payload tagged offer.
	sendEvent(t, connA, models.EventOffer, map[string]any{
		"sessionId": session.ID,
		"payload":   map[string]string{"sdp": "x"},
	})
	env = readUntil(t, connB, models.EventOffer)
	var signal models.RelayedSignal
	require.NoError(t, json.Unmarshal(env.Data, &signal))
	assert.Equal(t, session.ID, signal.SessionID)
	assert.Equal(t, "A", signal.From)
	assert.JSONEq(t, `{"sdp":"x"}`, string(signal.Payload))

	// B issues session-ended; S becomes ended.
	sendEvent(t, connB, models.EventSessionEnded, map[string]string{"sessionId": session.ID})
	env = readUntil(t, connB, models.EventSessionStatusChanged)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, models.SessionEnded, status.Status)

	got, err := h.Store.Session(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, got.Status)
}

func TestWebSocketSignalingBeforeRegistrationFails(t *testing.T) {
	router, _ := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialWS(t, server)
	sendEvent(t, conn, models.EventOffer, map[string]any{
		"sessionId": "whatever",
		"payload":   map[string]string{"sdp": "x"},
	})

	env := readUntil(t, conn, models.EventError)
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "validation", resp.Code)
}

func TestWebSocketDisconnectNotifiesPeer(t *testing.T) {
	router, h := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	connA := dialWS(t, server)
	sendEvent(t, connA, models.EventRegisterDevice, models.DeviceInfo{
		DeviceID:     "A",
		Capabilities: []string{models.RoleServer},
	})
	readUntil(t, connA, models.EventDeviceRegistered)

	connB := dialWS(t, server)
	sendEvent(t, connB, models.EventRegisterDevice, models.DeviceInfo{
		DeviceID:     "B",
		Capabilities: []string{models.RoleClient},
	})
	readUntil(t, connB, models.EventDeviceRegistered)

	session, err := h.Store.CreateSession("A")
	require.NoError(t, err)
	sendEvent(t, connB, models.EventBindClient, map[string]string{"sessionId": session.ID})
	readUntil(t, connB, models.EventSessionStatusChanged)

	require.NoError(t, connA.Close())

	env := readUntil(t, connB, models.EventPeerDisconnected)
	var notice struct {
		SessionID string `json:"sessionId"`
		DeviceID  string `json:"deviceId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &notice))
	assert.Equal(t, session.ID, notice.SessionID)
	assert.Equal(t, "A", notice.DeviceID)

	got, err := h.Store.Session(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, got.Status)
}
