// File: screenlink/handlers/hub.go
package handlers

import (
	"encoding/json"
	"sync"
	"time"

	"screenlink/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteWait = 5 * time.Second

// Hub tracks every open websocket endpoint and serializes writes per
// connection. It implements relay.Transport.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*endpoint
	logger *zap.Logger
}

type endpoint struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		conns:  make(map[string]*endpoint),
		logger: logger,
	}
}

func (h *Hub) add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[id] = &endpoint{id: id, conn: conn}
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// Connected reports whether the endpoint's channel is currently open.
func (h *Hub) Connected(endpointID string) bool {
	h.mu.RLock()
	_, ok := h.conns[endpointID]
	h.mu.RUnlock()
	return ok
}

// Send delivers one event to a single endpoint.
func (h *Hub) Send(endpointID, event string, data any) error {
	h.mu.RLock()
	ep, ok := h.conns[endpointID]
	h.mu.RUnlock()
	if !ok {
		return &closedEndpointError{id: endpointID}
	}
	return ep.write(event, data)
}

// Broadcast delivers an event to every connected endpoint. Failed sends are
// dropped; the read loop of a dead connection cleans it up.
func (h *Hub) Broadcast(event string, data any) {
	h.mu.RLock()
	eps := make([]*endpoint, 0, len(h.conns))
	for _, ep := range h.conns {
		eps = append(eps, ep)
	}
	h.mu.RUnlock()

	for _, ep := range eps {
		if err := ep.write(event, data); err != nil {
			h.logger.Debug("broadcast send dropped",
				zap.String("endpointId", ep.id), zap.Error(err))
		}
	}
}

func (ep *endpoint) write(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	msg := models.Envelope{Event: event, Data: payload}

	ep.writeMu.Lock()
	defer ep.writeMu.Unlock()
	_ = ep.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return ep.conn.WriteJSON(msg)
}

type closedEndpointError struct {
	id string
}

func (e *closedEndpointError) Error() string {
	return "endpoint " + e.id + " is not connected"
}
