// File: screenlink/handlers/ws.go
package handlers

import (
	"encoding/json"
	"net/http"

	"screenlink/models"
	"screenlink/services/registry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and runs the endpoint's event loop. Each
// connection is one transport endpoint; a device claims it with a
// register-device event.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("websocket upgrade failed",
			zap.String("remoteAddr", c.Request.RemoteAddr), zap.Error(err))
		return
	}

	endpointID := uuid.NewString()
	h.Hub.add(endpointID, conn)
	h.Logger.Info("endpoint connected",
		zap.String("endpointId", endpointID),
		zap.String("remoteAddr", c.Request.RemoteAddr))

	defer func() {
		h.Hub.remove(endpointID)
		h.Relay.OnDisconnect(endpointID)
		_ = conn.Close()
		h.Logger.Info("endpoint disconnected", zap.String("endpointId", endpointID))
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			h.sendError(endpointID, registry.NewError(registry.CodeValidation, "malformed message"))
			continue
		}
		h.dispatch(endpointID, env)
	}
}

func (h *Handler) dispatch(endpointID string, env models.Envelope) {
	switch env.Event {
	case models.EventRegisterDevice:
		h.wsRegisterDevice(endpointID, env.Data)
	case models.EventBindServer, models.EventBindClient:
		h.wsBind(endpointID, env)
	case models.EventOffer, models.EventAnswer, models.EventCandidate, models.EventData:
		h.wsRelay(endpointID, env)
	case models.EventSessionStarted:
		h.wsSessionLifecycle(endpointID, env.Data, true)
	case models.EventSessionEnded:
		h.wsSessionLifecycle(endpointID, env.Data, false)
	default:
		h.sendError(endpointID, registry.NewErrorf(registry.CodeValidation, "unknown event %q", env.Event))
	}
}

func (h *Handler) wsRegisterDevice(endpointID string, data json.RawMessage) {
	var info models.DeviceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		h.sendError(endpointID, registry.NewError(registry.CodeValidation, "malformed register-device payload"))
		return
	}

	device, err := h.Store.Register(info)
	if err != nil {
		h.sendError(endpointID, err)
		return
	}
	h.Relay.Attach(endpointID, device.ID)

	if err := h.Hub.Send(endpointID, models.EventDeviceRegistered, gin.H{
		"status": "success",
		"device": device,
	}); err != nil {
		h.Logger.Debug("device-registered reply dropped", zap.Error(err))
	}

	// Keep the discovery view current: the registrant learns about the
	// available servers, and a newly available server is announced to
	// every subscriber.
	servers := serverSummaries(h.Store.ListAvailable(models.RoleServer))
	payload := gin.H{"servers": servers, "total": len(servers)}
	if device.HasCapability(models.RoleServer) {
		h.Hub.Broadcast(models.EventServerAvailable, payload)
	} else if err := h.Hub.Send(endpointID, models.EventServerAvailable, payload); err != nil {
		h.Logger.Debug("server-available reply dropped", zap.Error(err))
	}
}

func (h *Handler) wsBind(endpointID string, env models.Envelope) {
	deviceID, ok := h.Relay.DeviceFor(endpointID)
	if !ok {
		h.sendError(endpointID, registry.NewError(registry.CodeValidation, "register-device must precede binding"))
		return
	}

	var input struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(env.Data, &input); err != nil || input.SessionID == "" {
		h.sendError(endpointID, registry.NewError(registry.CodeValidation, "sessionId is required"))
		return
	}

	var err error
	if env.Event == models.EventBindServer {
		_, err = h.Store.BindServer(input.SessionID, deviceID)
	} else {
		_, err = h.Store.BindClient(input.SessionID, deviceID)
	}
	if err != nil {
		h.sendError(endpointID, err)
	}
}

func (h *Handler) wsRelay(endpointID string, env models.Envelope) {
	deviceID, ok := h.Relay.DeviceFor(endpointID)
	if !ok {
		h.sendError(endpointID, registry.NewError(registry.CodeValidation, "register-device must precede signaling"))
		return
	}

	var signal models.SignalPayload
	if err := json.Unmarshal(env.Data, &signal); err != nil || signal.SessionID == "" {
		h.sendError(endpointID, registry.NewError(registry.CodeValidation, "sessionId is required"))
		return
	}

	if err := h.Relay.Route(signal.SessionID, deviceID, env.Event, signal.Payload); err != nil {
		h.sendError(endpointID, err)
	}
}

func (h *Handler) wsSessionLifecycle(endpointID string, data json.RawMessage, start bool) {
	var input struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &input); err != nil || input.SessionID == "" {
		h.sendError(endpointID, registry.NewError(registry.CodeValidation, "sessionId is required"))
		return
	}

	var err error
	if start {
		_, err = h.Store.StartSession(input.SessionID)
	} else {
		_, err = h.Store.EndSession(input.SessionID)
	}
	if err != nil {
		h.sendError(endpointID, err)
	}
}

func (h *Handler) sendError(endpointID string, err error) {
	payload := gin.H{
		"code":    registry.CodeOf(err),
		"message": err.Error(),
	}
	if sendErr := h.Hub.Send(endpointID, models.EventError, payload); sendErr != nil {
		h.Logger.Debug("error reply dropped",
			zap.String("endpointId", endpointID), zap.Error(sendErr))
	}
}
