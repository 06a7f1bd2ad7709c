// File: screenlink/services/relay/relay.go

// Package relay routes negotiation payloads between the two members of a
// session without interpreting their contents, and turns transport-level
// disconnects into domain-level session state changes.
package relay

import (
	"encoding/json"
	"sync"

	"screenlink/models"
	"screenlink/services/registry"

	"go.uber.org/zap"
)

// Transport is the boundary the relay pushes events through. Endpoints are
// transport channel identities (one per connection), not device ids.
type Transport interface {
	// Send delivers one event to a single endpoint's channel. A send to a
	// closed or unknown endpoint returns an error.
	Send(endpointID, event string, data any) error
	// Connected reports whether the endpoint's channel is currently open.
	Connected(endpointID string) bool
}

// Service is the signaling relay. Delivery is fire-and-forget: a
// momentarily unavailable target is reported as peerUnreachable, never
// queued or retried.
type Service struct {
	store     *registry.Store
	transport Transport
	logger    *zap.Logger

	mu        sync.Mutex
	endpoints map[string]string // endpointID -> deviceID
	devices   map[string]string // deviceID -> endpointID
}

func New(store *registry.Store, transport Transport, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		store:     store,
		transport: transport,
		logger:    logger,
		endpoints: make(map[string]string),
		devices:   make(map[string]string),
	}
	store.SetStatusListener(svc.onSessionStatus)
	return svc
}

// Attach associates a transport endpoint with a registered device. A device
// reconnecting on a new endpoint displaces its old association.
func (r *Service) Attach(endpointID, deviceID string) {
	r.mu.Lock()
	if old, ok := r.devices[deviceID]; ok && old != endpointID {
		delete(r.endpoints, old)
	}
	r.endpoints[endpointID] = deviceID
	r.devices[deviceID] = endpointID
	r.mu.Unlock()
}

// DeviceFor returns the device that owns the endpoint, if any.
func (r *Service) DeviceFor(endpointID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deviceID, ok := r.endpoints[endpointID]
	return deviceID, ok
}

func (r *Service) endpointFor(deviceID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	endpointID, ok := r.devices[deviceID]
	return endpointID, ok
}

// Route delivers payload verbatim to the other member of the session. The
// payload is an opaque blob tagged only with kind for routing metadata.
func (r *Service) Route(sessionID, originDeviceID, kind string, payload json.RawMessage) error {
	session, err := r.store.Session(sessionID)
	if err != nil {
		return err
	}
	if !session.Member(originDeviceID) {
		return registry.NewErrorf(registry.CodeNotAMember, "device %q is not a member of session %s", originDeviceID, sessionID)
	}

	peer := session.Peer(originDeviceID)
	if peer == "" {
		return registry.NewErrorf(registry.CodePeerUnreachable, "session %s has no peer bound", sessionID)
	}
	endpointID, ok := r.endpointFor(peer)
	if !ok || !r.transport.Connected(endpointID) {
		return registry.NewErrorf(registry.CodePeerUnreachable, "peer device %q is not connected", peer)
	}

	signal := models.RelayedSignal{
		SessionID: sessionID,
		From:      originDeviceID,
		Payload:   payload,
	}
	if err := r.transport.Send(endpointID, kind, signal); err != nil {
		r.logger.Warn("relay delivery failed",
			zap.String("sessionId", sessionID),
			zap.String("peer", peer),
			zap.Error(err))
		return registry.NewErrorf(registry.CodePeerUnreachable, "delivery to device %q failed", peer)
	}

	r.store.MarkActivity(sessionID, originDeviceID)
	return nil
}

// OnDisconnect handles a transport endpoint drop. If the endpoint's device
// was bound into a session the session ends, and a still-connected peer
// receives exactly one peer-disconnected notification. Idempotent: a
// disconnect for an already-detached endpoint is a no-op. This path never
// fails outward.
func (r *Service) OnDisconnect(endpointID string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in disconnect handling", zap.Any("panic", rec))
		}
	}()

	r.mu.Lock()
	deviceID, ok := r.endpoints[endpointID]
	if ok {
		delete(r.endpoints, endpointID)
		if r.devices[deviceID] == endpointID {
			delete(r.devices, deviceID)
		}
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.store.Touch(deviceID, models.DeviceOffline)

	session, bound := r.store.ActiveSessionFor(deviceID)
	if !bound {
		return
	}
	if _, err := r.store.EndSession(session.ID); err != nil {
		r.logger.Warn("failed to end session after disconnect",
			zap.String("sessionId", session.ID), zap.Error(err))
		return
	}

	peer := session.Peer(deviceID)
	if peer == "" {
		return
	}
	peerEndpoint, ok := r.endpointFor(peer)
	if !ok || !r.transport.Connected(peerEndpoint) {
		return
	}
	notice := map[string]string{"sessionId": session.ID, "deviceId": deviceID}
	if err := r.transport.Send(peerEndpoint, models.EventPeerDisconnected, notice); err != nil {
		r.logger.Warn("failed to notify peer of disconnect",
			zap.String("sessionId", session.ID), zap.Error(err))
	}
}

// onSessionStatus fans a committed status change out to both connected
// members. Best effort; a vanished member is skipped.
func (r *Service) onSessionStatus(session models.Session) {
	event := models.SessionStatusEvent{SessionID: session.ID, Status: session.Status}
	for _, deviceID := range []string{session.ServerID, session.ClientID} {
		if deviceID == "" {
			continue
		}
		endpointID, ok := r.endpointFor(deviceID)
		if !ok || !r.transport.Connected(endpointID) {
			continue
		}
		if err := r.transport.Send(endpointID, models.EventSessionStatusChanged, event); err != nil {
			r.logger.Debug("status notification dropped",
				zap.String("sessionId", session.ID),
				zap.String("deviceId", deviceID),
				zap.Error(err))
		}
	}
}
