// File: screenlink/models/signal.go
package models

import "encoding/json"

// Inbound signaling events accepted over the websocket transport.
const (
	EventRegisterDevice = "register-device"
	EventBindServer     = "bind-server"
	EventBindClient     = "bind-client"
	EventOffer          = "offer"
	EventAnswer         = "answer"
	EventCandidate      = "candidate"
	EventData           = "data"
	EventSessionStarted = "session-started"
	EventSessionEnded   = "session-ended"
)

// Outbound events emitted by the relay.
const (
	EventDeviceRegistered     = "device-registered"
	EventServerAvailable      = "server-available"
	EventPeerDisconnected     = "peer-disconnected"
	EventSessionStatusChanged = "session-status-changed"
	EventError                = "error"
)

// Envelope frames every websocket message in both directions. Data is kept
// raw so relayed payloads pass through byte-for-byte.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SignalPayload is the inbound body of offer/answer/candidate/data events.
// Payload is opaque to the relay.
type SignalPayload struct {
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

// RelayedSignal is what the peer receives: the untouched payload plus
// routing metadata.
type RelayedSignal struct {
	SessionID string          `json:"sessionId"`
	From      string          `json:"from"`
	Payload   json.RawMessage `json:"payload"`
}

// SessionStatusEvent notifies both members of a session status change.
type SessionStatusEvent struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
}
