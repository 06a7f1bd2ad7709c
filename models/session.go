// File: screenlink/models/session.go
package models

import "time"

// SessionStatus is the lifecycle state of a pairing attempt.
type SessionStatus string

const (
	SessionUnpaired   SessionStatus = "unpaired"
	SessionHalfPaired SessionStatus = "half_paired"
	SessionPaired     SessionStatus = "paired"
	SessionActive     SessionStatus = "active"
	SessionEnded      SessionStatus = "ended"
)

// Session pairs at most one server device and one client device. ServerID
// and ClientID are identifier-only references into the device registry;
// empty means the side is unbound.
type Session struct {
	ID             string        `json:"id"`
	ServerID       string        `json:"serverId,omitempty"`
	ClientID       string        `json:"clientId,omitempty"`
	Status         SessionStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	LastActivityAt time.Time     `json:"lastActivityAt"`
}

// Member reports whether the given device is bound on either side.
func (s Session) Member(deviceID string) bool {
	return deviceID != "" && (s.ServerID == deviceID || s.ClientID == deviceID)
}

// Peer returns the other bound member's device id, or "" when that side is
// unbound or deviceID is not a member.
func (s Session) Peer(deviceID string) string {
	switch deviceID {
	case "":
		return ""
	case s.ServerID:
		return s.ClientID
	case s.ClientID:
		return s.ServerID
	}
	return ""
}
