// File: screenlink/models/device.go
package models

import "time"

// Device roles a registered endpoint may declare.
const (
	RoleServer = "server"
	RoleClient = "client"
)

// Device statuses.
const (
	DeviceOnline  = "online"
	DeviceOffline = "offline"
)

// Device is one registered endpoint. ID is client-supplied and immutable
// after registration; Metadata is stored and echoed, never interpreted.
type Device struct {
	ID           string            `json:"id"`
	DisplayName  string            `json:"displayName"`
	Capabilities []string          `json:"capabilities"`
	Status       string            `json:"status"`
	LastSeen     time.Time         `json:"lastSeen"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// HasCapability reports whether the device declared the given role.
func (d Device) HasCapability(role string) bool {
	for _, c := range d.Capabilities {
		if c == role {
			return true
		}
	}
	return false
}

// DeviceInfo carries the client-supplied fields of a registration request.
type DeviceInfo struct {
	DeviceID     string            `json:"deviceId"`
	Name         string            `json:"name,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ServerSummary is the trimmed device view returned by the available
// servers listing.
type ServerSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	LastSeen time.Time `json:"lastSeen"`
}
