// File: screenlink/services/registry/device.go
package registry

import (
	"sort"
	"time"

	"screenlink/models"

	"go.uber.org/zap"
)

// Register creates or overwrites a device record. Idempotent:
// re-registering an existing id updates its fields instead of erroring.
func (s *Store) Register(info models.DeviceInfo) (models.Device, error) {
	if info.DeviceID == "" {
		return models.Device{}, NewError(CodeValidation, "deviceId is required")
	}

	name := info.Name
	if name == "" {
		short := info.DeviceID
		if len(short) > 8 {
			short = short[:8]
		}
		name = "Device " + short
	}
	caps := info.Capabilities
	if len(caps) == 0 {
		caps = []string{models.RoleClient}
	}

	device := models.Device{
		ID:           info.DeviceID,
		DisplayName:  name,
		Capabilities: append([]string(nil), caps...),
		Status:       models.DeviceOnline,
		LastSeen:     s.now(),
		Metadata:     info.Metadata,
	}

	s.mu.Lock()
	if prev, ok := s.devices[info.DeviceID]; ok && device.LastSeen.Before(prev.LastSeen) {
		// lastSeen never moves backwards, even with a skewed test clock.
		device.LastSeen = prev.LastSeen
	}
	s.devices[info.DeviceID] = device
	snapshot := copyDevice(device)
	s.mu.Unlock()

	s.mirrorSaveDevice(snapshot)
	s.logger.Info("device registered", zap.String("deviceId", device.ID), zap.Strings("capabilities", device.Capabilities))
	return snapshot, nil
}

// Touch updates lastSeen and optionally status. An unknown deviceId is a
// benign race with expiry, not an error, so it is a silent no-op.
func (s *Store) Touch(deviceID, status string) {
	s.mu.Lock()
	device, ok := s.devices[deviceID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if now := s.now(); now.After(device.LastSeen) {
		device.LastSeen = now
	}
	if status != "" {
		device.Status = status
	}
	s.devices[deviceID] = device
	snapshot := copyDevice(device)
	s.mu.Unlock()

	s.mirrorSaveDevice(snapshot)
}

// Device returns a snapshot of the record for deviceID.
func (s *Store) Device(deviceID string) (models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[deviceID]
	if !ok {
		return models.Device{}, NewErrorf(CodeNotFound, "unknown device %q", deviceID)
	}
	return copyDevice(device), nil
}

// ListAvailable returns online devices with role in their capabilities and
// lastSeen within the freshness window, most recently active first. Stale
// but not yet reaped devices are filtered here, before any sweep runs.
func (s *Store) ListAvailable(role string) []models.Device {
	cutoff := s.now().Add(-s.freshness)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Device
	for _, device := range s.devices {
		if device.Status != models.DeviceOnline {
			continue
		}
		if !device.HasCapability(role) {
			continue
		}
		if device.LastSeen.Before(cutoff) {
			continue
		}
		out = append(out, copyDevice(device))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}

// ListDevices returns all registered devices, most recently seen first.
func (s *Store) ListDevices() []models.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Device, 0, len(s.devices))
	for _, device := range s.devices {
		out = append(out, copyDevice(device))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}

// Remove hard-deletes a device record. Used by the reaper and by explicit
// deregistration; removing an unknown id is a no-op.
func (s *Store) Remove(deviceID string) {
	s.mu.Lock()
	_, ok := s.devices[deviceID]
	delete(s.devices, deviceID)
	s.mu.Unlock()

	if ok {
		s.mirrorDeleteDevice(deviceID)
		s.logger.Info("device removed", zap.String("deviceId", deviceID))
	}
}

// SweepDevices removes every device whose lastSeen is older than expiry and
// returns the removed ids.
func (s *Store) SweepDevices(expiry time.Duration) []string {
	cutoff := s.now().Add(-expiry)

	s.mu.Lock()
	var removed []string
	for id, device := range s.devices {
		if device.LastSeen.Before(cutoff) {
			delete(s.devices, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	for _, id := range removed {
		s.mirrorDeleteDevice(id)
		s.logger.Info("device expired", zap.String("deviceId", id))
	}
	return removed
}
