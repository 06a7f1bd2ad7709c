// File: screenlink/services/registry/session.go
package registry

import (
	"sort"
	"time"

	"screenlink/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tokenAttempts bounds retries when a freshly generated session token
// collides with a live one. With random UUIDs a single retry is already
// astronomically unlikely.
const tokenAttempts = 5

// CreateSession allocates a fresh session token. With an empty serverID the
// session starts unpaired; with a known online server device it starts
// half_paired with that device bound as the server side.
func (s *Store) CreateSession(serverID string) (models.Session, error) {
	now := s.now()

	s.mu.Lock()
	if serverID != "" {
		device, ok := s.devices[serverID]
		if !ok {
			s.mu.Unlock()
			return models.Session{}, NewErrorf(CodeNotFound, "unknown device %q", serverID)
		}
		if device.Status != models.DeviceOnline {
			s.mu.Unlock()
			return models.Session{}, NewErrorf(CodePeerUnavailable, "device %q is not online", serverID)
		}
		if other := s.boundSessionLocked(serverID, ""); other != "" {
			s.mu.Unlock()
			return models.Session{}, NewErrorf(CodeAlreadyBound, "device %q is already bound to session %s", serverID, other)
		}
	}

	var id string
	for attempt := 0; ; attempt++ {
		if attempt == tokenAttempts {
			s.mu.Unlock()
			return models.Session{}, NewError(CodeInternal, "failed to allocate unique session token")
		}
		id = uuid.NewString()
		if _, taken := s.sessions[id]; !taken {
			break
		}
	}

	session := models.Session{
		ID:             id,
		Status:         models.SessionUnpaired,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if serverID != "" {
		session.ServerID = serverID
		session.Status = models.SessionHalfPaired
	}
	s.sessions[id] = session
	s.mu.Unlock()

	s.mirrorSaveSession(session)
	s.logger.Info("session created",
		zap.String("sessionId", session.ID),
		zap.String("serverId", session.ServerID),
		zap.String("status", string(session.Status)))
	return session, nil
}

// Session returns a snapshot of the session with the given token.
func (s *Store) Session(id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return models.Session{}, NewErrorf(CodeUnknownSession, "unknown session %q", id)
	}
	return session, nil
}

// ListAvailableSessions returns publicly joinable sessions: half_paired
// with a server bound and no client, longest-waiting first.
func (s *Store) ListAvailableSessions() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Session
	for _, session := range s.sessions {
		if session.Status == models.SessionHalfPaired && session.ServerID != "" && session.ClientID == "" {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// boundSessionLocked returns the id of the non-ended session the device is
// bound into, excluding exclude, or "" when the device is free.
func (s *Store) boundSessionLocked(deviceID, exclude string) string {
	for id, session := range s.sessions {
		if id == exclude || session.Status == models.SessionEnded {
			continue
		}
		if session.Member(deviceID) {
			return id
		}
	}
	return ""
}

// BindServer binds deviceID as the server side of the session.
func (s *Store) BindServer(sessionID, deviceID string) (models.Session, error) {
	return s.bind(sessionID, deviceID, true)
}

// BindClient binds deviceID as the client side of the session.
func (s *Store) BindClient(sessionID, deviceID string) (models.Session, error) {
	return s.bind(sessionID, deviceID, false)
}

func (s *Store) bind(sessionID, deviceID string, asServer bool) (models.Session, error) {
	if deviceID == "" {
		return models.Session{}, NewError(CodeValidation, "deviceId is required")
	}

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok || session.Status == models.SessionEnded {
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodeUnknownSession, "unknown session %q", sessionID)
	}

	occupant := session.ClientID
	if asServer {
		occupant = session.ServerID
	}
	if occupant == deviceID {
		// Re-binding the same device to the same side is a retry, not a
		// conflict.
		s.mu.Unlock()
		return session, nil
	}
	if occupant != "" {
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodeAlreadyBound, "session %s already has a %s bound", sessionID, side(asServer))
	}

	device, ok := s.devices[deviceID]
	if !ok {
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodeNotFound, "unknown device %q", deviceID)
	}
	if device.Status != models.DeviceOnline {
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodePeerUnavailable, "device %q is not online", deviceID)
	}
	if session.Member(deviceID) {
		// Same device on both sides would be a self-pairing.
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodeValidation, "device %q is already the other member of session %s", deviceID, sessionID)
	}
	if other := s.boundSessionLocked(deviceID, sessionID); other != "" {
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodeAlreadyBound, "device %q is already bound to session %s", deviceID, other)
	}

	// Completing the pair requires the already-bound peer to still be
	// online.
	peer := session.ServerID
	if asServer {
		peer = session.ClientID
	}
	if peer != "" {
		peerDevice, ok := s.devices[peer]
		if !ok || peerDevice.Status != models.DeviceOnline {
			s.mu.Unlock()
			return models.Session{}, NewErrorf(CodePeerUnavailable, "peer device %q is not online", peer)
		}
	}

	if asServer {
		session.ServerID = deviceID
	} else {
		session.ClientID = deviceID
	}
	if session.ServerID != "" && session.ClientID != "" {
		session.Status = models.SessionPaired
	} else {
		session.Status = models.SessionHalfPaired
	}
	session.LastActivityAt = s.now()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.mirrorSaveSession(session)
	s.notify(session)
	s.logger.Info("session bound",
		zap.String("sessionId", session.ID),
		zap.String("deviceId", deviceID),
		zap.String("side", side(asServer)),
		zap.String("status", string(session.Status)))
	return session, nil
}

func side(asServer bool) string {
	if asServer {
		return "server"
	}
	return "client"
}

// StartSession marks a paired session active: the point at which the relay
// is expected to start carrying negotiation payloads. Starting an already
// active session is a no-op.
func (s *Store) StartSession(sessionID string) (models.Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodeUnknownSession, "unknown session %q", sessionID)
	}
	if session.Status == models.SessionActive {
		s.mu.Unlock()
		return session, nil
	}
	if session.Status != models.SessionPaired {
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodeValidation, "session %s is %s, not paired", sessionID, session.Status)
	}
	session.Status = models.SessionActive
	session.LastActivityAt = s.now()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.mirrorSaveSession(session)
	s.notify(session)
	s.logger.Info("session started", zap.String("sessionId", sessionID))
	return session, nil
}

// EndSession transitions a session to its terminal state. Ending an
// already-ended session is a no-op; the token is never reused, and the
// reaper removes the record on its next sweep.
func (s *Store) EndSession(sessionID string) (models.Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return models.Session{}, NewErrorf(CodeUnknownSession, "unknown session %q", sessionID)
	}
	if session.Status == models.SessionEnded {
		s.mu.Unlock()
		return session, nil
	}
	session.Status = models.SessionEnded
	session.LastActivityAt = s.now()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.mirrorSaveSession(session)
	s.notify(session)
	s.logger.Info("session ended", zap.String("sessionId", sessionID))
	return session, nil
}

// MarkActivity records relay traffic attributable to a session member:
// bumps the session's lastActivityAt and the origin device's lastSeen.
func (s *Store) MarkActivity(sessionID, deviceID string) {
	now := s.now()

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		session.LastActivityAt = now
		s.sessions[sessionID] = session
	}
	device, okDev := s.devices[deviceID]
	if okDev && now.After(device.LastSeen) {
		device.LastSeen = now
		s.devices[deviceID] = device
	}
	var devSnap models.Device
	if okDev {
		devSnap = copyDevice(device)
	}
	s.mu.Unlock()

	if ok {
		s.mirrorSaveSession(session)
	}
	if okDev {
		s.mirrorSaveDevice(devSnap)
	}
}

// ActiveSessionFor returns the non-ended session the device is bound into.
func (s *Store) ActiveSessionFor(deviceID string) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.Status != models.SessionEnded && session.Member(deviceID) {
			return session, true
		}
	}
	return models.Session{}, false
}

// SweepSessions removes ended sessions plus any non-terminal session whose
// lastActivityAt is older than expiry, returning the removed ids. Expired
// non-terminal sessions pass through ended so the status listener observes
// the terminal transition.
func (s *Store) SweepSessions(expiry time.Duration) []string {
	cutoff := s.now().Add(-expiry)

	s.mu.Lock()
	var removed []string
	var expired []models.Session
	for id, session := range s.sessions {
		switch {
		case session.Status == models.SessionEnded:
			delete(s.sessions, id)
			removed = append(removed, id)
		case session.LastActivityAt.Before(cutoff):
			session.Status = models.SessionEnded
			expired = append(expired, session)
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	for _, id := range removed {
		s.mirrorDeleteSession(id)
		s.logger.Info("session removed", zap.String("sessionId", id))
	}
	s.notify(expired...)
	return removed
}
