// File: screenlink/services/registry/store.go
package registry

import (
	"context"
	"sync"
	"time"

	"screenlink/models"
	"screenlink/services/mirror"

	"go.uber.org/zap"
)

// DefaultFreshness is the window within which an online device still counts
// as available.
const DefaultFreshness = 5 * time.Minute

// mirrorTimeout bounds every best-effort write to the durable mirror.
const mirrorTimeout = 2 * time.Second

// StatusListener is invoked after a session status change has been
// committed. It runs outside the store lock.
type StatusListener func(models.Session)

// Options configures a Store. Zero values select sane defaults, so tests
// can construct isolated stores with just the fields they care about.
type Options struct {
	Mirror    mirror.Mirror
	Logger    *zap.Logger
	Freshness time.Duration
	Now       func() time.Time
}

// Store owns every device and session record. All compound
// check-then-set sequences (binds, token allocation, sweeps) run atomically
// under a single coarse mutex; contention is expected to be low. Callers
// always receive snapshots, never aliases into the maps.
type Store struct {
	mu       sync.Mutex
	devices  map[string]models.Device
	sessions map[string]models.Session

	now       func() time.Time
	freshness time.Duration
	mirror    mirror.Mirror
	logger    *zap.Logger

	listenerMu sync.RWMutex
	listener   StatusListener
}

// NewStore builds an isolated registry store.
func NewStore(opts Options) *Store {
	if opts.Mirror == nil {
		opts.Mirror = mirror.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		devices:   make(map[string]models.Device),
		sessions:  make(map[string]models.Session),
		now:       opts.Now,
		freshness: opts.Freshness,
		mirror:    opts.Mirror,
		logger:    opts.Logger,
	}
}

// SetStatusListener registers the single session status listener.
func (s *Store) SetStatusListener(fn StatusListener) {
	s.listenerMu.Lock()
	s.listener = fn
	s.listenerMu.Unlock()
}

// Preload restores mirrored records on process start. Best effort: any
// mirror failure leaves the store empty and is only logged.
func (s *Store) Preload(ctx context.Context) {
	devices, err := s.mirror.LoadDevices(ctx)
	if err != nil {
		s.logger.Warn("mirror preload of devices failed", zap.Error(err))
		return
	}
	sessions, err := s.mirror.LoadSessions(ctx)
	if err != nil {
		s.logger.Warn("mirror preload of sessions failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range devices {
		s.devices[d.ID] = d
	}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	if len(devices) > 0 || len(sessions) > 0 {
		s.logger.Info("registry preloaded from mirror",
			zap.Int("devices", len(devices)), zap.Int("sessions", len(sessions)))
	}
}

// Counts returns the number of live devices and active sessions, plus the
// total session count, for the health endpoint.
func (s *Store) Counts() (devices, activeSessions, totalSessions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	devices = len(s.devices)
	totalSessions = len(s.sessions)
	for _, sess := range s.sessions {
		if sess.Status == models.SessionActive {
			activeSessions++
		}
	}
	return devices, activeSessions, totalSessions
}

func copyDevice(d models.Device) models.Device {
	out := d
	if d.Capabilities != nil {
		out.Capabilities = append([]string(nil), d.Capabilities...)
	}
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func (s *Store) notify(sessions ...models.Session) {
	s.listenerMu.RLock()
	fn := s.listener
	s.listenerMu.RUnlock()
	if fn == nil {
		return
	}
	for _, sess := range sessions {
		fn(sess)
	}
}

func (s *Store) mirrorSaveDevice(d models.Device) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.mirror.SaveDevice(ctx, d); err != nil {
		s.logger.Warn("mirror write failed for device", zap.String("deviceId", d.ID), zap.Error(err))
	}
}

func (s *Store) mirrorDeleteDevice(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.mirror.DeleteDevice(ctx, id); err != nil {
		s.logger.Warn("mirror delete failed for device", zap.String("deviceId", id), zap.Error(err))
	}
}

func (s *Store) mirrorSaveSession(sess models.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.mirror.SaveSession(ctx, sess); err != nil {
		s.logger.Warn("mirror write failed for session", zap.String("sessionId", sess.ID), zap.Error(err))
	}
}

func (s *Store) mirrorDeleteSession(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.mirror.DeleteSession(ctx, id); err != nil {
		s.logger.Warn("mirror delete failed for session", zap.String("sessionId", id), zap.Error(err))
	}
}
