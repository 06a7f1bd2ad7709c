// File: screenlink/cron/reaper.go
package cron

import (
	"context"
	"time"

	"screenlink/services/registry"

	"go.uber.org/zap"
)

// Reaper periodically expires stale devices and stale or ended sessions.
// It only ever removes entries; it never creates records and never
// forwards messages, and a sweep racing an in-flight relay operation is
// resolved by the relay seeing the record as gone.
type Reaper struct {
	store         *registry.Store
	interval      time.Duration
	deviceExpiry  time.Duration
	sessionExpiry time.Duration
	logger        *zap.Logger
}

func NewReaper(store *registry.Store, interval, deviceExpiry, sessionExpiry time.Duration, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{
		store:         store,
		interval:      interval,
		deviceExpiry:  deviceExpiry,
		sessionExpiry: sessionExpiry,
		logger:        logger,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled, so shutdown (and
// tests) can stop it deterministically.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started",
		zap.Duration("interval", r.interval),
		zap.Duration("deviceExpiry", r.deviceExpiry),
		zap.Duration("sessionExpiry", r.sessionExpiry))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			r.SweepOnce()
		}
	}
}

// SweepOnce runs one device sweep and one session sweep synchronously.
// It never propagates a failure outward.
func (r *Reaper) SweepOnce() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic during sweep", zap.Any("panic", rec))
		}
	}()

	devices := r.store.SweepDevices(r.deviceExpiry)
	sessions := r.store.SweepSessions(r.sessionExpiry)
	if len(devices) > 0 || len(sessions) > 0 {
		r.logger.Info("sweep completed",
			zap.Int("devicesRemoved", len(devices)),
			zap.Int("sessionsRemoved", len(sessions)))
	}
}
