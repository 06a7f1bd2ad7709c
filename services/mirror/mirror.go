// File: screenlink/services/mirror/mirror.go
package mirror

import (
	"context"

	"screenlink/models"
)

// Mirror shadows registry records to an external durable store for
// crash-restart continuity. It is strictly non-authoritative: the in-process
// registry is the source of truth while the process is alive, and mirror
// failures must never fail a registry operation.
type Mirror interface {
	SaveDevice(ctx context.Context, d models.Device) error
	DeleteDevice(ctx context.Context, id string) error
	SaveSession(ctx context.Context, s models.Session) error
	DeleteSession(ctx context.Context, id string) error

	// LoadDevices and LoadSessions preload state on process start.
	LoadDevices(ctx context.Context) ([]models.Device, error)
	LoadSessions(ctx context.Context) ([]models.Session, error)

	// Ping reports mirror connectivity for health checks.
	Ping(ctx context.Context) error
}

// Noop is the mirror used when no durable store is configured.
type Noop struct{}

func (Noop) SaveDevice(context.Context, models.Device) error   { return nil }
func (Noop) DeleteDevice(context.Context, string) error        { return nil }
func (Noop) SaveSession(context.Context, models.Session) error { return nil }
func (Noop) DeleteSession(context.Context, string) error       { return nil }

func (Noop) LoadDevices(context.Context) ([]models.Device, error)   { return nil, nil }
func (Noop) LoadSessions(context.Context) ([]models.Session, error) { return nil, nil }

func (Noop) Ping(context.Context) error { return nil }
