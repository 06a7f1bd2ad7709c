// File: screenlink/services/mirror/redis.go
package mirror

import (
	"context"
	"encoding/json"
	"fmt"

	"screenlink/models"

	"github.com/go-redis/redis/v8"
)

const (
	devicesKey  = "devices"
	sessionsKey = "sessions"
)

// Redis mirrors registry records into two Redis hashes, one entry per
// record keyed by id.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (m *Redis) SaveDevice(ctx context.Context, d models.Device) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal device %s: %w", d.ID, err)
	}
	return m.client.HSet(ctx, devicesKey, d.ID, data).Err()
}

func (m *Redis) DeleteDevice(ctx context.Context, id string) error {
	return m.client.HDel(ctx, devicesKey, id).Err()
}

func (m *Redis) SaveSession(ctx context.Context, s models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", s.ID, err)
	}
	return m.client.HSet(ctx, sessionsKey, s.ID, data).Err()
}

func (m *Redis) DeleteSession(ctx context.Context, id string) error {
	return m.client.HDel(ctx, sessionsKey, id).Err()
}

func (m *Redis) LoadDevices(ctx context.Context) ([]models.Device, error) {
	raw, err := m.client.HGetAll(ctx, devicesKey).Result()
	if err != nil {
		return nil, err
	}
	devices := make([]models.Device, 0, len(raw))
	for id, data := range raw {
		var d models.Device
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal device %s: %w", id, err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func (m *Redis) LoadSessions(ctx context.Context) ([]models.Session, error) {
	raw, err := m.client.HGetAll(ctx, sessionsKey).Result()
	if err != nil {
		return nil, err
	}
	sessions := make([]models.Session, 0, len(raw))
	for id, data := range raw {
		var s models.Session
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (m *Redis) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}
