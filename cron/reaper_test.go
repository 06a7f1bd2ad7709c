package cron

import (
	"context"
	"testing"
	"time"

	"screenlink/models"
	"screenlink/services/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestSweepOnceExpiresDevicesAndSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := registry.NewStore(registry.Options{Now: clock.Now})

	_, err := store.Register(models.DeviceInfo{DeviceID: "srv-1", Capabilities: []string{models.RoleServer}})
	require.NoError(t, err)
	session, err := store.CreateSession("srv-1")
	require.NoError(t, err)

	reaper := NewReaper(store, time.Minute, 10*time.Minute, time.Hour, nil)

	// Within both thresholds nothing is removed.
	clock.now = clock.now.Add(5 * time.Minute)
	reaper.SweepOnce()
	_, err = store.Device("srv-1")
	assert.NoError(t, err)
	_, err = store.Session(session.ID)
	assert.NoError(t, err)

	// Past the device threshold the device goes, the session stays.
	clock.now = clock.now.Add(6 * time.Minute)
	reaper.SweepOnce()
	_, err = store.Device("srv-1")
	assert.Equal(t, registry.CodeNotFound, registry.CodeOf(err))
	_, err = store.Session(session.ID)
	assert.NoError(t, err)

	// Past the session threshold the session goes too.
	clock.now = clock.now.Add(time.Hour)
	reaper.SweepOnce()
	_, err = store.Session(session.ID)
	assert.Equal(t, registry.CodeUnknownSession, registry.CodeOf(err))
}

func TestSweepOnceRemovesEndedSessionsImmediately(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := registry.NewStore(registry.Options{Now: clock.Now})

	session, err := store.CreateSession("")
	require.NoError(t, err)
	_, err = store.EndSession(session.ID)
	require.NoError(t, err)

	reaper := NewReaper(store, time.Minute, 10*time.Minute, time.Hour, nil)
	reaper.SweepOnce()

	_, err = store.Session(session.ID)
	assert.Equal(t, registry.CodeUnknownSession, registry.CodeOf(err))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := registry.NewStore(registry.Options{})
	reaper := NewReaper(store, 10*time.Millisecond, time.Minute, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
