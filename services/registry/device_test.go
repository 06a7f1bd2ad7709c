package registry

import (
	"testing"
	"time"

	"screenlink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewStore(Options{Now: clock.Now})
	return store, clock
}

func TestRegisterRequiresDeviceID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Register(models.DeviceInfo{})
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestRegisterDefaultsAndIdempotency(t *testing.T) {
	store, _ := newTestStore(t)

	device, err := store.Register(models.DeviceInfo{DeviceID: "workstation-alpha-01"})
	require.NoError(t, err)
	assert.Equal(t, "Device workstat", device.DisplayName)
	assert.Equal(t, models.DeviceOnline, device.Status)
	assert.Equal(t, []string{models.RoleClient}, device.Capabilities)

	// Re-registering the same id updates fields instead of erroring.
	device, err = store.Register(models.DeviceInfo{
		DeviceID:     "workstation-alpha-01",
		Name:         "Office PC",
		Capabilities: []string{models.RoleServer},
		Metadata:     map[string]string{"platform": "android"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Office PC", device.DisplayName)
	assert.Equal(t, []string{models.RoleServer}, device.Capabilities)
	assert.Equal(t, "android", device.Metadata["platform"])

	devices := store.ListDevices()
	require.Len(t, devices, 1)
}

func TestListAvailableFiltersByRole(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Register(models.DeviceInfo{DeviceID: "srv-1", Capabilities: []string{models.RoleServer}})
	require.NoError(t, err)
	_, err = store.Register(models.DeviceInfo{DeviceID: "cli-1", Capabilities: []string{models.RoleClient}})
	require.NoError(t, err)

	servers := store.ListAvailable(models.RoleServer)
	require.Len(t, servers, 1)
	assert.Equal(t, "srv-1", servers[0].ID)

	clients := store.ListAvailable(models.RoleClient)
	require.Len(t, clients, 1)
	assert.Equal(t, "cli-1", clients[0].ID)
}

func TestListAvailableOrdersByLastSeenDescending(t *testing.T) {
	store, clock := newTestStore(t)

	_, err := store.Register(models.DeviceInfo{DeviceID: "old", Capabilities: []string{models.RoleServer}})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = store.Register(models.DeviceInfo{DeviceID: "fresh", Capabilities: []string{models.RoleServer}})
	require.NoError(t, err)

	servers := store.ListAvailable(models.RoleServer)
	require.Len(t, servers, 2)
	assert.Equal(t, "fresh", servers[0].ID)
	assert.Equal(t, "old", servers[1].ID)
}

func TestListAvailableExcludesStaleDevicesBeforeSweep(t *testing.T) {
	store, clock := newTestStore(t)

	_, err := store.Register(models.DeviceInfo{DeviceID: "srv-1", Capabilities: []string{models.RoleServer}})
	require.NoError(t, err)

	clock.Advance(DefaultFreshness + time.Second)
	assert.Empty(t, store.ListAvailable(models.RoleServer))
	// The record itself is still present until the reaper removes it.
	assert.Len(t, store.ListDevices(), 1)
}

func TestListAvailableExcludesOfflineDevices(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Register(models.DeviceInfo{DeviceID: "srv-1", Capabilities: []string{models.RoleServer}})
	require.NoError(t, err)
	store.Touch("srv-1", models.DeviceOffline)

	assert.Empty(t, store.ListAvailable(models.RoleServer))
}

func TestTouchUnknownDeviceIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)

	store.Touch("ghost", models.DeviceOnline)
	assert.Empty(t, store.ListDevices())
}

func TestTouchKeepsLastSeenMonotonic(t *testing.T) {
	store, clock := newTestStore(t)

	device, err := store.Register(models.DeviceInfo{DeviceID: "srv-1"})
	require.NoError(t, err)

	clock.Advance(-time.Hour)
	store.Touch("srv-1", "")

	got, err := store.Device("srv-1")
	require.NoError(t, err)
	assert.Equal(t, device.LastSeen, got.LastSeen)
}

func TestRemoveDeletesDevice(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Register(models.DeviceInfo{DeviceID: "srv-1"})
	require.NoError(t, err)
	store.Remove("srv-1")

	_, err = store.Device("srv-1")
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestSweepDevicesRemovesExpired(t *testing.T) {
	store, clock := newTestStore(t)

	_, err := store.Register(models.DeviceInfo{DeviceID: "stale"})
	require.NoError(t, err)
	clock.Advance(9 * time.Minute)
	_, err = store.Register(models.DeviceInfo{DeviceID: "live"})
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	removed := store.SweepDevices(10 * time.Minute)
	assert.Equal(t, []string{"stale"}, removed)

	_, err = store.Device("stale")
	assert.Equal(t, CodeNotFound, CodeOf(err))
	_, err = store.Device("live")
	assert.NoError(t, err)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)

	device, err := store.Register(models.DeviceInfo{
		DeviceID:     "srv-1",
		Capabilities: []string{models.RoleServer},
		Metadata:     map[string]string{"version": "1.0.0"},
	})
	require.NoError(t, err)

	device.Capabilities[0] = "tampered"
	device.Metadata["version"] = "tampered"

	got, err := store.Device("srv-1")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleServer}, got.Capabilities)
	assert.Equal(t, "1.0.0", got.Metadata["version"])
}
