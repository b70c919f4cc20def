package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/zerotrust-iot/internal/pkg/config"
	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
)

type mockConn struct {
	deviceID string

	mu        sync.Mutex
	sends     []model.Reading
	connected bool

	connectErr error
	sendErr    error
	sendDelay  time.Duration
}

func (m *mockConn) Connect() error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *mockConn) SendTelemetry(reading model.Reading, properties map[string]string) error {
	if m.sendDelay > 0 {
		time.Sleep(m.sendDelay)
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, reading)
	return nil
}

func (m *mockConn) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

func (m *mockConn) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}

func newTestSimulator(t *testing.T, cfg *config.SimulatorConfig, conns map[string]*mockConn) *Simulator {
	t.Helper()
	original := zap.L()
	zap.ReplaceGlobals(zaptest.NewLogger(t))
	t.Cleanup(func() { zap.ReplaceGlobals(original) })

	return New(cfg, func(device model.Device) (Conn, error) {
		conn, ok := conns[device.ID]
		if !ok {
			return nil, errors.New("unknown device")
		}
		return conn, nil
	})
}

func records(ids ...string) []model.Device {
	out := make([]model.Device, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Device{ID: id, ConnectionString: "HostName=h;DeviceId=" + id + ";SharedAccessKey=a2V5"})
	}
	return out
}

func TestSetup_NoDevices(t *testing.T) {
	s := newTestSimulator(t, &config.SimulatorConfig{}, nil)
	assert.ErrorIs(t, s.Setup(nil), ErrNoDevices)
}

func TestSetup_FailedConnectionIsDropped(t *testing.T) {
	conns := map[string]*mockConn{
		"dev-a": {deviceID: "dev-a"},
		"dev-b": {deviceID: "dev-b", connectErr: errors.New("refused")},
	}
	s := newTestSimulator(t, &config.SimulatorConfig{}, conns)

	require.NoError(t, s.Setup(records("dev-a", "dev-b")))
	assert.Len(t, s.devices, 1)
	assert.Equal(t, "dev-a", s.devices[0].record.ID)
}

func TestTick_OneSendPerDeviceAllSettled(t *testing.T) {
	conns := map[string]*mockConn{
		"dev-a": {deviceID: "dev-a"},
		"dev-b": {deviceID: "dev-b", sendDelay: 50 * time.Millisecond},
		"dev-c": {deviceID: "dev-c"},
	}
	s := newTestSimulator(t, &config.SimulatorConfig{AnomalyRate: 0.05}, conns)
	require.NoError(t, s.Setup(records("dev-a", "dev-b", "dev-c")))

	// tick returns only after every send, including the slow one, settled.
	s.tick(context.Background())
	for id, conn := range conns {
		assert.Equal(t, 1, conn.sendCount(), id)
	}
	assert.Equal(t, 3, s.TotalSent())

	s.tick(context.Background())
	assert.Equal(t, 6, s.TotalSent())
}

func TestTick_FailedSendDoesNotBlockOthersOrAdvanceCounter(t *testing.T) {
	conns := map[string]*mockConn{
		"dev-a": {deviceID: "dev-a"},
		"dev-b": {deviceID: "dev-b", sendErr: errors.New("unreachable")},
		"dev-c": {deviceID: "dev-c"},
	}
	s := newTestSimulator(t, &config.SimulatorConfig{}, conns)
	require.NoError(t, s.Setup(records("dev-a", "dev-b", "dev-c")))

	s.tick(context.Background())

	assert.Equal(t, 2, s.TotalSent())
	for _, d := range s.devices {
		if d.record.ID == "dev-b" {
			assert.Equal(t, 0, d.sent, "failed send must not advance the counter")
		} else {
			assert.Equal(t, 1, d.sent)
		}
	}

	// Sequence numbers restart where the counter left off: the next tick
	// simply tries again.
	s.devices[1].conn.(*mockConn).sendErr = nil
	s.tick(context.Background())
	assert.Equal(t, 5, s.TotalSent())
}

func TestRun_DurationBudgetDisconnectsEverything(t *testing.T) {
	conns := map[string]*mockConn{
		"dev-a": {deviceID: "dev-a"},
		"dev-b": {deviceID: "dev-b"},
		"dev-c": {deviceID: "dev-c"},
	}
	cfg := &config.SimulatorConfig{
		MessageInterval: time.Hour, // only the immediate first tick fires
		Duration:        50 * time.Millisecond,
	}
	s := newTestSimulator(t, cfg, conns)
	require.NoError(t, s.Setup(records("dev-a", "dev-b", "dev-c")))

	require.NoError(t, s.Run(context.Background()))

	// Exactly one outcome per device for the single tick.
	for id, conn := range conns {
		assert.Equal(t, 1, conn.sendCount(), id)
		assert.False(t, conn.connected, "device %s must be disconnected after Run", id)
	}
	assert.Equal(t, 3, s.TotalSent())
}

func TestRun_ContextCancellation(t *testing.T) {
	conns := map[string]*mockConn{"dev-a": {deviceID: "dev-a"}}
	cfg := &config.SimulatorConfig{
		MessageInterval: time.Hour,
		Duration:        time.Hour,
	}
	s := newTestSimulator(t, cfg, conns)
	require.NoError(t, s.Setup(records("dev-a")))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.False(t, conns["dev-a"].connected)
}

func TestRun_WithoutSetup(t *testing.T) {
	s := newTestSimulator(t, &config.SimulatorConfig{}, nil)
	assert.ErrorIs(t, s.Run(context.Background()), ErrNoDevices)
}
