package bluez

import (
	"context"
	"sync"
)

// Mock is a thread-safe in-memory Backend for tests and --mock runs.
// Connect and Disconnect take effect immediately unless SetStale is on.
type Mock struct {
	mu      sync.Mutex
	devices []DeviceInfo
	calls   []string
	failErr error
	stale   bool

	// OnConnect, if set, is called after a connect is recorded.
	OnConnect func(address string)
}

// NewMock creates a mock backend listing devices in the given order.
func NewMock(devices ...DeviceInfo) *Mock {
	return &Mock{devices: append([]DeviceInfo(nil), devices...)}
}

// SetFail makes every discovery call return err (nil clears it).
func (m *Mock) SetFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// SetStale makes Connect a no-op on device state, like a daemon that accepted
// the command but never brought the link up.
func (m *Mock) SetStale(stale bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale = stale
}

// SetConnected changes a device's state as if it happened outside pwsink.
func (m *Mock) SetConnected(address string, connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.devices {
		if m.devices[i].Address == address {
			m.devices[i].Connected = connected
		}
	}
}

// Calls returns the recorded "connect <addr>" / "disconnect <addr>" commands.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Addresses(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	addrs := make([]string, 0, len(m.devices))
	for _, d := range m.devices {
		addrs = append(addrs, d.Address)
	}
	return addrs, nil
}

func (m *Mock) Info(ctx context.Context, address string) (DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return DeviceInfo{}, m.failErr
	}
	for _, d := range m.devices {
		if d.Address == address {
			return d, nil
		}
	}
	return DeviceInfo{Address: address}, nil
}

func (m *Mock) Connect(ctx context.Context, address string) error {
	m.mu.Lock()
	m.calls = append(m.calls, "connect "+address)
	if !m.stale {
		for i := range m.devices {
			if m.devices[i].Address == address {
				m.devices[i].Connected = true
			}
		}
	}
	hook := m.OnConnect
	m.mu.Unlock()

	if hook != nil {
		hook(address)
	}
	return ctx.Err()
}

func (m *Mock) Disconnect(ctx context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "disconnect "+address)
	for i := range m.devices {
		if m.devices[i].Address == address {
			m.devices[i].Connected = false
		}
	}
	return ctx.Err()
}

var _ Backend = (*Mock)(nil)
