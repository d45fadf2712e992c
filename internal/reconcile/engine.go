// Package reconcile selects an output: it resolves a label to a Bluetooth
// device and/or sink, connects the device, waits for its sink to appear and
// makes that sink the default.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/micro-nova/pwsink-go/internal/bluez"
	"github.com/micro-nova/pwsink-go/internal/models"
	"github.com/micro-nova/pwsink-go/internal/pipewire"
)

// Default timings.
const (
	DefaultSettle  = 500 * time.Millisecond
	DefaultPoll    = 500 * time.Millisecond
	DefaultTimeout = 3 * time.Second
)

// Devices is the Bluetooth device catalog as used by the engine.
type Devices interface {
	ListDevices(ctx context.Context) ([]models.BluetoothDevice, error)
	FindPrefix(ctx context.Context, label string) ([]models.BluetoothDevice, error)
	Connect(ctx context.Context, label string, reconnect bool) (*models.BluetoothDevice, error)
	DisconnectAll(ctx context.Context) ([]models.BluetoothDevice, error)
}

// Sinks is the sink catalog as used by the engine.
type Sinks interface {
	ListSinks(ctx context.Context) ([]models.Sink, error)
	Default(ctx context.Context) (*models.Sink, error)
	SetDefault(ctx context.Context, id int) error
}

// Options control one SetSink run.
type Options struct {
	// Retry is the number of connect-and-wait attempts; values below 1 mean 1.
	Retry int
	// Timeout bounds the sink poll of each attempt.
	Timeout time.Duration
	// Reconnect drops and re-establishes the Bluetooth link even if it is up.
	Reconnect bool
}

// Engine coordinates the two catalogs. It keeps no state between calls.
type Engine struct {
	devices Devices
	sinks   Sinks
	log     *slog.Logger
	clock   Clock

	settle time.Duration
	poll   time.Duration
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithIntervals overrides the settle delay after a connect and the sink poll
// interval. Zero keeps the default.
func WithIntervals(settle, poll time.Duration) Option {
	return func(e *Engine) {
		if settle > 0 {
			e.settle = settle
		}
		if poll > 0 {
			e.poll = poll
		}
	}
}

// New returns an engine over the given catalogs.
func New(devices Devices, sinks Sinks, log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		devices: devices,
		sinks:   sinks,
		log:     log,
		clock:   realClock{},
		settle:  DefaultSettle,
		poll:    DefaultPoll,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Status returns a snapshot of all sinks and Bluetooth audio devices.
func (e *Engine) Status(ctx context.Context) (models.Status, error) {
	sinks, err := e.sinks.ListSinks(ctx)
	if err != nil {
		return models.Status{}, err
	}
	devices, err := e.devices.ListDevices(ctx)
	if err != nil {
		return models.Status{}, err
	}
	return models.Status{Sinks: sinks, Bluez: devices}, nil
}

// Sinks lists the audio-server sinks.
func (e *Engine) Sinks(ctx context.Context) ([]models.Sink, error) {
	return e.sinks.ListSinks(ctx)
}

// Devices lists the Bluetooth audio devices.
func (e *Engine) Devices(ctx context.Context) ([]models.BluetoothDevice, error) {
	return e.devices.ListDevices(ctx)
}

// Default returns the current default sink or nil.
func (e *Engine) Default(ctx context.Context) (*models.Sink, error) {
	return e.sinks.Default(ctx)
}

// Connect connects the Bluetooth device matching label. A nil device with a
// nil error means the device was already connected; a label matching no
// device is a models.ErrDeviceNotFound.
func (e *Engine) Connect(ctx context.Context, label string, reconnect bool) (*models.BluetoothDevice, error) {
	dev, err := e.devices.Connect(ctx, label, reconnect)
	if err != nil || dev != nil {
		return dev, err
	}
	devices, err := e.devices.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	if bluez.MatchDevice(devices, label) == nil {
		return nil, models.DeviceNotFound(label)
	}
	return nil, nil
}

// Disconnect disconnects every connected Bluetooth audio device.
func (e *Engine) Disconnect(ctx context.Context) ([]models.BluetoothDevice, error) {
	return e.devices.DisconnectAll(ctx)
}

// SetSink makes the sink identified by label the default output.
//
// If label prefixes the name or address of a Bluetooth audio device, each
// attempt connects that device, waits the settle delay and then polls for a
// sink carrying the device's name. Otherwise label is matched against sink ids
// and names directly. An attempt whose poll times out forces a reconnect on
// the next one. After opts.Retry failed attempts the result is a
// models.ErrSinkNotFound.
func (e *Engine) SetSink(ctx context.Context, label string, opts Options) (models.Sink, error) {
	log := e.log.With("op", uuid.NewString())
	retry := max(opts.Retry, 1)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reconnect := opts.Reconnect

	if label == "" {
		return models.Sink{}, models.BadRequest("empty sink label")
	}

	matches, err := e.devices.FindPrefix(ctx, label)
	if err != nil {
		return models.Sink{}, err
	}

	for attempt := 1; attempt <= retry; attempt++ {
		log.Debug("reconcile: attempt", "attempt", attempt, "of", retry, "label", label, "reconnect", reconnect)

		if len(matches) > 0 {
			dev := matches[0]
			if _, err := e.devices.Connect(ctx, dev.Address, reconnect); err != nil {
				return models.Sink{}, err
			}
			// Bluetooth sinks are described by the device name.
			if dev.Name != "" {
				label = dev.Name
			}
			if err := e.clock.Sleep(ctx, e.settle); err != nil {
				return models.Sink{}, err
			}
		}

		sink, found, err := e.waitForSink(ctx, log, label, timeout)
		if err != nil {
			return models.Sink{}, err
		}
		if found {
			if !sink.Default {
				log.Info("reconcile: setting new default sink", "sink", sink.Name, "id", sink.ID)
				if err := e.sinks.SetDefault(ctx, sink.ID); err != nil {
					return models.Sink{}, err
				}
			}
			return sink, nil
		}

		log.Warn("reconcile: sink did not appear", "label", label, "attempt", attempt, "timeout", timeout)
		reconnect = true
	}

	return models.Sink{}, fmt.Errorf("after %d attempt(s): %w", retry, models.SinkNotFound(label))
}

// waitForSink polls the sink catalog until a sink matches label or timeout
// has elapsed. The last probe happens at the deadline, never after it.
func (e *Engine) waitForSink(ctx context.Context, log *slog.Logger, label string, timeout time.Duration) (models.Sink, bool, error) {
	start := e.clock.Now()
	for {
		sinks, err := e.sinks.ListSinks(ctx)
		if err != nil {
			return models.Sink{}, false, err
		}
		if s, ok := pipewire.Match(sinks, label); ok {
			log.Info("reconcile: sink found", "sink", s.Name, "id", s.ID)
			return s, true, nil
		}

		remaining := timeout - e.clock.Now().Sub(start)
		if remaining <= 0 {
			return models.Sink{}, false, nil
		}
		wait := min(e.poll, remaining)
		log.Warn("reconcile: sink not found yet", "label", label, "wait", wait)
		if err := e.clock.Sleep(ctx, wait); err != nil {
			return models.Sink{}, false, err
		}
	}
}
