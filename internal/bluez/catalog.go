package bluez

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/micro-nova/pwsink-go/internal/models"
)

// Catalog lists Bluetooth audio devices and changes their connection state.
//
// Invariant: Connect leaves at most one audio device connected. When another
// device is connected (or a reconnect is forced) every connected device is
// disconnected first, because the audio server cannot reliably pick the default
// among several Bluetooth sinks.
type Catalog struct {
	backend Backend
	log     *slog.Logger
}

// NewCatalog returns a catalog reading from backend.
func NewCatalog(backend Backend, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{backend: backend, log: log}
}

// Backend returns the adapter backend the catalog reads from.
func (c *Catalog) Backend() Backend { return c.backend }

// ListDevices returns every paired, audio-sink-capable device in the backend's
// listing order. Any backend failure aborts the listing.
func (c *Catalog) ListDevices(ctx context.Context) ([]models.BluetoothDevice, error) {
	addrs, err := c.backend.Addresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bluetooth devices: %w", err)
	}

	devices := make([]models.BluetoothDevice, 0, len(addrs))
	for _, addr := range addrs {
		info, err := c.backend.Info(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("bluetooth device info %s: %w", addr, err)
		}
		if !info.AudioSink || !info.Paired {
			continue
		}
		devices = append(devices, models.NewBluetoothDevice(addr, info.Name, info.Connected))
	}

	if c.log.Enabled(ctx, slog.LevelDebug) {
		c.log.Debug("bluez: known audio devices", "backend", c.backend.Name(), "devices", devices)
	}
	return devices, nil
}

// DisconnectAll disconnects every connected audio device and returns the
// devices it issued a disconnect for.
func (c *Catalog) DisconnectAll(ctx context.Context) ([]models.BluetoothDevice, error) {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	disconnected := make([]models.BluetoothDevice, 0)
	for _, d := range devices {
		if !d.Connected {
			continue
		}
		c.log.Debug("bluez: disconnecting device", "name", d.Name, "addr", d.Address)
		if err := c.backend.Disconnect(ctx, d.Address); err != nil {
			return disconnected, fmt.Errorf("disconnect %s: %w", d.Address, err)
		}
		disconnected = append(disconnected, d)
	}
	return disconnected, nil
}

// Connect connects the device whose address or name contains label.
//
// It returns (nil, nil) when there is nothing to do: no device matches, or the
// match is already connected and reconnect is false. Otherwise it returns the
// target as listed before the connect was issued; the connect completes
// asynchronously, so callers re-query to observe it.
func (c *Catalog) Connect(ctx context.Context, label string, reconnect bool) (*models.BluetoothDevice, error) {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	target, otherConnected := classify(devices, label)
	if target == nil {
		c.log.Debug("bluez: no audio device matches label", "label", label)
		return nil, nil
	}
	if target.Connected && !reconnect {
		c.log.Debug("bluez: device already connected, nothing to do", "name", target.Name, "addr", target.Address)
		return nil, nil
	}

	if otherConnected || reconnect {
		c.log.Debug("bluez: disconnecting all audio devices before connecting", "target", target.Address)
		if _, err := c.DisconnectAll(ctx); err != nil {
			return nil, err
		}
	}

	c.log.Debug("bluez: connecting device", "name", target.Name, "addr", target.Address)
	if err := c.backend.Connect(ctx, target.Address); err != nil {
		return nil, fmt.Errorf("connect %s: %w", target.Address, err)
	}
	return target, nil
}

// FindPrefix returns the devices whose name or address starts with label.
func (c *Catalog) FindPrefix(ctx context.Context, label string) ([]models.BluetoothDevice, error) {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	var found []models.BluetoothDevice
	if label == "" {
		return found, nil
	}
	for _, d := range devices {
		if strings.HasPrefix(d.Name, label) || strings.HasPrefix(d.Address, label) {
			found = append(found, d)
		}
	}
	return found, nil
}

// MatchDevice returns the first device whose address or name contains label,
// or nil.
func MatchDevice(devices []models.BluetoothDevice, label string) *models.BluetoothDevice {
	target, _ := classify(devices, label)
	return target
}

// classify picks the first device whose address or name contains label and
// reports whether any other device is connected. An empty label matches nothing.
func classify(devices []models.BluetoothDevice, label string) (*models.BluetoothDevice, bool) {
	var target *models.BluetoothDevice
	otherConnected := false
	for i := range devices {
		d := devices[i]
		if target == nil && label != "" && (strings.Contains(d.Address, label) || strings.Contains(d.Name, label)) {
			target = &d
			continue
		}
		if d.Connected {
			otherConnected = true
		}
	}
	return target, otherConnected
}
