// Package bluez implements the Bluetooth device catalog: it lists paired,
// audio-sink-capable devices and connects or disconnects them while keeping at
// most one such device connected.
package bluez

import (
	"context"
	"fmt"
)

// AudioSinkUUID is the A2DP Audio Sink service class UUID.
const AudioSinkUUID = "0000110b-0000-1000-8000-00805f9b34fb"

// DeviceInfo is the detail record a backend reports for one device.
// Paired and AudioSink are only used to filter the catalog.
type DeviceInfo struct {
	Address   string
	Name      string
	Connected bool
	Paired    bool
	AudioSink bool
}

// Backend is the Bluetooth side of the external tool adapter.
//
// Connect and Disconnect are fire-and-forget: the daemon completes them
// asynchronously, so a nil error does not mean the link state changed. They
// only fail when the backend itself is unavailable or ctx is done.
type Backend interface {
	// Addresses lists the MAC addresses of all known devices in the backend's
	// native order.
	Addresses(ctx context.Context) ([]string, error)

	// Info fetches and parses the detail record for one device.
	Info(ctx context.Context, address string) (DeviceInfo, error)

	Connect(ctx context.Context, address string) error
	Disconnect(ctx context.Context, address string) error

	// Name identifies the backend in logs ("bluetoothctl", "dbus").
	Name() string
}

func (i DeviceInfo) String() string {
	return fmt.Sprintf("%s (%s) paired=%t connected=%t audio=%t", i.Name, i.Address, i.Paired, i.Connected, i.AudioSink)
}
