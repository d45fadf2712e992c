// Package models defines the device and sink records shared by the catalogs,
// the reconciliation engine and the renderers.
package models

import "fmt"

// BluetoothDevice is a paired, audio-sink-capable Bluetooth peripheral as seen at
// catalog-read time. Records are rebuilt on every query and never mutated.
type BluetoothDevice struct {
	ID        string `json:"id"` // same as Address
	Address   string `json:"address"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// NewBluetoothDevice builds a device record keyed by its MAC address.
func NewBluetoothDevice(address, name string, connected bool) BluetoothDevice {
	return BluetoothDevice{ID: address, Address: address, Name: name, Connected: connected}
}

func (d BluetoothDevice) String() string {
	return fmt.Sprintf("BluetoothDevice(address=%s, name=%s, connected=%s)", d.Address, d.Name, boolText(d.Connected))
}

// Human renders the multi-line labeled block used by the status report.
func (d BluetoothDevice) Human() string {
	return fmt.Sprintf("\n  Name:        %s\n  MAC-Address: %s\n  Connected:   %s\n", d.Name, d.Address, boolText(d.Connected))
}

// boolText spells booleans as True and False in the text renderings.
func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
