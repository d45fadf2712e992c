package models

import (
	"fmt"
	"strings"
)

// BluezAPIPrefix is the device.api prefix of sinks backed by BlueZ.
const BluezAPIPrefix = "bluez"

// Sink is an audio-server output node. ID is only stable within one audio-server
// session.
type Sink struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	API     string `json:"api"`
	Address string `json:"address,omitempty"` // only for bluez sinks
	Default bool   `json:"default"`
}

// IsBluetooth reports whether the sink is served by the Bluetooth backend.
func (s Sink) IsBluetooth() bool { return strings.HasPrefix(s.API, BluezAPIPrefix) }

func (s Sink) String() string {
	addr := s.Address
	if addr == "" {
		addr = "None"
	}
	return fmt.Sprintf("Sink(id=%d, name=%s, api=%s, address=%s, default=%s)", s.ID, s.Name, s.API, addr, boolText(s.Default))
}

// Human renders the multi-line labeled block used by the status report.
// Address and Default lines are only present when they carry information.
func (s Sink) Human() string {
	lines := []string{
		"\n  Name:    " + s.Name,
		"  Api:     " + s.API,
	}
	if s.Address != "" {
		lines = append(lines, "  Address: "+s.Address)
	}
	if s.Default {
		lines = append(lines, "  Default: True")
	}
	return strings.Join(lines, "\n")
}

// Status is the combined snapshot printed by --json and served by the API.
type Status struct {
	Sinks []Sink            `json:"sinks"`
	Bluez []BluetoothDevice `json:"bluez"`
}
