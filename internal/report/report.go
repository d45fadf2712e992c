// Package report renders sinks and Bluetooth devices for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/micro-nova/pwsink-go/internal/models"
)

// Sorted returns a copy of st with the default sink first, the remaining sinks
// by name, and devices by name.
func Sorted(st models.Status) models.Status {
	sinks := append([]models.Sink(nil), st.Sinks...)
	sort.SliceStable(sinks, func(i, j int) bool {
		if sinks[i].Default != sinks[j].Default {
			return sinks[i].Default
		}
		return sinks[i].Name < sinks[j].Name
	})
	devices := append([]models.BluetoothDevice(nil), st.Bluez...)
	sort.SliceStable(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return models.Status{Sinks: sinks, Bluez: devices}
}

// Human writes the labeled multi-line status report.
func Human(w io.Writer, st models.Status) error {
	st = Sorted(st)
	if _, err := fmt.Fprintln(w, "Pipewire sinks:"); err != nil {
		return err
	}
	for _, s := range st.Sinks {
		if _, err := fmt.Fprintln(w, s.Human()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "\nBluetooth devices:"); err != nil {
		return err
	}
	for _, d := range st.Bluez {
		if _, err := fmt.Fprintln(w, d.Human()); err != nil {
			return err
		}
	}
	return nil
}

// List writes one record per line in catalog order, sinks first.
func List(w io.Writer, st models.Status) error {
	for _, s := range st.Sinks {
		if _, err := fmt.Fprintln(w, s.String()); err != nil {
			return err
		}
	}
	for _, d := range st.Bluez {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes {"sinks": [...], "bluez": [...]} indented by two spaces.
func JSON(w io.Writer, st models.Status) error {
	if st.Sinks == nil {
		st.Sinks = []models.Sink{}
	}
	if st.Bluez == nil {
		st.Bluez = []models.BluetoothDevice{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
