package main

import (
	"log/slog"

	"github.com/micro-nova/pwsink-go/internal/bluez"
	"github.com/micro-nova/pwsink-go/internal/config"
	"github.com/micro-nova/pwsink-go/internal/pipewire"
	"github.com/micro-nova/pwsink-go/internal/reconcile"
	"github.com/micro-nova/pwsink-go/internal/tools"
)

// newEngine wires the catalogs for the configured backends and returns the
// engine together with the Bluetooth backend name.
func newEngine(cfg config.Config, log *slog.Logger, mock bool) (*reconcile.Engine, string) {
	var (
		bt bluez.Backend
		pw pipewire.Backend
	)
	if mock {
		log.Info("pwsink: using simulated devices and sinks")
		bt, pw = mockBackends()
	} else {
		runner := tools.NewExecRunner(cfg.Tools.Overrides(), log)
		switch cfg.Backend {
		case config.BackendDBus:
			bt = bluez.NewDBusBackend(log)
		default:
			bt = bluez.NewCtlBackend(runner, log)
		}
		pw = pipewire.NewCLIBackend(runner, log)
	}

	eng := reconcile.New(
		bluez.NewCatalog(bt, log),
		pipewire.NewCatalog(pw, log),
		log,
		reconcile.WithIntervals(cfg.Settle, cfg.Poll),
	)
	return eng, bt.Name()
}

// mockBackends returns a small simulated setup: a wired output, a connected
// speaker whose sink is the default and a headset whose sink appears one
// dump after it is connected.
func mockBackends() (*bluez.Mock, *pipewire.Mock) {
	bt := bluez.NewMock(
		bluez.DeviceInfo{Address: "00:1A:7D:DA:71:13", Name: "Kitchen Speaker", Connected: true, Paired: true, AudioSink: true},
		bluez.DeviceInfo{Address: "AC:80:0A:2B:11:5E", Name: "WH-1000XM4", Paired: true, AudioSink: true},
		bluez.DeviceInfo{Address: "F4:4E:FC:00:12:34", Name: "Car Kit", Paired: false, AudioSink: true},
	)
	sinks := map[string]pipewire.MockNode{
		"00:1A:7D:DA:71:13": {ID: 68, NodeName: "bluez_output.00_1A_7D_DA_71_13.1", Description: "Kitchen Speaker", API: "bluez5", Address: "00:1A:7D:DA:71:13"},
		"AC:80:0A:2B:11:5E": {ID: 81, NodeName: "bluez_output.AC_80_0A_2B_11_5E.1", Description: "WH-1000XM4", API: "bluez5", Address: "AC:80:0A:2B:11:5E"},
	}
	speaker := sinks["00:1A:7D:DA:71:13"]
	pw := pipewire.NewMock(
		pipewire.MockNode{ID: 59, NodeName: "alsa_output.pci-0000_00_1f.3.analog-stereo", Description: "Built-in Audio Analog Stereo", API: "alsa"},
		speaker,
	)
	pw.SetDefaultName(speaker.NodeName)

	// A connect brings the device's sink back one dump later.
	bt.OnConnect = func(addr string) {
		if n, ok := sinks[addr]; ok {
			pw.RemoveNode(n.ID)
			pw.AddNode(1, n)
		}
	}
	return bt, pw
}
