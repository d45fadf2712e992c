package bluez

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/micro-nova/pwsink-go/internal/tools"
)

const bluetoothctl = "bluetoothctl"

// CtlBackend drives BlueZ through the bluetoothctl command.
type CtlBackend struct {
	run tools.Runner
	log *slog.Logger
}

// NewCtlBackend returns a bluetoothctl backend that runs commands with r.
func NewCtlBackend(r tools.Runner, log *slog.Logger) *CtlBackend {
	if log == nil {
		log = slog.Default()
	}
	return &CtlBackend{run: r, log: log}
}

func (b *CtlBackend) Name() string { return bluetoothctl }

func (b *CtlBackend) Addresses(ctx context.Context) ([]string, error) {
	out, err := b.run.Run(ctx, bluetoothctl, "devices")
	if err != nil {
		return nil, err
	}
	return ParseDevices(out), nil
}

func (b *CtlBackend) Info(ctx context.Context, address string) (DeviceInfo, error) {
	out, err := b.run.Run(ctx, bluetoothctl, "info", address)
	if err != nil {
		return DeviceInfo{}, err
	}
	return ParseInfo(address, out), nil
}

func (b *CtlBackend) Connect(ctx context.Context, address string) error {
	return tools.Fire(ctx, b.run, b.log, bluetoothctl, "connect", address)
}

func (b *CtlBackend) Disconnect(ctx context.Context, address string) error {
	return tools.Fire(ctx, b.run, b.log, bluetoothctl, "disconnect", address)
}

// ParseDevices extracts addresses from `bluetoothctl devices` output, whose
// lines look like "Device AA:BB:CC:DD:EE:FF Some Name".
func ParseDevices(out []byte) []string {
	var addrs []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "Device" {
			continue
		}
		addrs = append(addrs, fields[1])
	}
	return addrs
}

// ParseInfo parses a `bluetoothctl info <addr>` block.
func ParseInfo(address string, out []byte) DeviceInfo {
	info := DeviceInfo{Address: address}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "UUID: Audio Sink"):
			info.AudioSink = true
		case strings.HasPrefix(line, "Name: "):
			info.Name = strings.TrimPrefix(line, "Name: ")
		case line == "Connected: yes":
			info.Connected = true
		case line == "Paired: yes":
			info.Paired = true
		}
	}
	return info
}

var _ Backend = (*CtlBackend)(nil)
