package bluez

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/micro-nova/pwsink-go/internal/models"
)

const (
	bluezBusName    = "org.bluez"
	deviceInterface = "org.bluez.Device1"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// busConn is the slice of a bus connection the backend uses.
type busConn interface {
	ManagedObjects(ctx context.Context) (managedObjects, error)
	// CallNoReply sends a Device1 method call without waiting for the reply.
	CallNoReply(path dbus.ObjectPath, method string) error
	Close() error
}

// systemBus adapts a *dbus.Conn to busConn.
type systemBus struct {
	conn *dbus.Conn
}

func (s systemBus) ManagedObjects(ctx context.Context) (managedObjects, error) {
	call := s.conn.Object(bluezBusName, "/").CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0)
	if call.Err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, models.ToolExecution("bluez GetManagedObjects failed", call.Err)
	}
	var objects managedObjects
	if err := call.Store(&objects); err != nil {
		return nil, models.ParseError("bluez managed objects", err)
	}
	return objects, nil
}

// CallNoReply uses Go with FlagNoReplyExpected: Connect returns only once the
// profile is up, which can take many seconds.
func (s systemBus) CallNoReply(path dbus.ObjectPath, method string) error {
	return s.conn.Object(bluezBusName, path).Go(method, dbus.FlagNoReplyExpected, nil).Err
}

func (s systemBus) Close() error { return s.conn.Close() }

// DBusBackend talks to bluetoothd directly over the system bus instead of
// shelling out to bluetoothctl.
type DBusBackend struct {
	log *slog.Logger

	// connect opens a private bus connection.
	connect func() (busConn, error)
}

// NewDBusBackend returns a backend using the system bus.
func NewDBusBackend(log *slog.Logger) *DBusBackend {
	if log == nil {
		log = slog.Default()
	}
	return &DBusBackend{log: log, connect: func() (busConn, error) {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return nil, err
		}
		return systemBus{conn: conn}, nil
	}}
}

func (b *DBusBackend) Name() string { return "dbus" }

func (b *DBusBackend) Addresses(ctx context.Context) ([]string, error) {
	devices, err := b.devices(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(devices))
	for p := range devices {
		paths = append(paths, string(p))
	}
	// Object paths embed the adapter and address, which gives a stable order
	// close to bluetoothctl's.
	sort.Strings(paths)

	addrs := make([]string, 0, len(paths))
	for _, p := range paths {
		info := deviceInfoFromProps(devices[dbus.ObjectPath(p)])
		if info.Address != "" {
			addrs = append(addrs, info.Address)
		}
	}
	return addrs, nil
}

func (b *DBusBackend) Info(ctx context.Context, address string) (DeviceInfo, error) {
	devices, err := b.devices(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}
	for _, props := range devices {
		info := deviceInfoFromProps(props)
		if strings.EqualFold(info.Address, address) {
			return info, nil
		}
	}
	return DeviceInfo{Address: address}, nil
}

func (b *DBusBackend) Connect(ctx context.Context, address string) error {
	return b.call(ctx, address, deviceInterface+".Connect")
}

func (b *DBusBackend) Disconnect(ctx context.Context, address string) error {
	return b.call(ctx, address, deviceInterface+".Disconnect")
}

// call invokes a Device1 method without waiting for the link to change.
// Method errors are logged only; the outcome is observed by re-querying.
func (b *DBusBackend) call(ctx context.Context, address, method string) error {
	conn, err := b.connect()
	if err != nil {
		return models.ToolUnavailable("bluez d-bus", err)
	}
	defer conn.Close()

	path, err := findDevicePath(ctx, conn, address)
	if err != nil {
		return err
	}
	if path == "" {
		b.log.Warn("bluez: device not on bus", "addr", address, "method", method)
		return nil
	}

	if err := conn.CallNoReply(path, method); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.log.Warn("bluez: d-bus call failed", "addr", address, "method", method, "err", err)
	}
	return nil
}

// devices returns the property maps of every org.bluez.Device1 object.
func (b *DBusBackend) devices(ctx context.Context) (map[dbus.ObjectPath]map[string]dbus.Variant, error) {
	conn, err := b.connect()
	if err != nil {
		return nil, models.ToolUnavailable("bluez d-bus", err)
	}
	defer conn.Close()

	objects, err := conn.ManagedObjects(ctx)
	if err != nil {
		return nil, err
	}
	devices := make(map[dbus.ObjectPath]map[string]dbus.Variant)
	for path, ifaces := range objects {
		if props, ok := ifaces[deviceInterface]; ok {
			devices[path] = props
		}
	}
	return devices, nil
}

func findDevicePath(ctx context.Context, conn busConn, address string) (dbus.ObjectPath, error) {
	objects, err := conn.ManagedObjects(ctx)
	if err != nil {
		return "", err
	}
	for path, ifaces := range objects {
		props, ok := ifaces[deviceInterface]
		if !ok {
			continue
		}
		if strings.EqualFold(deviceInfoFromProps(props).Address, address) {
			return path, nil
		}
	}
	return "", nil
}

// deviceInfoFromProps converts Device1 properties. Name falls back to Alias,
// which BlueZ always sets.
func deviceInfoFromProps(props map[string]dbus.Variant) DeviceInfo {
	info := DeviceInfo{
		Address:   variantString(props, "Address"),
		Name:      variantString(props, "Name"),
		Connected: variantBool(props, "Connected"),
		Paired:    variantBool(props, "Paired"),
	}
	if info.Name == "" {
		info.Name = variantString(props, "Alias")
	}
	if v, ok := props["UUIDs"]; ok {
		if uuids, ok := v.Value().([]string); ok {
			for _, u := range uuids {
				if strings.EqualFold(u, AudioSinkUUID) {
					info.AudioSink = true
					break
				}
			}
		}
	}
	return info
}

func variantString(props map[string]dbus.Variant, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func variantBool(props map[string]dbus.Variant, key string) bool {
	if v, ok := props[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

var (
	_ Backend = (*DBusBackend)(nil)
	_ busConn = systemBus{}
)
