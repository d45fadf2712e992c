// Package config loads the optional pwsink configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDirName     = "pwsink"
	configFileName = "config.yaml"
)

// Bluetooth backends.
const (
	BackendBluetoothctl = "bluetoothctl"
	BackendDBus         = "dbus"
)

// Config is the user configuration. Every field has a usable default, so the
// file is optional.
type Config struct {
	Backend  string            `yaml:"backend"`
	Tools    Tools             `yaml:"tools"`
	Retry    int               `yaml:"retry"`
	Timeout  time.Duration     `yaml:"timeout"`
	Settle   time.Duration     `yaml:"settle"`
	Poll     time.Duration     `yaml:"poll"`
	LogLevel string            `yaml:"log_level"`
	Aliases  map[string]string `yaml:"aliases"`
	Serve    Serve             `yaml:"serve"`
}

// Tools holds explicit binary paths; empty means look the command up.
type Tools struct {
	Bluetoothctl string `yaml:"bluetoothctl"`
	PwDump       string `yaml:"pw_dump"`
	Wpctl        string `yaml:"wpctl"`
}

// Overrides returns the non-empty paths keyed by command name.
func (t Tools) Overrides() map[string]string {
	m := make(map[string]string)
	for name, p := range map[string]string{
		"bluetoothctl": t.Bluetoothctl,
		"pw-dump":      t.PwDump,
		"wpctl":        t.Wpctl,
	} {
		if p != "" {
			m[name] = p
		}
	}
	return m
}

// Serve configures the HTTP control surface.
type Serve struct {
	Addr  string  `yaml:"addr"`
	MDNS  bool    `yaml:"mdns"`
	Rate  float64 `yaml:"rate"`  // mutating requests per second
	Burst int     `yaml:"burst"` // mutating requests allowed at once
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:  BackendBluetoothctl,
		Retry:    1,
		Timeout:  3 * time.Second,
		Settle:   500 * time.Millisecond,
		Poll:     500 * time.Millisecond,
		LogLevel: "WARN",
		Aliases:  map[string]string{},
		Serve: Serve{
			Addr:  "127.0.0.1:7683",
			Rate:  1,
			Burst: 2,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/pwsink/config.yaml, falling back to
// ~/.config/pwsink/config.yaml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDirName, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName, configFileName), nil
}

// Load reads path on top of Default. A missing file yields the defaults; a
// file that does not parse or validate is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendBluetoothctl, BackendDBus:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendBluetoothctl, BackendDBus, c.Backend)
	}
	if c.Retry < 1 {
		return fmt.Errorf("retry must be at least 1, got %d", c.Retry)
	}
	if c.Timeout <= 0 || c.Settle < 0 || c.Poll <= 0 {
		return errors.New("timeout and poll must be positive, settle must not be negative")
	}
	if c.Serve.Rate <= 0 || c.Serve.Burst < 1 {
		return errors.New("serve.rate must be positive and serve.burst at least 1")
	}
	return nil
}

// ResolveAlias returns the label an alias stands for, or label itself.
func (c Config) ResolveAlias(label string) string {
	if target, ok := c.Aliases[label]; ok && target != "" {
		return target
	}
	return label
}
