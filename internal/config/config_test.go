package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	p := writeConfig(t, t.TempDir(), `
backend: dbus
retry: 3
timeout: 5s
settle: 1s
log_level: DEBUG
tools:
  wpctl: /opt/wp/bin/wpctl
aliases:
  buds: "AA:BB:CC:DD:EE:FF"
  tv: HDMI
serve:
  addr: ":9000"
  mdns: true
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, BackendDBus, cfg.Backend)
	assert.Equal(t, 3, cfg.Retry)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, time.Second, cfg.Settle)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll, "unset fields keep defaults")
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, map[string]string{"wpctl": "/opt/wp/bin/wpctl"}, cfg.Tools.Overrides())
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.True(t, cfg.Serve.MDNS)
	assert.Equal(t, 2, cfg.Serve.Burst)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not yaml", "backend: [unclosed"},
		{"unknown field", "retries: 3"},
		{"bad backend", "backend: pulseaudio"},
		{"zero retry", "retry: 0"},
		{"bad duration", "timeout: soon"},
		{"negative settle", "settle: -1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.body))
			assert.Error(t, err)
		})
	}
}

func TestResolveAlias(t *testing.T) {
	cfg := Default()
	cfg.Aliases = map[string]string{"buds": "AA:BB:CC:DD:EE:FF", "empty": ""}

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.ResolveAlias("buds"))
	assert.Equal(t, "Buds", cfg.ResolveAlias("Buds"), "aliases are case-sensitive")
	assert.Equal(t, "empty", cfg.ResolveAlias("empty"))
	assert.Equal(t, "59", cfg.ResolveAlias("59"))
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/pwsink/config.yaml", p)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "aliases:\n  tv: HDMI\n")
	initial, err := Load(p)
	require.NoError(t, err)

	w, err := NewWatcher(p, initial, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeConfig(t, dir, "aliases:\n  tv: Living Room TV\n")
	require.Eventually(t, func() bool {
		return w.Current().ResolveAlias("tv") == "Living Room TV"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_KeepsPreviousOnBadFile(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "retry: 2\n")
	initial, err := Load(p)
	require.NoError(t, err)

	w, err := NewWatcher(p, initial, nil)
	require.NoError(t, err)
	defer w.Close()

	writeConfig(t, dir, "retry: nope\n")
	assert.Error(t, w.Reload())
	assert.Equal(t, 2, w.Current().Retry)
}
