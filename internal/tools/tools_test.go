package tools

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/pwsink-go/internal/models"
)

// writeScript creates an executable shell script in a temp dir and returns its path.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return p
}

func TestFindBinary_Override(t *testing.T) {
	p := writeScript(t, "fake-wpctl", "exit 0")
	got, err := FindBinary("wpctl", p)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestFindBinary_OverrideNotExecutable(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0644))

	_, err := FindBinary("wpctl", p)
	assert.ErrorIs(t, err, models.ErrToolUnavailable)
}

func TestFindBinary_NotFound(t *testing.T) {
	_, err := FindBinary("pwsink-no-such-binary-xyz", "")
	assert.ErrorIs(t, err, models.ErrToolUnavailable)
}

func TestExecRunner_Stdout(t *testing.T) {
	p := writeScript(t, "fake-bluetoothctl", `echo "Device AA:BB:CC:DD:EE:FF Headset"`)
	r := NewExecRunner(map[string]string{"bluetoothctl": p}, nil)

	out, err := r.Run(context.Background(), "bluetoothctl", "devices")
	require.NoError(t, err)
	assert.Equal(t, "Device AA:BB:CC:DD:EE:FF Headset\n", string(out))
}

func TestExecRunner_Args(t *testing.T) {
	p := writeScript(t, "fake-wpctl", `echo "$1 $2"`)
	r := NewExecRunner(map[string]string{"wpctl": p}, nil)

	out, err := r.Run(context.Background(), "wpctl", "set-default", "59")
	require.NoError(t, err)
	assert.Equal(t, "set-default 59\n", string(out))
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	p := writeScript(t, "fake-pw-dump", "echo broken >&2\nexit 3")
	r := NewExecRunner(map[string]string{"pw-dump": p}, nil)

	_, err := r.Run(context.Background(), "pw-dump")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrToolExecution)
	assert.Contains(t, err.Error(), "broken")

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.ExitToolExecution, appErr.Exit)
}

func TestExecRunner_Unavailable(t *testing.T) {
	r := NewExecRunner(nil, nil)
	_, err := r.Run(context.Background(), "pwsink-no-such-binary-xyz")
	assert.ErrorIs(t, err, models.ErrToolUnavailable)
}

func TestExecRunner_Cancelled(t *testing.T) {
	p := writeScript(t, "fake-slow", "sleep 5")
	r := NewExecRunner(map[string]string{"slow": p}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, "slow")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFire_SwallowsExitStatus(t *testing.T) {
	p := writeScript(t, "fake-bluetoothctl", "exit 1")
	r := NewExecRunner(map[string]string{"bluetoothctl": p}, nil)

	err := Fire(context.Background(), r, slog.Default(), "bluetoothctl", "connect", "AA:BB:CC:DD:EE:FF")
	assert.NoError(t, err)
}

func TestFire_ReportsUnavailable(t *testing.T) {
	r := NewExecRunner(nil, nil)
	err := Fire(context.Background(), r, slog.Default(), "pwsink-no-such-binary-xyz")
	assert.ErrorIs(t, err, models.ErrToolUnavailable)
}
