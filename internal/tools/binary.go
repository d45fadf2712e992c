// Package tools runs the external device and audio-server commands pwsink is
// built on (bluetoothctl, pw-dump, wpctl) and classifies their failures.
package tools

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/micro-nova/pwsink-go/internal/models"
)

// fallbackDirs are searched after PATH. Desktop sessions launched from a login
// manager do not always carry /usr/bin or /usr/local/bin.
var fallbackDirs = []string{"/usr/bin", "/usr/local/bin", "/bin"}

// FindBinary resolves a command to an executable path, in order:
//  1. override, if set (must be executable)
//  2. exec.LookPath (PATH)
//  3. fallbackDirs/<name>
//
// The error is a models.ErrToolUnavailable.
func FindBinary(name, override string) (string, error) {
	if override != "" {
		if isExecutable(override) {
			return override, nil
		}
		return "", models.ToolUnavailable(name, errors.New(override+" is not executable"))
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	for _, dir := range fallbackDirs {
		if p := filepath.Join(dir, name); isExecutable(p) {
			return p, nil
		}
	}
	return "", models.ToolUnavailable(name, exec.ErrNotFound)
}

// isExecutable returns true if path is a regular file the current user may execute.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}

// isNotFoundError returns true if err indicates the binary was not found.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "no such file or directory")
}
