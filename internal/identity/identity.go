// Package identity reports the version and host pwsink runs as.
package identity

import (
	"os"
	"runtime/debug"
)

// DefaultVersion is used when the binary carries no version information.
const DefaultVersion = "0.1.0-dev"

// version is set at link time with -ldflags "-X .../identity.version=v1.2.3".
var version string

// Info is served by the API info endpoint and advertised over mDNS.
type Info struct {
	Version  string `json:"version"`
	Hostname string `json:"hostname"`
	Backend  string `json:"backend"`
}

// Version returns the link-time version, else the module version recorded in
// the build info, else DefaultVersion.
func Version() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return DefaultVersion
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "pwsink"
	}
	return h
}

// Get returns the identity for the given Bluetooth backend.
func Get(backend string) Info {
	return Info{Version: Version(), Hostname: GetHostname(), Backend: backend}
}
