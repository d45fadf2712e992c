// Package zeroconf advertises the pwsink HTTP control surface over mDNS/DNS-SD
// so remotes on the LAN can find it.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type registered by pwsink.
const ServiceType = "_pwsink._tcp"

// Service manages mDNS service registration.
type Service struct {
	name string // instance name, usually the hostname
	port int
	txt  []string
	log  *slog.Logger
}

// New creates a Service advertising port under the given instance name.
func New(name string, port int, version string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		name: name,
		port: port,
		txt:  TXT(version),
		log:  log,
	}
}

// TXT returns the TXT records advertised for a version.
func TXT(version string) []string {
	return []string{"version=" + version, "path=/api"}
}

// Start registers the service and blocks until ctx is cancelled, then
// unregisters it.
func (s *Service) Start(ctx context.Context) error {
	server, err := zeroconf.Register(s.name, ServiceType, "local.", s.port, s.txt, nil)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.log.Info("zeroconf: registered mDNS service", "name", s.name, "port", s.port, "txt", s.txt)

	<-ctx.Done()

	server.Shutdown()
	s.log.Info("zeroconf: mDNS service unregistered")
	return nil
}
