package pipewire

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/micro-nova/pwsink-go/internal/tools"
)

const (
	pwDump = "pw-dump"
	wpctl  = "wpctl"
)

// Backend is the audio-server side of the external tool adapter.
type Backend interface {
	// Dump returns the raw JSON object graph.
	Dump(ctx context.Context) ([]byte, error)

	// SetDefault asks the session manager to make sink id the default. Like the
	// Bluetooth commands it is fire-and-forget.
	SetDefault(ctx context.Context, id int) error
}

// CLIBackend runs pw-dump and wpctl.
type CLIBackend struct {
	run tools.Runner
	log *slog.Logger
}

// NewCLIBackend returns a backend that runs commands with r.
func NewCLIBackend(r tools.Runner, log *slog.Logger) *CLIBackend {
	if log == nil {
		log = slog.Default()
	}
	return &CLIBackend{run: r, log: log}
}

func (b *CLIBackend) Dump(ctx context.Context) ([]byte, error) {
	return b.run.Run(ctx, pwDump)
}

func (b *CLIBackend) SetDefault(ctx context.Context, id int) error {
	return tools.Fire(ctx, b.run, b.log, wpctl, "set-default", strconv.Itoa(id))
}

var _ Backend = (*CLIBackend)(nil)
