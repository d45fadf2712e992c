// Command pwsink selects the PipeWire output sink, connecting Bluetooth audio
// devices on demand. Run with --mock to use simulated devices and sinks.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/micro-nova/pwsink-go/internal/logging"
	"github.com/micro-nova/pwsink-go/internal/models"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return models.ExitOK
	}
	// An interrupt ends the run quietly.
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return models.ExitOK
	}

	log := c.log
	if log == nil {
		log = logging.New(stderr, slog.LevelError)
	}
	log.Error("pwsink: failed", "err", err)
	return exitCode(err)
}

// exitCode maps an error to the process exit code of its AppError kind.
func exitCode(err error) int {
	if err == nil {
		return models.ExitOK
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Exit != 0 {
		return appErr.Exit
	}
	return models.ExitFailure
}
