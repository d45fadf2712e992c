package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/micro-nova/pwsink-go/internal/models"
)

// maxStderr bounds how much of a failing command's stderr ends up in an error.
const maxStderr = 500

// Runner executes one external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Overrides maps a command name to an
// explicit binary path taken from the configuration.
type ExecRunner struct {
	Overrides map[string]string
	Log       *slog.Logger
}

// NewExecRunner returns an ExecRunner using the given path overrides.
func NewExecRunner(overrides map[string]string, log *slog.Logger) *ExecRunner {
	if log == nil {
		log = slog.Default()
	}
	return &ExecRunner{Overrides: overrides, Log: log}
}

// Run resolves name, runs it with args and returns stdout.
// A missing binary yields models.ErrToolUnavailable, a non-zero exit
// models.ErrToolExecution, and cancellation returns ctx.Err().
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := FindBinary(name, r.Overrides[name])
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Log.Debug("tools: running command", "cmd", path, "args", args)
	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if isNotFoundError(err) {
			return nil, models.ToolUnavailable(name, err)
		}
		errOutput := strings.TrimSpace(stderr.String())
		if len(errOutput) > maxStderr {
			errOutput = errOutput[:maxStderr]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && errOutput != "" {
			err = fmt.Errorf("%w: %s", err, errOutput)
		}
		return stdout.Bytes(), models.ToolExecution(name+" "+strings.Join(args, " ")+" failed", err)
	}
	return stdout.Bytes(), nil
}

// Fire runs a command whose effect is observed asynchronously by polling, so its
// exit status is logged but not returned. Only an unavailable tool or
// cancellation is reported.
func Fire(ctx context.Context, r Runner, log *slog.Logger, name string, args ...string) error {
	_, err := r.Run(ctx, name, args...)
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrToolUnavailable) || ctx.Err() != nil {
		return err
	}
	log.Warn("tools: command exited abnormally", "cmd", name, "args", args, "err", err)
	return nil
}
