// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"
)

// NativeRunner runs programs directly on the host.
type NativeRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the context
	// is cancelled and the process killed. Zero waits indefinitely.
	WaitDelay time.Duration
}

// NewNativeRunner creates a runner with default settings.
func NewNativeRunner() *NativeRunner {
	return &NativeRunner{WaitDelay: 10 * time.Second}
}

// Run starts spec.Path and waits for it to exit.
func (r *NativeRunner) Run(ctx context.Context, spec Spec) *Result {
	if spec.Path == "" {
		return NewErrorResult(1, errors.New("no program to run"))
	}

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = EnvToSlice(spec.Env)
	}
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.WaitDelay = r.WaitDelay

	slog.Debug("starting process", "path", spec.Path, "args", spec.Args, "dir", spec.Dir)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := ExitCode(exitErr.ExitCode())
			if code < 0 {
				code = signalExitCode(exitErr)
				if ctx.Err() != nil {
					return &Result{ExitCode: code, Error: fmt.Errorf("process interrupted: %w", ctx.Err()), Duration: elapsed}
				}
			}
			return &Result{ExitCode: code, Duration: elapsed}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to run %s: %w", spec.Path, err), Duration: elapsed}
	}

	return &Result{Duration: elapsed}
}

// signalExitCode maps a signal termination to the shell's 128+n status.
func signalExitCode(exitErr *exec.ExitError) ExitCode {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitCode(128 + int(ws.Signal()))
	}
	return 1
}
