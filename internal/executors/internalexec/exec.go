// Package internalexec wraps the host CLI invocations the executors make:
// streamed runs for mutating commands, captured output for probes.
package internalexec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Result captures stdout/stderr emitted by a streaming command run.
type Result struct {
	Stdout string
	Stderr string
}

// RunStreaming wires the command's stdout/stderr through to the parent
// process while collecting the output for later inspection.
func RunStreaming(cmd *exec.Cmd) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	if cmd.Stdout != nil {
		cmd.Stdout = io.MultiWriter(cmd.Stdout, &stdoutBuf)
	} else {
		cmd.Stdout = io.MultiWriter(os.Stdout, &stdoutBuf)
	}
	if cmd.Stderr != nil {
		cmd.Stderr = io.MultiWriter(cmd.Stderr, &stderrBuf)
	} else {
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderrBuf)
	}

	err := cmd.Run()

	return Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}, err
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}

// Run executes the command with streamed output, returning the primary
// output alongside any error.
func Run(ctx context.Context, name string, args ...string) (string, error) {
	res, err := RunStreaming(exec.CommandContext(ctx, name, args...))
	return PrimaryOutput(res), err
}

// Output executes the command quietly and returns trimmed stdout. Stderr
// is folded into the error on failure.
func Output(ctx context.Context, name string, args ...string) (string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderrBuf.String()); msg != "" {
			return "", &exitError{cause: err, stderr: msg}
		}
		return "", err
	}

	return strings.TrimSpace(stdoutBuf.String()), nil
}

type exitError struct {
	cause  error
	stderr string
}

func (e *exitError) Error() string {
	return e.cause.Error() + ": " + e.stderr
}

func (e *exitError) Unwrap() error {
	return e.cause
}
