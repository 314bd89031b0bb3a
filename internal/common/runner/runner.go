// Package runner executes external programs (conan, git) behind a mockable
// interface, with one timeout per call.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	ErrCommandFailed = errors.New("command failed")
	ErrTimeout       = errors.New("command timed out")
)

// Result holds the captured output of one invocation
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs a single external program with varying arguments.
// This interface allows for mocking external tools in tests.
type Executor interface {
	// Run executes the program with args and waits for it to exit.
	// A non-zero exit is an error wrapping ErrCommandFailed; the Result is
	// still returned so callers can inspect the output.
	Run(ctx context.Context, args ...string) (*Result, error)

	// Program returns the executable name or path
	Program() string
}

// CommandRunner executes a program in a specific working directory
type CommandRunner struct {
	program string
	workDir string
	timeout time.Duration
}

// NewCommandRunner creates a CommandRunner. A zero timeout means the call is
// bounded only by the caller's context.
func NewCommandRunner(program, workDir string, timeout time.Duration) *CommandRunner {
	return &CommandRunner{
		program: program,
		workDir: workDir,
		timeout: timeout,
	}
}

// Program returns the executable name or path
func (r *CommandRunner) Program() string {
	return r.program
}

// WorkDir returns the working directory commands run in
func (r *CommandRunner) WorkDir() string {
	return r.workDir
}

// Timeout returns the per-call timeout
func (r *CommandRunner) Timeout() time.Duration {
	return r.timeout
}

// Run executes the program and returns its captured output
func (r *CommandRunner) Run(ctx context.Context, args ...string) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.program, args...)
	cmd.Dir = r.workDir
	// Children that inherited the pipes must not keep Run blocked past the deadline
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	result := &Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return result, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%w: %s after %s", ErrTimeout, CommandLine(r.program, args...), r.timeout)
	}

	detail := strings.TrimSpace(result.Stderr)
	if detail == "" {
		detail = err.Error()
	}
	return result, errors.Join(ErrCommandFailed, fmt.Errorf("%s: %s", CommandLine(r.program, args...), detail))
}

// CommandLine renders a program invocation for diagnostics
func CommandLine(program string, args ...string) string {
	if len(args) == 0 {
		return program
	}
	return program + " " + strings.Join(args, " ")
}
