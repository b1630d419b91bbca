// Package run executes external commands with timeout and working-directory
// control. Ordinary command failure (non-zero exit, timeout) is reported in
// the Result, never as an error; an error return means the command could not
// be started at all.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Runner errors.
var (
	// ErrSpawnFailed indicates the command could not be started.
	ErrSpawnFailed = errors.New("command could not be started")
)

// DefaultTimeout bounds commands that do not specify their own.
const DefaultTimeout = 5 * time.Minute

// Options controls a single command execution.
type Options struct {
	// Timeout is the execution ceiling. Zero means DefaultTimeout.
	Timeout time.Duration
	// Cwd is the working directory. Empty means the process default.
	Cwd string
	// CommandName labels the command in logs and progress updates.
	CommandName string
	// ProgressReporter, if set, receives start/finish updates.
	ProgressReporter func(message string)
}

// Result describes a finished command.
type Result struct {
	ExitCode int
	Signal   string
	Stdout   string
	Stderr   string
	Success  bool
	Duration time.Duration
}

// CommandRunner executes external commands. Implementations return an error
// only for environment-level failures (missing binary, spawn failure);
// command failure is surfaced via Result.Success.
type CommandRunner interface {
	Execute(ctx context.Context, command string, args []string, opts Options) (Result, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// ExecOption configures an ExecRunner.
type ExecOption func(*ExecRunner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) ExecOption {
	return func(r *ExecRunner) { r.logger = l }
}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner(opts ...ExecOption) *ExecRunner {
	r := &ExecRunner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs the command and waits for it to finish or time out. A timed
// out command is killed and reported as Success=false with the signal set.
func (r *ExecRunner) Execute(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name := opts.CommandName
	if name == "" {
		name = command
	}
	report(opts, fmt.Sprintf("running %s", name))
	r.logger.Debug("executing command", "name", name, "command", command, "args", args)

	cmd := exec.CommandContext(runCtx, command, args...)
	if opts.Cwd != "" {
		cmd.Dir = opts.Cwd
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, command, err)
	}
	err := cmd.Wait()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		result.Success = true
	case runCtx.Err() == context.DeadlineExceeded:
		result.ExitCode = -1
		result.Signal = "SIGKILL"
		result.Stderr = appendLine(result.Stderr, fmt.Sprintf("%s timed out after %s", name, timeout))
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			if ws, ok := exitErr.Sys().(interface{ Signaled() bool }); ok && ws.Signaled() {
				result.Signal = exitErr.ProcessState.String()
			}
		} else {
			result.ExitCode = -1
		}
	}

	report(opts, fmt.Sprintf("%s finished in %s", name, result.Duration.Round(time.Millisecond)))
	r.logger.Debug("command finished",
		"name", name, "success", result.Success, "exitCode", result.ExitCode, "duration", result.Duration)
	return result, nil
}

func report(opts Options, msg string) {
	if opts.ProgressReporter != nil {
		opts.ProgressReporter(msg)
	}
}

func appendLine(s, line string) string {
	if s == "" {
		return line
	}
	return s + "\n" + line
}
