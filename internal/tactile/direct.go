package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"expharness/internal/logging"
)

// DirectExecutor executes commands directly on the host using os/exec.
type DirectExecutor struct {
	config ExecutorConfig
}

// NewDirectExecutor creates a new direct executor with default config.
func NewDirectExecutor() *DirectExecutor {
	return NewDirectExecutorWithConfig(DefaultExecutorConfig())
}

// NewDirectExecutorWithConfig creates a new direct executor with custom config.
func NewDirectExecutorWithConfig(config ExecutorConfig) *DirectExecutor {
	logging.RunnerDebug("Creating DirectExecutor: workdir=%s, maxOutput=%d bytes",
		config.DefaultWorkingDir, config.MaxOutputBytes)
	return &DirectExecutor{config: config}
}

// Validate checks if a command can be executed.
func (e *DirectExecutor) Validate(cmd Command) error {
	if cmd.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	return nil
}

// Execute runs a command directly on the host.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if err := e.Validate(cmd); err != nil {
		return nil, err
	}
	cmd = e.config.Merge(cmd)

	logging.RunnerDebug("Executing: %s (dir=%s, timeout=%dms)",
		cmd.CommandString(), cmd.WorkingDirectory, cmd.Limits.TimeoutMs)

	result := &ExecutionResult{
		ExitCode: -1,
		Command:  &cmd,
	}

	execCtx := ctx
	if cmd.Limits.TimeoutMs > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, time.Duration(cmd.Limits.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	if cmd.Environment != nil {
		execCmd.Env = cmd.Environment
	}

	// The combined buffer is shared by the stdout and stderr copy goroutines.
	maxOutput := cmd.Limits.MaxOutputBytes
	var stdoutBuf, stderrBuf, combinedBuf bytes.Buffer
	combined := &lockedWriter{w: &limitedWriter{w: &combinedBuf, max: maxOutput * 2}}
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: maxOutput}
	execCmd.Stdout = io.MultiWriter(stdoutLimited, combined)
	execCmd.Stderr = io.MultiWriter(stderrLimited, combined)

	result.StartedAt = time.Now()
	err := execCmd.Run()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()
	result.Combined = combinedBuf.String()

	if stdoutLimited.truncated || stderrLimited.truncated {
		result.Truncated = true
		result.TruncatedBytes = stdoutLimited.discarded + stderrLimited.discarded
		logging.RunnerWarn("Command output truncated: %d bytes discarded", result.TruncatedBytes)
	}

	if err == nil {
		result.Success = true
		result.ExitCode = 0
		logging.RunnerDebug("Command completed: %s -> exit=0, duration=%s, output=%d bytes",
			cmd.Binary, result.Duration, len(result.Combined))
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		result.Success = true
		result.Killed = true
		result.KillReason = fmt.Sprintf("timeout after %dms", cmd.Limits.TimeoutMs)
		logging.RunnerWarn("Command killed (timeout): %s", cmd.Binary)
	case errors.Is(execCtx.Err(), context.Canceled):
		result.Success = true
		result.Killed = true
		result.KillReason = "context canceled"
		logging.RunnerDebug("Command canceled: %s", cmd.Binary)
	case errors.As(err, &exitErr):
		result.Success = true
		result.ExitCode = exitErr.ExitCode()
		logging.RunnerDebug("Command exited non-zero: %s -> %d", cmd.Binary, result.ExitCode)
	default:
		result.Success = false
		result.Error = err.Error()
		logging.RunnerWarn("Command failed to run: %s - %v", cmd.Binary, err)
	}
	return result, nil
}

// lockedWriter serializes writes from concurrent copy goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// limitedWriter is an io.Writer that limits total bytes written.
// A non-positive max disables the limit.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.max <= 0 {
		written, err := lw.w.Write(p)
		lw.written += int64(written)
		return written, err
	}

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
