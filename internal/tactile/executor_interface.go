package tactile

import (
	"context"
)

// Executor is the interface for command execution.
// The campaign and build layers depend on it so tests can substitute a
// scripted executor for the real process.
type Executor interface {
	// Execute runs a command and returns a comprehensive result.
	// The returned error is reserved for invalid commands; everything that
	// happens once the process is started is reported in the result.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)

	// Validate checks if a command can be executed by this executor.
	Validate(cmd Command) error
}
