package errors

import (
	"errors"
	"fmt"
	"time"
)

// RunnerError is the base interface for all runner errors.
type RunnerError interface {
	error
	IsRunnerError() bool
}

// Compile-time verification that all error types implement RunnerError.
var (
	_ RunnerError = (*ToolNotFoundError)(nil)
	_ RunnerError = (*SpawnError)(nil)
	_ RunnerError = (*TimeoutError)(nil)
	_ RunnerError = (*ProcessError)(nil)
	_ RunnerError = (*NotFoundError)(nil)
	_ RunnerError = (*DuplicateSessionError)(nil)
	_ RunnerError = (*CapacityError)(nil)
	_ RunnerError = (*InactiveSessionError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrOrchestratorClosed indicates the orchestrator has been cleaned up
	// and cannot accept further operations.
	ErrOrchestratorClosed = errors.New("orchestrator closed")

	// ErrEmptyExecutable indicates a command was submitted without an executable name.
	ErrEmptyExecutable = errors.New("command executable is empty")

	// ErrStreamCompleted indicates a chunk was pushed to an already-completed stream.
	ErrStreamCompleted = errors.New("stream already completed")
)

// ToolNotFoundError indicates the wrapped tool binary was not found.
type ToolNotFoundError struct {
	Tool          string
	SearchedPaths []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s binary not found in: %v", e.Tool, e.SearchedPaths)
}

// IsRunnerError implements RunnerError.
func (e *ToolNotFoundError) IsRunnerError() bool { return true }

// SpawnError indicates the operating system refused to create a subprocess,
// or the executable could not be located.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %q: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsRunnerError implements RunnerError.
func (e *SpawnError) IsRunnerError() bool { return true }

// TimeoutError indicates an execution exceeded its configured timeout and
// the subprocess was terminated. Partial output is discarded, not carried.
type TimeoutError struct {
	Executable string
	Timeout    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%q timed out after %s", e.Executable, e.Timeout)
}

// IsRunnerError implements RunnerError.
func (e *TimeoutError) IsRunnerError() bool { return true }

// ProcessError indicates a subprocess terminated abnormally at the OS level,
// for example when a kill during cleanup fails. A plain non-zero exit code is
// not a ProcessError: it is reported through ExecutionResult.ExitCode.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsRunnerError implements RunnerError.
func (e *ProcessError) IsRunnerError() bool { return true }

// NotFoundError indicates a session or process identifier is not currently
// registered.
type NotFoundError struct {
	Kind string // "session" or "process"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsRunnerError implements RunnerError.
func (e *NotFoundError) IsRunnerError() bool { return true }

// DuplicateSessionError indicates a session identifier is already in use by a
// live session.
type DuplicateSessionError struct {
	ID string
}

func (e *DuplicateSessionError) Error() string {
	return fmt.Sprintf("session %q already exists", e.ID)
}

// IsRunnerError implements RunnerError.
func (e *DuplicateSessionError) IsRunnerError() bool { return true }

// CapacityError indicates the concurrent-session ceiling has been reached.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("maximum concurrent sessions reached (%d)", e.Limit)
}

// IsRunnerError implements RunnerError.
func (e *CapacityError) IsRunnerError() bool { return true }

// InactiveSessionError indicates an execution was routed to a destroyed session.
type InactiveSessionError struct {
	ID string
}

func (e *InactiveSessionError) Error() string {
	return fmt.Sprintf("session %q is inactive", e.ID)
}

// IsRunnerError implements RunnerError.
func (e *InactiveSessionError) IsRunnerError() bool { return true }
