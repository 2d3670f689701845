package agentrunner

import "github.com/wagiedev/agent-runner-go/internal/errors"

// Re-export error types from internal package

// RunnerError is the base interface for all runner errors.
type RunnerError = errors.RunnerError

// ToolNotFoundError indicates the wrapped tool binary was not found.
type ToolNotFoundError = errors.ToolNotFoundError

// SpawnError indicates a subprocess could not be created.
type SpawnError = errors.SpawnError

// TimeoutError indicates an execution exceeded its timeout and was killed.
type TimeoutError = errors.TimeoutError

// ProcessError indicates a subprocess terminated abnormally at the OS level.
// A plain non-zero exit code is reported through ExecutionResult.ExitCode,
// not as a ProcessError.
type ProcessError = errors.ProcessError

// NotFoundError indicates an unknown session or process identifier.
type NotFoundError = errors.NotFoundError

// DuplicateSessionError indicates a session identifier is already in use.
type DuplicateSessionError = errors.DuplicateSessionError

// CapacityError indicates the concurrent-session ceiling has been reached.
type CapacityError = errors.CapacityError

// InactiveSessionError indicates an execution was routed to a destroyed session.
type InactiveSessionError = errors.InactiveSessionError

// Re-export sentinel errors from internal package.
var (
	// ErrOrchestratorClosed indicates the orchestrator has been cleaned up.
	ErrOrchestratorClosed = errors.ErrOrchestratorClosed

	// ErrEmptyExecutable indicates a command without an executable name.
	ErrEmptyExecutable = errors.ErrEmptyExecutable

	// ErrStreamCompleted indicates a push to an already-finished stream.
	ErrStreamCompleted = errors.ErrStreamCompleted
)
