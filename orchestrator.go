package agentrunner

import (
	"context"
	"os"
)

// Orchestrator is the single entry point for executing commands against the
// wrapped tool, directly or through long-lived sessions.
//
// It owns the set of live sessions, enforces the concurrent-session ceiling,
// evicts idle sessions on a fixed interval, and tears everything down on
// Cleanup. All operations return errors rather than panicking; a non-zero
// exit code from the subprocess is a successful ExecutionResult, not an error.
//
// Example usage:
//
//	o := agentrunner.New(
//	    agentrunner.WithLogger(slog.Default()),
//	    agentrunner.WithDefaultTimeout(10*time.Second),
//	)
//	defer o.Cleanup()
//
//	result, err := o.Execute(ctx, agentrunner.Command{
//	    Executable: "claude",
//	    Args:       []string{"-p", "What is 2+2?"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Stdout)
//
// Session-scoped execution binds a working directory, environment, and
// timeout across calls:
//
//	id, err := o.CreateSession("build", agentrunner.SessionConfig{
//	    WorkingDir: "/src/project",
//	})
//	result, err = o.Execute(ctx, cmd, agentrunner.WithSession(id))
type Orchestrator interface {
	// CreateSession registers a new session under the given identifier,
	// filling configuration defaults from the process-wide options. An
	// empty identifier gets a generated one.
	// Returns CapacityError when the session ceiling is reached and
	// DuplicateSessionError when the identifier is held by a live session.
	CreateSession(id string, cfg SessionConfig) (string, error)

	// DestroySession destroys a session and removes it from the registry,
	// waiting for its in-flight executions to drain first.
	// Returns NotFoundError if no live session has that identifier.
	DestroySession(id string) error

	// Execute runs one command to completion and returns its consolidated
	// result. With WithSession the call is routed through that session;
	// otherwise process-wide defaults apply and no session bookkeeping
	// happens. Returns TimeoutError if the effective timeout elapses first.
	Execute(ctx context.Context, command Command, opts ...ExecOption) (*ExecutionResult, error)

	// ExecuteStream is Execute's streaming counterpart: onChunk receives
	// ordered, gapless chunks as output arrives, followed by a terminal
	// chunk on success. A call that times out stops delivering chunks and
	// returns a TimeoutError, never a success with partial data.
	ExecuteStream(ctx context.Context, command Command, onChunk func(StreamChunk), opts ...ExecOption) (*ExecutionResult, error)

	// ActiveSessions returns the identifiers of currently active sessions.
	ActiveSessions() []string

	// SessionStats returns the usage counters of a live session.
	SessionStats(id string) (SessionStats, error)

	// UpdateSessionConfig merges a partial configuration change into a live
	// session. It affects subsequent executions only, not ones in flight.
	UpdateSessionConfig(id string, update SessionConfigUpdate) error

	// RunningProcesses returns a snapshot of live subprocess identifiers.
	RunningProcesses() []string

	// KillProcess signals a registered live process and deregisters it.
	// Returns NotFoundError if the identifier is not currently registered.
	KillProcess(id string, sig os.Signal) error

	// IsAvailable reports whether the wrapped tool can be located and
	// probed. It never blocks longer than a short internal probe timeout.
	IsAvailable(ctx context.Context) bool

	// Version probes the wrapped tool for its version string.
	Version(ctx context.Context) (string, error)

	// Cleanup stops idle eviction, destroys every live session, and kills
	// any remaining subprocess. Idempotent; intended for full shutdown.
	Cleanup() error
}

// New creates a ready-to-use Orchestrator from a partial configuration.
// Unset options fall back to their documented defaults.
func New(opts ...Option) Orchestrator {
	return newOrchestratorImpl(opts)
}
