package agentrunner

import (
	"context"
	"os"

	"github.com/wagiedev/agent-runner-go/internal/orchestrator"
)

// orchestratorWrapper adapts the internal orchestrator to the public interface.
type orchestratorWrapper struct {
	impl *orchestrator.Orchestrator
}

// Compile-time check that *orchestratorWrapper implements Orchestrator.
var _ Orchestrator = (*orchestratorWrapper)(nil)

func newOrchestratorImpl(opts []Option) Orchestrator {
	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	return &orchestratorWrapper{impl: orchestrator.New(log, options)}
}

// CreateSession registers a new session under the given identifier.
func (w *orchestratorWrapper) CreateSession(id string, cfg SessionConfig) (string, error) {
	return w.impl.CreateSession(id, cfg)
}

// DestroySession destroys a session and removes it from the registry.
func (w *orchestratorWrapper) DestroySession(id string) error {
	return w.impl.DestroySession(id)
}

// Execute runs one command to completion.
func (w *orchestratorWrapper) Execute(ctx context.Context, command Command, opts ...ExecOption) (*ExecutionResult, error) {
	return w.impl.Execute(ctx, command, applyExecOptions(opts))
}

// ExecuteStream runs one command, streaming ordered chunks to onChunk.
func (w *orchestratorWrapper) ExecuteStream(
	ctx context.Context,
	command Command,
	onChunk func(StreamChunk),
	opts ...ExecOption,
) (*ExecutionResult, error) {
	// StreamChunk is an alias of stream.Chunk, so the callback passes through.
	return w.impl.ExecuteStream(ctx, command, onChunk, applyExecOptions(opts))
}

// ActiveSessions returns the identifiers of currently active sessions.
func (w *orchestratorWrapper) ActiveSessions() []string {
	return w.impl.ActiveSessions()
}

// SessionStats returns the usage counters of a live session.
func (w *orchestratorWrapper) SessionStats(id string) (SessionStats, error) {
	return w.impl.SessionStats(id)
}

// UpdateSessionConfig merges a partial configuration change into a live session.
func (w *orchestratorWrapper) UpdateSessionConfig(id string, update SessionConfigUpdate) error {
	return w.impl.UpdateSessionConfig(id, update)
}

// RunningProcesses returns a snapshot of live subprocess identifiers.
func (w *orchestratorWrapper) RunningProcesses() []string {
	return w.impl.Runner().RunningProcesses()
}

// KillProcess signals a registered live process and deregisters it.
func (w *orchestratorWrapper) KillProcess(id string, sig os.Signal) error {
	return w.impl.Runner().Kill(id, sig)
}

// IsAvailable reports whether the wrapped tool can be located and probed.
func (w *orchestratorWrapper) IsAvailable(ctx context.Context) bool {
	return w.impl.Runner().IsAvailable(ctx)
}

// Version probes the wrapped tool for its version string.
func (w *orchestratorWrapper) Version(ctx context.Context) (string, error) {
	return w.impl.Runner().Version(ctx)
}

// Cleanup stops idle eviction, destroys sessions, and kills remaining processes.
func (w *orchestratorWrapper) Cleanup() error {
	return w.impl.Cleanup()
}
