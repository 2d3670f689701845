package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wagiedev/agent-runner-go/internal/config"
	"github.com/wagiedev/agent-runner-go/internal/errors"
	"github.com/wagiedev/agent-runner-go/internal/runner"
)

// ExecOptions carries per-call overrides. Explicit option fields take
// precedence over command fields, which take precedence over session
// defaults.
type ExecOptions struct {
	// Timeout overrides both the command timeout and the session default.
	Timeout time.Duration

	// WorkingDir overrides both the command working directory and the
	// session default.
	WorkingDir string

	// Env entries are merged on top of session and command entries.
	Env map[string]string
}

// Stats is a snapshot of a session's usage counters.
type Stats struct {
	// Executions is the number of commands routed through the session,
	// regardless of success or failure.
	Executions int

	// TotalDuration is the cumulative wall-clock duration of completed
	// executions.
	TotalDuration time.Duration

	// AverageDuration is TotalDuration divided by Executions, 0 when the
	// session has not executed anything yet.
	AverageDuration time.Duration

	// LastExecutedAt is the time of the most recent execution, zero if none.
	LastExecutedAt time.Time
}

// Session binds a persistent working directory, environment, and timeout to
// every command routed through it, and tracks per-session usage statistics.
//
// The lifecycle lock serializes executions against destruction: executions
// hold it shared for their full duration, Destroy takes it exclusively, so a
// session is never torn down mid-execution.
type Session struct {
	id     string
	log    *slog.Logger
	runner *runner.Runner

	lifecycle sync.RWMutex
	active    bool

	mu           sync.Mutex
	cfg          config.SessionConfig
	createdAt    time.Time
	lastActivity time.Time
	executions   int
	totalElapsed time.Duration
}

// New creates an active session with the given configuration. The
// configuration is expected to have its defaults already filled in by the
// orchestrator.
func New(log *slog.Logger, id string, cfg config.SessionConfig, r *runner.Runner) *Session {
	now := time.Now()

	return &Session{
		id:           id,
		log:          log.With("component", "session", "session_id", id),
		runner:       r,
		active:       true,
		cfg:          cfg,
		createdAt:    now,
		lastActivity: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Active reports whether the session still accepts executions.
func (s *Session) Active() bool {
	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()

	return s.active
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createdAt
}

// LastActivity returns the time of the most recent execution attempt, or the
// creation time if nothing has been executed.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActivity
}

// Config returns a copy of the session's current configuration.
func (s *Session) Config() config.SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cfg
}

// Execute applies the session context to the command and delegates to the
// runner, updating activity and counters regardless of the outcome.
// Returns InactiveSessionError if the session has been destroyed.
func (s *Session) Execute(ctx context.Context, command runner.Command, opts *ExecOptions) (*runner.ExecutionResult, error) {
	return s.execute(ctx, command, opts, nil)
}

// ExecuteStream is Execute with the runner's streaming delegate.
func (s *Session) ExecuteStream(
	ctx context.Context,
	command runner.Command,
	onChunk runner.ChunkFunc,
	opts *ExecOptions,
) (*runner.ExecutionResult, error) {
	return s.execute(ctx, command, opts, onChunk)
}

func (s *Session) execute(
	ctx context.Context,
	command runner.Command,
	opts *ExecOptions,
	onChunk runner.ChunkFunc,
) (*runner.ExecutionResult, error) {
	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()

	if !s.active {
		return nil, &errors.InactiveSessionError{ID: s.id}
	}

	merged := s.mergeCommand(command, opts)

	s.log.Debug("Executing command through session",
		"executable", merged.Executable,
		"timeout", merged.Timeout,
	)

	start := time.Now()

	var result *runner.ExecutionResult

	var err error

	if onChunk != nil {
		result, err = s.runner.ExecuteStream(ctx, merged, onChunk)
	} else {
		result, err = s.runner.Execute(ctx, merged)
	}

	s.recordExecution(result, time.Since(start))

	return result, err
}

// mergeCommand resolves the effective command: option > command field >
// session default.
func (s *Session) mergeCommand(command runner.Command, opts *ExecOptions) runner.Command {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	if command.Timeout <= 0 {
		command.Timeout = cfg.Timeout
	}

	if command.WorkingDir == "" {
		command.WorkingDir = cfg.WorkingDir
	}

	if len(cfg.Env) > 0 {
		env := make(map[string]string, len(cfg.Env)+len(command.Env))
		for k, v := range cfg.Env {
			env[k] = v
		}

		for k, v := range command.Env {
			env[k] = v
		}

		command.Env = env
	}

	if opts == nil {
		return command
	}

	if opts.Timeout > 0 {
		command.Timeout = opts.Timeout
	}

	if opts.WorkingDir != "" {
		command.WorkingDir = opts.WorkingDir
	}

	if len(opts.Env) > 0 {
		if command.Env == nil {
			command.Env = make(map[string]string, len(opts.Env))
		}

		for k, v := range opts.Env {
			command.Env[k] = v
		}
	}

	return command
}

// recordExecution updates counters for every attempt, successful or not.
func (s *Session) recordExecution(result *runner.ExecutionResult, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions++
	s.lastActivity = time.Now()

	if result != nil {
		s.totalElapsed += result.Duration
	} else {
		s.totalElapsed += elapsed
	}
}

// UpdateConfig merges the given partial update into the live configuration.
// It affects subsequent executions only, not ones in flight.
func (s *Session) UpdateConfig(update config.SessionConfigUpdate) error {
	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()

	if !s.active {
		return &errors.InactiveSessionError{ID: s.id}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if update.WorkingDir != nil {
		s.cfg.WorkingDir = *update.WorkingDir
	}

	if update.Timeout != nil {
		s.cfg.Timeout = *update.Timeout
	}

	if update.Streaming != nil {
		streaming := *update.Streaming
		s.cfg.Streaming = &streaming
	}

	if update.BufferCapacity != nil {
		s.cfg.BufferCapacity = *update.BufferCapacity
	}

	if len(update.Env) > 0 {
		if s.cfg.Env == nil {
			s.cfg.Env = make(map[string]string, len(update.Env))
		}

		for k, v := range update.Env {
			s.cfg.Env[k] = v
		}
	}

	s.log.Debug("Session configuration updated")

	return nil
}

// Destroy marks the session inactive. Idempotent. It waits for in-flight
// executions to drain but does not kill their subprocesses; that is the
// runner's concern during full shutdown.
func (s *Session) Destroy() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.active {
		return
	}

	s.active = false
	s.log.Debug("Session destroyed")
}

// Stats returns a snapshot of the session's usage counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Executions:    s.executions,
		TotalDuration: s.totalElapsed,
	}

	if s.executions > 0 {
		stats.AverageDuration = s.totalElapsed / time.Duration(s.executions)
		stats.LastExecutedAt = s.lastActivity
	}

	return stats
}
