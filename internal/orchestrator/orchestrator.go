package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wagiedev/agent-runner-go/internal/config"
	"github.com/wagiedev/agent-runner-go/internal/errors"
	"github.com/wagiedev/agent-runner-go/internal/runner"
	"github.com/wagiedev/agent-runner-go/internal/session"
	"github.com/wagiedev/agent-runner-go/internal/stream"
)

// ExecOptions carries per-call overrides for orchestrator-level execution.
type ExecOptions struct {
	// SessionID routes the call through a live session. Empty means direct
	// execution with process-wide defaults and no session bookkeeping.
	SessionID string

	session.ExecOptions
}

// Orchestrator owns the set of live sessions, enforces the concurrent-session
// ceiling, evicts idle sessions on a fixed interval, and is the single entry
// point for direct or session-scoped execution.
type Orchestrator struct {
	log    *slog.Logger
	opts   *config.Options
	runner *runner.Runner

	mu       sync.RWMutex
	sessions map[string]*session.Session
	closed   bool

	stopOnce  sync.Once
	stopEvict chan struct{}
	evictDone chan struct{}
}

// New creates a ready-to-use orchestrator from the given (normalized)
// options and starts its idle-eviction loop.
func New(log *slog.Logger, opts *config.Options) *Orchestrator {
	o := &Orchestrator{
		log:       log.With("component", "orchestrator"),
		opts:      opts,
		runner:    runner.New(log, opts),
		sessions:  make(map[string]*session.Session),
		stopEvict: make(chan struct{}),
		evictDone: make(chan struct{}),
	}

	go o.evictLoop()

	return o
}

// Runner exposes the underlying process runner for probe and registry
// operations.
func (o *Orchestrator) Runner() *runner.Runner {
	return o.runner
}

// CreateSession registers a new session under the given identifier, filling
// configuration defaults from the process-wide options. An empty identifier
// gets a generated one.
//
// Returns CapacityError when the session ceiling is reached and
// DuplicateSessionError when the identifier is in use by a live session.
func (o *Orchestrator) CreateSession(id string, cfg config.SessionConfig) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = o.opts.DefaultTimeout
	}

	if cfg.WorkingDir == "" {
		cfg.WorkingDir = o.opts.DefaultWorkingDir
	}

	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = o.opts.StreamBufferCapacity
	}

	if cfg.Streaming == nil {
		streaming := o.opts.Streaming
		cfg.Streaming = &streaming
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return "", errors.ErrOrchestratorClosed
	}

	if len(o.sessions) >= o.opts.MaxConcurrentSessions {
		return "", &errors.CapacityError{Limit: o.opts.MaxConcurrentSessions}
	}

	if _, exists := o.sessions[id]; exists {
		return "", &errors.DuplicateSessionError{ID: id}
	}

	o.sessions[id] = session.New(o.log, id, cfg, o.runner)

	o.log.Debug("Session created", "session_id", id, "live_sessions", len(o.sessions))

	return id, nil
}

// DestroySession destroys the session and removes it from the registry.
// Returns NotFoundError if no live session has that identifier.
func (o *Orchestrator) DestroySession(id string) error {
	o.mu.Lock()

	sess, ok := o.sessions[id]
	if ok {
		delete(o.sessions, id)
	}

	o.mu.Unlock()

	if !ok {
		return &errors.NotFoundError{Kind: "session", ID: id}
	}

	// Destroy outside the registry lock: it waits for in-flight executions
	// to drain, and lookups must not observe a session mid-destruction.
	sess.Destroy()

	o.log.Debug("Session destroyed", "session_id", id)

	return nil
}

// Execute runs the command, through a session when opts.SessionID is set,
// otherwise directly with process-wide defaults and no session bookkeeping.
func (o *Orchestrator) Execute(ctx context.Context, command runner.Command, opts *ExecOptions) (*runner.ExecutionResult, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	if opts != nil && opts.SessionID != "" {
		sess, err := o.lookup(opts.SessionID)
		if err != nil {
			return nil, err
		}

		return sess.Execute(ctx, command, &opts.ExecOptions)
	}

	return o.runner.Execute(ctx, o.applyDirectDefaults(command, opts))
}

// ExecuteStream is Execute's streaming counterpart. Raw subprocess output is
// sequenced through a stream aggregator before reaching onChunk, so the
// caller sees ordered, gapless chunks followed by a terminal chunk on
// success; on failure the aggregator reports the error instead and the call
// returns it.
func (o *Orchestrator) ExecuteStream(
	ctx context.Context,
	command runner.Command,
	onChunk func(stream.Chunk),
	opts *ExecOptions,
) (*runner.ExecutionResult, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	var sess *session.Session

	streamID := uuid.NewString()
	capacity := o.opts.StreamBufferCapacity

	if opts != nil && opts.SessionID != "" {
		var err error

		sess, err = o.lookup(opts.SessionID)
		if err != nil {
			return nil, err
		}

		streamID = opts.SessionID
		capacity = sess.Config().BufferCapacity
	}

	agg := stream.NewAggregator(o.log, streamID, capacity)
	if onChunk != nil {
		agg.OnChunk(onChunk)
	}

	push := func(data string) {
		_, _ = agg.PushChunk(data)
	}

	var result *runner.ExecutionResult

	var err error

	if sess != nil {
		result, err = sess.ExecuteStream(ctx, command, push, &opts.ExecOptions)
	} else {
		result, err = o.runner.ExecuteStream(ctx, o.applyDirectDefaults(command, opts), push)
	}

	if err != nil {
		agg.Fail(err)

		return nil, err
	}

	agg.Complete()

	return result, nil
}

// SessionStats returns the usage counters of a live session.
func (o *Orchestrator) SessionStats(id string) (session.Stats, error) {
	sess, err := o.lookup(id)
	if err != nil {
		return session.Stats{}, err
	}

	return sess.Stats(), nil
}

// UpdateSessionConfig merges a partial configuration change into a live
// session. It affects subsequent executions only.
func (o *Orchestrator) UpdateSessionConfig(id string, update config.SessionConfigUpdate) error {
	sess, err := o.lookup(id)
	if err != nil {
		return err
	}

	return sess.UpdateConfig(update)
}

// ActiveSessions returns the identifiers of currently active sessions.
func (o *Orchestrator) ActiveSessions() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0, len(o.sessions))

	for id, sess := range o.sessions {
		if sess.Active() {
			ids = append(ids, id)
		}
	}

	return ids
}

// Cleanup stops the idle-eviction loop, destroys every live session, then
// tears down the runner's remaining processes. Idempotent; intended for full
// shutdown.
func (o *Orchestrator) Cleanup() error {
	o.stopOnce.Do(func() {
		close(o.stopEvict)
	})

	<-o.evictDone

	o.mu.Lock()

	o.closed = true

	victims := make([]*session.Session, 0, len(o.sessions))
	for _, sess := range o.sessions {
		victims = append(victims, sess)
	}

	o.sessions = make(map[string]*session.Session)

	o.mu.Unlock()

	for _, sess := range victims {
		sess.Destroy()
	}

	o.log.Debug("Orchestrator cleaned up", "destroyed_sessions", len(victims))

	return o.runner.Cleanup()
}

func (o *Orchestrator) checkOpen() error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return errors.ErrOrchestratorClosed
	}

	return nil
}

func (o *Orchestrator) lookup(id string) (*session.Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	sess, ok := o.sessions[id]
	if !ok {
		return nil, &errors.NotFoundError{Kind: "session", ID: id}
	}

	return sess, nil
}

// applyDirectDefaults layers option overrides and process-wide defaults onto
// a command executed outside any session.
func (o *Orchestrator) applyDirectDefaults(command runner.Command, opts *ExecOptions) runner.Command {
	if opts != nil {
		if opts.Timeout > 0 {
			command.Timeout = opts.Timeout
		}

		if opts.WorkingDir != "" {
			command.WorkingDir = opts.WorkingDir
		}

		if len(opts.Env) > 0 {
			env := make(map[string]string, len(command.Env)+len(opts.Env))
			for k, v := range command.Env {
				env[k] = v
			}

			for k, v := range opts.Env {
				env[k] = v
			}

			command.Env = env
		}
	}

	// The runner applies DefaultTimeout and DefaultWorkingDir itself.
	return command
}

func (o *Orchestrator) evictLoop() {
	defer close(o.evictDone)

	ticker := time.NewTicker(o.opts.SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopEvict:
			return
		case <-ticker.C:
			o.evictIdle()
		}
	}
}

// evictIdle destroys and removes every active session idle past the
// configured threshold; sessions already inactive are removed without
// further action.
func (o *Orchestrator) evictIdle() {
	cutoff := time.Now().Add(-o.opts.MaxSessionIdleTime)

	o.mu.Lock()

	victims := make([]*session.Session, 0)

	for id, sess := range o.sessions {
		if !sess.Active() {
			delete(o.sessions, id)

			continue
		}

		if sess.LastActivity().Before(cutoff) {
			delete(o.sessions, id)
			victims = append(victims, sess)
		}
	}

	o.mu.Unlock()

	for _, sess := range victims {
		o.log.Debug("Evicting idle session", "session_id", sess.ID())
		sess.Destroy()
	}
}
