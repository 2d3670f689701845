package agentrunner

import (
	"log/slog"
	"time"

	"github.com/wagiedev/agent-runner-go/internal/config"
	"github.com/wagiedev/agent-runner-go/internal/orchestrator"
)

// Option configures a new Orchestrator using the functional options pattern.
type Option func(*config.Options)

// applyOptions applies functional options and fills in defaults.
func applyOptions(opts []Option) *config.Options {
	options := &config.Options{}

	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	return options.Normalize()
}

// WithLogger sets the slog logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(log *slog.Logger) Option {
	return func(o *config.Options) {
		o.Logger = log
	}
}

// WithToolName sets the wrapped tool's executable name used for availability
// and version probes. Defaults to "claude".
func WithToolName(name string) Option {
	return func(o *config.Options) {
		o.ToolName = name
	}
}

// WithToolPath sets an explicit path to the wrapped tool binary, skipping
// the PATH search.
func WithToolPath(path string) Option {
	return func(o *config.Options) {
		o.ToolPath = path
	}
}

// WithSkipVersionCheck disables the version probe during availability checks.
func WithSkipVersionCheck() Option {
	return func(o *config.Options) {
		o.SkipVersionCheck = true
	}
}

// WithDefaultTimeout sets the timeout applied to commands that carry none.
// Defaults to 30 seconds.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *config.Options) {
		o.DefaultTimeout = d
	}
}

// WithMaxConcurrentSessions caps the number of simultaneously live sessions.
// Defaults to 10.
func WithMaxConcurrentSessions(n int) Option {
	return func(o *config.Options) {
		o.MaxConcurrentSessions = n
	}
}

// WithDefaultWorkingDir sets the working directory for commands that do not
// set one. Defaults to the process working directory.
func WithDefaultWorkingDir(dir string) Option {
	return func(o *config.Options) {
		o.DefaultWorkingDir = dir
	}
}

// WithEnvironment provides environment variables for every subprocess,
// overridden by command-level entries.
func WithEnvironment(env map[string]string) Option {
	return func(o *config.Options) {
		o.Env = env
	}
}

// WithStreaming sets the default streaming enablement carried by new
// sessions. Defaults to off.
func WithStreaming(enabled bool) Option {
	return func(o *config.Options) {
		o.Streaming = enabled
	}
}

// WithStreamBufferCapacity bounds the most-recent-chunk buffer kept per
// stream. Defaults to 1024 entries.
func WithStreamBufferCapacity(n int) Option {
	return func(o *config.Options) {
		o.StreamBufferCapacity = n
	}
}

// WithSessionCleanupInterval sets the period of the idle-eviction ticker.
// Defaults to 60 seconds.
func WithSessionCleanupInterval(d time.Duration) Option {
	return func(o *config.Options) {
		o.SessionCleanupInterval = d
	}
}

// WithMaxSessionIdleTime sets the inactivity threshold past which idle
// eviction destroys a session. Defaults to 300 seconds.
func WithMaxSessionIdleTime(d time.Duration) Option {
	return func(o *config.Options) {
		o.MaxSessionIdleTime = d
	}
}

// WithStderr registers a callback receiving subprocess stderr fragments as
// they are read, on both blocking and streaming executions.
func WithStderr(fn func(string)) Option {
	return func(o *config.Options) {
		o.Stderr = fn
	}
}

// ExecOption configures a single Execute or ExecuteStream call.
type ExecOption func(*orchestrator.ExecOptions)

// applyExecOptions builds per-call options; returns nil when no options were
// given so the direct-execution fast path stays allocation free.
func applyExecOptions(opts []ExecOption) *orchestrator.ExecOptions {
	if len(opts) == 0 {
		return nil
	}

	options := &orchestrator.ExecOptions{}

	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	return options
}

// WithSession routes the call through the live session with the given
// identifier, applying its defaults and updating its statistics.
func WithSession(id string) ExecOption {
	return func(o *orchestrator.ExecOptions) {
		o.SessionID = id
	}
}

// WithTimeout overrides the command and session timeouts for this call.
func WithTimeout(d time.Duration) ExecOption {
	return func(o *orchestrator.ExecOptions) {
		o.Timeout = d
	}
}

// WithWorkingDir overrides the command and session working directories for
// this call.
func WithWorkingDir(dir string) ExecOption {
	return func(o *orchestrator.ExecOptions) {
		o.WorkingDir = dir
	}
}

// WithEnv merges environment overrides on top of session and command entries
// for this call.
func WithEnv(env map[string]string) ExecOption {
	return func(o *orchestrator.ExecOptions) {
		o.Env = env
	}
}
