package config

import (
	"log/slog"
	"time"
)

// Defaults for the configuration surface. Callers override these through
// the public functional options.
const (
	// DefaultTimeout is the default per-execution timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxConcurrentSessions is the default ceiling on live sessions.
	DefaultMaxConcurrentSessions = 10

	// DefaultStreamBufferCapacity is the default bounded chunk-buffer size.
	DefaultStreamBufferCapacity = 1024

	// DefaultSessionCleanupInterval is how often idle eviction runs.
	DefaultSessionCleanupInterval = 60 * time.Second

	// DefaultMaxSessionIdleTime is how long a session may sit idle before
	// eviction destroys it.
	DefaultMaxSessionIdleTime = 300 * time.Second

	// DefaultToolName is the executable searched for when no explicit
	// tool path is configured.
	DefaultToolName = "claude"
)

// Options configures the behavior of the orchestrator and everything below it.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// ToolName is the wrapped tool's executable name, used for availability
	// and version probes. Defaults to "claude".
	ToolName string

	// ToolPath is the explicit path to the wrapped tool binary.
	// If empty, the binary is searched in PATH and common locations.
	ToolPath string

	// SkipVersionCheck skips the tool version probe during availability checks.
	SkipVersionCheck bool

	// DefaultTimeout applies to executions whose command carries no timeout.
	DefaultTimeout time.Duration

	// MaxConcurrentSessions caps the number of simultaneously live sessions.
	MaxConcurrentSessions int

	// DefaultWorkingDir is the working directory for commands that do not
	// set one. If empty, the process working directory is used.
	DefaultWorkingDir string

	// Env provides additional environment variables for every subprocess,
	// overridden by command-level entries.
	Env map[string]string

	// Streaming is the default streaming enablement for new sessions.
	Streaming bool

	// StreamBufferCapacity bounds the most-recent-chunk buffer kept per stream.
	StreamBufferCapacity int

	// SessionCleanupInterval is the period of the idle-eviction ticker.
	SessionCleanupInterval time.Duration

	// MaxSessionIdleTime is the inactivity threshold past which idle
	// eviction destroys a session.
	MaxSessionIdleTime time.Duration

	// Stderr, if set, receives each line of subprocess stderr as it is read.
	Stderr func(string)
}

// Normalize fills zero-valued fields with their defaults and returns the
// receiver for chaining. Safe to call on a nil receiver.
func (o *Options) Normalize() *Options {
	if o == nil {
		o = &Options{}
	}

	if o.ToolName == "" {
		o.ToolName = DefaultToolName
	}

	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = DefaultTimeout
	}

	if o.MaxConcurrentSessions <= 0 {
		o.MaxConcurrentSessions = DefaultMaxConcurrentSessions
	}

	if o.StreamBufferCapacity <= 0 {
		o.StreamBufferCapacity = DefaultStreamBufferCapacity
	}

	if o.SessionCleanupInterval <= 0 {
		o.SessionCleanupInterval = DefaultSessionCleanupInterval
	}

	if o.MaxSessionIdleTime <= 0 {
		o.MaxSessionIdleTime = DefaultMaxSessionIdleTime
	}

	return o
}

// SessionConfig is the persistent execution context bound to one session.
// Zero-valued fields inherit the process-wide defaults at session creation.
type SessionConfig struct {
	// WorkingDir is the working directory applied to commands routed
	// through the session when they do not set their own.
	WorkingDir string

	// Env is merged beneath command-level environment overrides.
	Env map[string]string

	// Timeout applies to commands with no timeout of their own.
	Timeout time.Duration

	// Streaming marks whether the session is intended for streaming use.
	// It is carried as configuration for callers; the execution path is
	// chosen by the method invoked. Nil inherits the process-wide default
	// at session creation, so an explicit false survives a default of true.
	Streaming *bool

	// BufferCapacity bounds the stream chunk buffer for this session's
	// streaming executions.
	BufferCapacity int
}

// SessionConfigUpdate carries a partial configuration change. Nil fields are
// left untouched.
type SessionConfigUpdate struct {
	WorkingDir     *string
	Env            map[string]string
	Timeout        *time.Duration
	Streaming      *bool
	BufferCapacity *int
}
