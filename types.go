package agentrunner

import (
	"github.com/wagiedev/agent-runner-go/internal/config"
	"github.com/wagiedev/agent-runner-go/internal/runner"
	"github.com/wagiedev/agent-runner-go/internal/session"
	"github.com/wagiedev/agent-runner-go/internal/stream"
)

// Command is one execution request: executable, arguments, and optional
// working directory, environment overrides, and timeout. Immutable once
// submitted.
type Command = runner.Command

// ExecutionResult is the outcome of one completed command.
type ExecutionResult = runner.ExecutionResult

// ProcessHandle represents a live subprocess registered with the runner.
type ProcessHandle = runner.Handle

// StreamChunk is one ordered fragment of a stream's output.
type StreamChunk = stream.Chunk

// StreamSummary describes a finished stream to completion and error observers.
type StreamSummary = stream.Summary

// StreamStats is a point-in-time snapshot of a stream's state.
type StreamStats = stream.Stats

// SessionConfig is the persistent execution context bound to one session.
type SessionConfig = config.SessionConfig

// SessionConfigUpdate carries a partial session configuration change.
// Nil fields are left untouched.
type SessionConfigUpdate = config.SessionConfigUpdate

// SessionStats is a snapshot of a session's usage counters.
type SessionStats = session.Stats
