// Package orchestrator owns the session registry and is the routing layer
// between callers and the process runner.
//
// It enforces the concurrent-session ceiling, runs idle-session eviction on
// a fixed interval, wires stream aggregators into streaming executions, and
// tears everything down on cleanup. The session registry is the package's
// only shared mutable state and is guarded for concurrent create, destroy,
// and lookup; a lookup never observes a session mid-destruction.
package orchestrator
