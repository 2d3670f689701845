// Package runner spawns and supervises one subprocess per command.
//
// It captures stdout and stderr concurrently, enforces per-execution
// timeouts as a single race between process exit and a timer, and keeps a
// registry of live processes so they can be signalled individually or torn
// down together during shutdown. In streaming mode every stdout read is
// additionally forwarded to a caller-supplied callback while still being
// accumulated for the final result.
package runner
