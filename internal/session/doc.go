// Package session implements long-lived execution contexts that bind a
// working directory, environment, and timeout across multiple commands and
// track per-session usage statistics.
package session
