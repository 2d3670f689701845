// Package config holds the configuration surface shared by the runner,
// session, and orchestrator packages, along with its defaults.
package config
