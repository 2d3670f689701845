// Package errors defines error types for the agent runner.
//
// This package provides structured error types that wrap different failure
// scenarios when executing the wrapped tool as a subprocess. All error types
// support error unwrapping and can be checked using errors.Is and errors.As.
package errors
