// Package errors defines error types for the agent bridge.
//
// This package provides structured error types for each way a worker
// interaction can fail: spawning, writing a query, the worker reporting a
// failure, the output stream ending early, stopping, and lock acquisition.
// All error types support error unwrapping and can be checked using
// errors.Is, errors.As, and errors.AsType.
package errors
