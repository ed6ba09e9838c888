package errors

import (
	"errors"
	"fmt"
)

// BridgeError is the base interface for all bridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*WorkerNotFoundError)(nil)
	_ BridgeError = (*SpawnError)(nil)
	_ BridgeError = (*WriteError)(nil)
	_ BridgeError = (*AgentError)(nil)
	_ BridgeError = (*NoResponseError)(nil)
	_ BridgeError = (*StopError)(nil)
	_ BridgeError = (*LockError)(nil)
	_ BridgeError = (*MessageParseError)(nil)
	_ BridgeError = (*JSONDecodeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotRunning indicates no worker process is running.
	ErrNotRunning = errors.New("worker not running")

	// ErrNoResponse indicates the worker produced no terminal message for a query.
	ErrNoResponse = errors.New("no response from worker")

	// ErrStdinClosed indicates the worker's stdin has been closed.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrShutdown indicates the bridge has been shut down and cannot be reused.
	ErrShutdown = errors.New("bridge shut down")
)

// WorkerNotFoundError indicates the worker executable could not be located.
type WorkerNotFoundError struct {
	SearchedPaths []string
}

func (e *WorkerNotFoundError) Error() string {
	return fmt.Sprintf("worker executable not found in: %v", e.SearchedPaths)
}

// IsBridgeError implements BridgeError.
func (e *WorkerNotFoundError) IsBridgeError() bool { return true }

// SpawnError indicates the worker process could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to spawn worker: %v", e.Err)
	}

	return fmt.Sprintf("failed to spawn worker %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *SpawnError) IsBridgeError() bool { return true }

// WriteError indicates a query could not be written to the worker's stdin.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write query to worker: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *WriteError) IsBridgeError() bool { return true }

// AgentError indicates the worker explicitly reported an error for a query.
type AgentError struct {
	Message string
}

func (e *AgentError) Error() string {
	return "agent error: " + e.Message
}

// IsBridgeError implements BridgeError.
func (e *AgentError) IsBridgeError() bool { return true }

// NoResponseError indicates the worker's output ended, or the wait was
// abandoned, before a terminal message arrived.
type NoResponseError struct {
	Reason string
	Stderr string
	Err    error
}

func (e *NoResponseError) Error() string {
	msg := "no response from worker"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}

	return msg
}

// Is reports ErrNoResponse as a match so callers can test the kind without
// a type assertion.
func (e *NoResponseError) Is(target error) bool {
	return target == ErrNoResponse
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *NoResponseError) IsBridgeError() bool { return true }

// StopError indicates the worker could not be terminated or its exit
// could not be confirmed.
type StopError struct {
	Pid int
	Err error
}

func (e *StopError) Error() string {
	return fmt.Sprintf("failed to stop worker (pid %d): %v", e.Pid, e.Err)
}

func (e *StopError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *StopError) IsBridgeError() bool { return true }

// LockError indicates the worker lock could not be acquired.
// The worker itself is unaffected.
type LockError struct {
	Err error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("failed to acquire worker lock: %v", e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *LockError) IsBridgeError() bool { return true }

// MessageParseError indicates a worker message had a recognized type but
// was missing a required field.
type MessageParseError struct {
	Message string
	Err     error
	Data    map[string]any
}

func (e *MessageParseError) Error() string {
	return fmt.Sprintf("failed to parse message: %v", e.Err)
}

func (e *MessageParseError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *MessageParseError) IsBridgeError() bool { return true }

// JSONDecodeError indicates a worker output line was not a JSON object.
// This error preserves the original raw data that failed to parse.
type JSONDecodeError struct {
	RawData string
	Err     error
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON from worker: %v", e.Err)
}

func (e *JSONDecodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *JSONDecodeError) IsBridgeError() bool { return true }
