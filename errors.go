package agentbridge

import "github.com/wagiedev/agentbridge-go/internal/errors"

// Re-export error types from internal package

// BridgeError is the base interface for all bridge errors.
type BridgeError = errors.BridgeError

// WorkerNotFoundError indicates the worker executable was not found.
type WorkerNotFoundError = errors.WorkerNotFoundError

// SpawnError indicates the worker process could not be started.
type SpawnError = errors.SpawnError

// WriteError indicates a query could not be written to the worker.
type WriteError = errors.WriteError

// AgentError carries an error the worker reported for a query.
type AgentError = errors.AgentError

// NoResponseError indicates the worker produced no answer.
type NoResponseError = errors.NoResponseError

// StopError indicates the worker's exit could not be confirmed.
type StopError = errors.StopError

// LockError indicates waiting for the worker lock was abandoned.
type LockError = errors.LockError

// Re-export sentinel errors from internal package.
var (
	// ErrNotRunning indicates the worker is not running.
	ErrNotRunning = errors.ErrNotRunning

	// ErrNoResponse matches every NoResponseError.
	ErrNoResponse = errors.ErrNoResponse

	// ErrStdinClosed indicates the worker's stdin has been closed.
	ErrStdinClosed = errors.ErrStdinClosed

	// ErrShutdown indicates the bridge has been shut down.
	ErrShutdown = errors.ErrShutdown
)
