// Package config provides configuration types for the agent bridge.
package config

import (
	"log/slog"
	"time"
)

// Mode selects how the worker is invoked.
type Mode string

const (
	// ModeDevelopment runs the worker from a source checkout through uv.
	ModeDevelopment Mode = "development"
	// ModeProduction runs the worker with the system Python interpreter.
	ModeProduction Mode = "production"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeDevelopment || m == ModeProduction
}

// DelegationKeyEnv is the secret forwarded to the worker when present.
const DelegationKeyEnv = "DELEGATION_ENCRYPTION_KEY"

// Defaults applied when the corresponding option is zero.
const (
	DefaultStopTimeout     = 5 * time.Second
	DefaultMaxLineSize     = 1024 * 1024 // 1MB
	DefaultCleanupInterval = time.Minute
)

// Options configures the bridge, its worker and its query cache.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Mode selects the default worker invocation.
	// Empty means ModeProduction.
	Mode Mode

	// Command overrides the executable chosen by Mode.
	Command string

	// Args overrides the arguments chosen by Mode. Only used when non-nil.
	Args []string

	// Cwd sets the working directory for the worker process.
	// If empty, the current working directory is used.
	Cwd string

	// Env provides additional environment variables for the worker.
	Env map[string]string

	// ForwardEnv lists parent environment variables copied to the worker
	// when set. If nil, only DelegationKeyEnv is forwarded.
	ForwardEnv []string

	// Stderr is called with every line the worker writes to stderr.
	Stderr func(string)

	// Notifier receives non-terminal worker messages.
	// If nil, notifications are dropped.
	Notifier Notifier

	// QueryCacheTTL is the lifetime of cached query responses.
	// Zero uses the cache package default.
	QueryCacheTTL time.Duration

	// ResponseTimeout bounds the wait for a terminal message.
	// Zero waits until the worker answers or exits.
	ResponseTimeout time.Duration

	// StopTimeout bounds each phase of stopping the worker
	// (graceful signal, then kill). Zero uses DefaultStopTimeout.
	StopTimeout time.Duration

	// MaxLineSize is the longest worker output line accepted.
	// Zero uses DefaultMaxLineSize.
	MaxLineSize int

	// Spawner creates worker processes. If nil, a subprocess spawner is used.
	Spawner Spawner

	// Now is the clock used by the query cache. If nil, time.Now is used.
	Now func() time.Time
}
