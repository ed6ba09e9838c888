package config

import (
	"context"
	"time"
)

// Worker is one running worker process as seen by the bridge.
//
// The default implementation is subprocess.Process. Custom implementations
// can be injected through Options.Spawner for testing.
type Worker interface {
	// Pid returns the operating system process id, or 0 if unknown.
	Pid() int

	// Write sends data to the worker's stdin.
	// A trailing newline is appended if missing.
	Write(ctx context.Context, data []byte) error

	// Lines yields the worker's stdout one line at a time.
	// The channel is closed when stdout reaches EOF.
	Lines() <-chan []byte

	// Exited reports whether the process has terminated.
	Exited() bool

	// Stderr returns the buffered stderr output for diagnostics.
	Stderr() string

	// Terminate asks the worker to exit, escalating to a kill after grace,
	// and blocks until exit is confirmed or the escalation also times out.
	Terminate(ctx context.Context, grace time.Duration) error
}

// Spawner starts worker processes.
type Spawner interface {
	Spawn(ctx context.Context, options *Options) (Worker, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func(ctx context.Context, options *Options) (Worker, error)

// Spawn implements Spawner.
func (f SpawnerFunc) Spawn(ctx context.Context, options *Options) (Worker, error) {
	return f(ctx, options)
}

// Notifier receives named, fire-and-forget notifications.
// Implementations must not block for long; delivery failures are ignored.
type Notifier interface {
	Notify(name string, payload any)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(name string, payload any)

// Notify implements Notifier.
func (f NotifierFunc) Notify(name string, payload any) {
	f(name, payload)
}
