package agentbridge

import (
	"log/slog"
	"maps"
	"time"
)

// Option configures a Bridge using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMode selects the default worker invocation.
func WithMode(mode Mode) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

// WithCommand overrides the worker executable, and the arguments when
// args are given.
func WithCommand(command string, args ...string) Option {
	return func(o *Options) {
		o.Command = command
		if args != nil {
			o.Args = append([]string{}, args...)
		}
	}
}

// WithArgs overrides the worker arguments. An empty call clears them.
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = append([]string{}, args...)
	}
}

// WithCwd sets the worker's working directory.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// ===== Environment =====

// WithEnv adds environment variables for the worker. Repeated calls merge.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithForwardEnv sets which parent environment variables are forwarded to
// the worker. Defaults to DELEGATION_ENCRYPTION_KEY.
func WithForwardEnv(names ...string) Option {
	return func(o *Options) {
		o.ForwardEnv = append([]string{}, names...)
	}
}

// ===== Configuration File =====

// WithFile applies settings loaded by LoadConfig. Options after it win.
func WithFile(file *ConfigFile) Option {
	return func(o *Options) {
		o.Mode = file.Mode
		o.Command = file.Command
		o.Cwd = file.Cwd
		o.QueryCacheTTL = file.QueryCacheTTL
		o.ResponseTimeout = file.ResponseTimeout
		o.StopTimeout = file.StopTimeout

		if file.Args != nil {
			o.Args = append([]string{}, file.Args...)
		}

		if file.ForwardEnv != nil {
			o.ForwardEnv = append([]string{}, file.ForwardEnv...)
		}

		if len(file.Env) > 0 {
			if o.Env == nil {
				o.Env = make(map[string]string, len(file.Env))
			}

			maps.Copy(o.Env, file.Env)
		}
	}
}

// ===== Observers =====

// WithNotifier sets the receiver of status and delegation notifications.
func WithNotifier(notifier Notifier) Option {
	return func(o *Options) {
		o.Notifier = notifier
	}
}

// WithStderr sets a callback invoked with each line the worker writes to stderr.
func WithStderr(callback func(string)) Option {
	return func(o *Options) {
		o.Stderr = callback
	}
}

// ===== Timing =====

// WithQueryCacheTTL sets how long successful answers are cached.
func WithQueryCacheTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.QueryCacheTTL = ttl
	}
}

// WithResponseTimeout bounds the wait for the worker's answer.
// A timed-out answer that arrives later is discarded.
func WithResponseTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ResponseTimeout = timeout
	}
}

// WithStopTimeout bounds each phase of stopping the worker.
func WithStopTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.StopTimeout = timeout
	}
}

// WithMaxLineSize sets the longest worker output line accepted.
func WithMaxLineSize(size int) Option {
	return func(o *Options) {
		o.MaxLineSize = size
	}
}

// ===== Testing =====

// WithSpawner replaces how worker processes are created.
func WithSpawner(spawner Spawner) Option {
	return func(o *Options) {
		o.Spawner = spawner
	}
}

// WithClock sets the clock used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}
