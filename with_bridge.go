package agentbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/wagiedev/agentbridge-go/internal/config"
)

// WithBridge manages bridge lifecycle with automatic cleanup.
//
// This helper creates a bridge, starts its worker, executes the callback
// and always shuts the bridge down afterwards, stopping the worker.
//
// Example usage:
//
//	err := agentbridge.WithBridge(ctx, func(b agentbridge.Bridge) error {
//	    resp := b.SendQuery(ctx, "Hello", true)
//	    if !resp.Success {
//	        return errors.New(resp.Error)
//	    }
//	    fmt.Println(resp.Response)
//	    return nil
//	},
//	    agentbridge.WithLogger(log),
//	)
func WithBridge(ctx context.Context, fn func(Bridge) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	b := New(opts...)
	defer shutdownWithin(ctx, b, options.StopTimeout)

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	return fn(b)
}

// shutdownWithin shuts b down, giving an in-flight query at most timeout
// (the default stop timeout when zero) before the worker is terminated.
func shutdownWithin(ctx context.Context, b Bridge, timeout time.Duration) {
	if timeout <= 0 {
		timeout = config.DefaultStopTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	b.Shutdown(shutdownCtx)
}
