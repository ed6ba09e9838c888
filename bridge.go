package agentbridge

import (
	"context"
	"time"

	"github.com/wagiedev/agentbridge-go/internal/client"
)

// Bridge is the caller-facing API of the agent bridge.
//
// All methods are safe for concurrent use. Queries are serialized against
// the single worker; cache reads and status checks never wait for them.
type Bridge interface {
	// SendQuery answers text from the cache or the worker.
	// Commands (text beginning with "/") and useCache=false bypass the cache.
	// It always returns a response; failures set Success=false and Error.
	SendQuery(ctx context.Context, text string, useCache bool) *QueryResponse

	// Status reports whether the worker process is alive.
	Status() AgentStatus

	// Start launches the worker if it is not running.
	// Returns SpawnError if the worker cannot be started.
	Start(ctx context.Context) error

	// Stop terminates the worker and waits for it to exit.
	// Returns StopError if exit cannot be confirmed.
	Stop(ctx context.Context) error

	// ClearMemory sends "/clear" to a running worker. No-op if not running.
	ClearMemory(ctx context.Context) error

	// WalletBalances sends "/balances" to the worker, uncached.
	WalletBalances(ctx context.Context) *QueryResponse

	// Transactions sends "/transactions" to the worker, uncached.
	Transactions(ctx context.Context) *QueryResponse

	// ClearCache drops every cached answer.
	ClearCache()

	// CacheStats sweeps expired answers and reports the cache state.
	CacheStats() CacheStats

	// RunCacheCleanup sweeps expired answers every interval until ctx is done.
	RunCacheCleanup(ctx context.Context, interval time.Duration) error

	// APIStatus reports which external services are configured.
	APIStatus() APIStatus

	// Shutdown stops the worker and rejects further work. Idempotent.
	Shutdown(ctx context.Context)
}

// New creates a Bridge. The worker is not started until Start or the first
// query that needs it.
func New(opts ...Option) Bridge {
	return &bridge{impl: client.New(applyOptions(opts))}
}

// bridge adapts the internal client to the public interface.
type bridge struct {
	impl *client.Client
}

// Compile-time check that *bridge implements the Bridge interface.
var _ Bridge = (*bridge)(nil)

func (b *bridge) SendQuery(ctx context.Context, text string, useCache bool) *QueryResponse {
	return b.impl.SendQuery(ctx, text, useCache)
}

func (b *bridge) Status() AgentStatus {
	return b.impl.Status()
}

func (b *bridge) Start(ctx context.Context) error {
	return b.impl.Start(ctx)
}

func (b *bridge) Stop(ctx context.Context) error {
	return b.impl.Stop(ctx)
}

func (b *bridge) ClearMemory(ctx context.Context) error {
	return b.impl.ClearMemory(ctx)
}

func (b *bridge) WalletBalances(ctx context.Context) *QueryResponse {
	return b.impl.WalletBalances(ctx)
}

func (b *bridge) Transactions(ctx context.Context) *QueryResponse {
	return b.impl.Transactions(ctx)
}

func (b *bridge) ClearCache() {
	b.impl.ClearCache()
}

func (b *bridge) CacheStats() CacheStats {
	return b.impl.CacheStats()
}

func (b *bridge) RunCacheCleanup(ctx context.Context, interval time.Duration) error {
	return b.impl.RunCacheCleanup(ctx, interval)
}

func (b *bridge) APIStatus() APIStatus {
	return b.impl.APIStatus()
}

func (b *bridge) Shutdown(ctx context.Context) {
	b.impl.Shutdown(ctx)
}
