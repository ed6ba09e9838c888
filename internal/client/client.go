package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/wagiedev/agentbridge-go/internal/cache"
	"github.com/wagiedev/agentbridge-go/internal/config"
	"github.com/wagiedev/agentbridge-go/internal/errors"
	"github.com/wagiedev/agentbridge-go/internal/supervisor"
)

// CommandPrefix marks queries that are worker commands.
const CommandPrefix = "/"

// Worker commands sent on behalf of the caller.
const (
	CommandClear        = "/clear"
	CommandBalances     = "/balances"
	CommandTransactions = "/transactions"
)

// cacheOperational is the CacheStats message.
const cacheOperational = "Cache is operational"

// Client routes queries through the cache and the supervised worker.
type Client struct {
	log        *slog.Logger
	supervisor *supervisor.Supervisor
	queries    *cache.Cache[string]
	lookupEnv  func(string) (string, bool)
}

// New creates a Client. The worker is not started until Start or the first
// query that misses the cache.
func New(options *config.Options) *Client {
	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ttl := options.QueryCacheTTL
	if ttl <= 0 {
		ttl = cache.QueryTTL
	}

	var cacheOpts []cache.Option
	if options.Now != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(options.Now))
	}

	return &Client{
		log:        log.With("component", "client"),
		supervisor: supervisor.New(options),
		queries:    cache.New[string](ttl, cacheOpts...),
		lookupEnv:  os.LookupEnv,
	}
}

// IsCommand reports whether query is a worker command.
func IsCommand(query string) bool {
	return strings.HasPrefix(query, CommandPrefix)
}

// SendQuery answers query.
//
// When useCache is true and query is not a command, a cached answer is
// returned without touching the worker, and a fresh successful answer is
// cached. Otherwise the worker is started if needed and asked directly.
// Failures are reported in the returned QueryResponse.
func (c *Client) SendQuery(ctx context.Context, query string, useCache bool) *QueryResponse {
	cacheable := useCache && !IsCommand(query)
	key := cache.QueryKey(query)

	if cacheable {
		if cached, ok := c.queries.Get(key); ok {
			c.log.Debug("Cache hit", "query_len", len(query))

			return &QueryResponse{Success: true, Response: cached}
		}
	}

	start := time.Now()

	response, err := c.supervisor.Query(ctx, query)
	if err != nil {
		c.log.Warn("Query failed", "error", err, "duration", time.Since(start))

		return &QueryResponse{Error: failureMessage(err)}
	}

	c.log.Debug("Query answered", "duration", time.Since(start), "cached", cacheable)

	if cacheable {
		c.queries.Set(key, response)
	}

	return &QueryResponse{Success: true, Response: response}
}

// failureMessage renders err for a QueryResponse.
func failureMessage(err error) string {
	if agentErr, ok := stderrors.AsType[*errors.AgentError](err); ok {
		return agentErr.Message
	}

	if _, ok := stderrors.AsType[*errors.SpawnError](err); ok {
		return "Failed to start agent: " + err.Error()
	}

	return err.Error()
}

// Status reports whether the worker is alive.
func (c *Client) Status() AgentStatus {
	running := c.supervisor.IsRunning()

	return AgentStatus{Running: running, Connected: running, Pid: c.supervisor.Pid()}
}

// Start launches the worker if it is not already running.
func (c *Client) Start(ctx context.Context) error {
	return c.supervisor.Start(ctx)
}

// Stop terminates the worker.
func (c *Client) Stop(ctx context.Context) error {
	return c.supervisor.Stop(ctx)
}

// ClearMemory asks a running worker to forget its conversation.
// It does nothing when the worker is not running.
func (c *Client) ClearMemory(ctx context.Context) error {
	_, err := c.supervisor.QueryIfRunning(ctx, CommandClear)
	if stderrors.Is(err, errors.ErrNotRunning) {
		c.log.Debug("Worker not running, nothing to clear")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to clear memory: %w", err)
	}

	return nil
}

// WalletBalances asks the worker for wallet balances. Never cached.
func (c *Client) WalletBalances(ctx context.Context) *QueryResponse {
	return c.SendQuery(ctx, CommandBalances, false)
}

// Transactions asks the worker for the transaction history. Never cached.
func (c *Client) Transactions(ctx context.Context) *QueryResponse {
	return c.SendQuery(ctx, CommandTransactions, false)
}

// ClearCache drops every cached answer.
func (c *Client) ClearCache() {
	c.queries.Clear()
	c.log.Info("Cache cleared")
}

// CacheStats sweeps expired answers and reports the cache state.
func (c *Client) CacheStats() CacheStats {
	expired := c.queries.Cleanup()

	return CacheStats{Message: cacheOperational, Entries: c.queries.Len(), Expired: expired}
}

// RunCacheCleanup sweeps expired answers every interval until ctx is done.
func (c *Client) RunCacheCleanup(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = config.DefaultCleanupInterval
	}

	return c.queries.RunCleanup(ctx, interval)
}

// APIStatus reports which external services are configured in the
// environment.
func (c *Client) APIStatus() APIStatus {
	return CheckAPIStatus(c.lookupEnv)
}

// Shutdown stops the worker and refuses further queries. Idempotent.
func (c *Client) Shutdown(ctx context.Context) {
	c.supervisor.Shutdown(ctx)
}
