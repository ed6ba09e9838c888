// Package agentbridge supervises a local agent worker process and brokers
// queries to it over the worker's standard streams.
//
// The worker is an external program that reads one query per line on stdin
// and writes newline-delimited JSON messages on stdout. Progress messages
// (status updates, delegation events) are forwarded to a Notifier while a
// query is in flight; the query resolves on the worker's terminal answer or
// error. Successful answers are cached for a while so repeated questions
// do not reach the worker at all.
//
// # Basic Usage
//
//	bridge := agentbridge.New(
//	    agentbridge.WithLogger(slog.Default()),
//	    agentbridge.WithMode(agentbridge.ModeProduction),
//	)
//	defer bridge.Shutdown(context.Background())
//
//	resp := bridge.SendQuery(ctx, "What is the price of SOL?", true)
//	if !resp.Success {
//	    log.Printf("query failed: %s", resp.Error)
//	}
//
// Queries beginning with "/" are worker commands (for example "/clear")
// and are never cached.
//
// # Notifications
//
// Status and delegation messages are delivered through a Notifier:
//
//	bridge := agentbridge.New(
//	    agentbridge.WithNotifier(agentbridge.NotifierFunc(func(name string, payload any) {
//	        if update, ok := payload.(agentbridge.StatusUpdate); ok {
//	            fmt.Printf("[%s] %s\n", update.Phase, update.Message)
//	        }
//	    })),
//	)
//
// # Lifecycle
//
// The worker starts on Start or on the first query that misses the cache.
// At most one worker runs at a time and queries against it are serialized.
// Shutdown stops the worker and must be called when the owning application
// exits; WithBridge does this automatically.
//
// # Error Handling
//
// Query failures are reported in QueryResponse. Start and Stop return typed
// errors:
//
//	if err := bridge.Start(ctx); err != nil {
//	    if spawnErr, ok := errors.AsType[*agentbridge.SpawnError](err); ok {
//	        log.Printf("worker could not start: %v", spawnErr.Err)
//	    }
//	}
package agentbridge
