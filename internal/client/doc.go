// Package client implements the request path in front of the worker.
//
// A Client answers caller queries from the query cache when it can, and
// otherwise through the supervised worker, caching successful answers.
// Every query produces a QueryResponse; worker and protocol failures are
// reported in it rather than returned as errors.
//
// Queries starting with CommandPrefix are worker commands. They change
// worker state, so they are never read from or written to the cache.
package client
