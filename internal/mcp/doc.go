// Package mcp exposes the agent bridge as a Model Context Protocol server.
//
// Each caller-facing operation (send a query, start or stop the worker,
// inspect the cache) is registered as an MCP tool. Worker notifications
// received while a query runs are forwarded to every connected session as
// MCP log messages, with the notification name as the logger name.
//
// Example usage:
//
//	server := mcp.NewServer(log, "v1.0.0")
//	bridge := agentbridge.New(agentbridge.WithNotifier(server.Notifier()))
//	server.Register(bridge)
//
//	err := server.Run(ctx, &mcpsdk.StdioTransport{})
package mcp
