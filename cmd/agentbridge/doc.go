// Command agentbridge runs the agent bridge.
//
// "agentbridge serve" exposes the bridge as an MCP server on stdio for a
// desktop shell or any other MCP client. "query", "status" and
// "api-status" are one-shot commands for scripting and diagnostics.
package main
