// Package protocol implements the query/response exchange with a worker.
//
// A query is written to the worker as one line of text. The worker answers
// with newline-delimited JSON messages: zero or more notifications (status
// updates, delegation events) followed by exactly one terminal message
// (answer, command_result, command or error). A Session resolves the
// terminal message into the query's result and forwards notifications to a
// config.Notifier in the order the worker emitted them.
//
// Example usage:
//
//	worker, _ := subprocess.Spawn(ctx, options)
//	session := protocol.NewSession(log, worker, options)
//
//	answer, err := session.Send(ctx, "what is the price of SOL?")
package protocol
