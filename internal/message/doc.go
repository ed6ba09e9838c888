// Package message defines the messages a worker writes to its stdout and
// parses them from individual output lines.
//
// Every line carries a "type" tag. Recognized tags map to a concrete type;
// anything else becomes an UnknownMessage so callers can skip it without
// treating it as an error.
package message
