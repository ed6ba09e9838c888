// Package subprocess runs the agent worker as a child process.
//
// A Process owns the worker's stdin, stdout and stderr pipes. Stdout is
// pumped line by line into a channel, stderr is drained into a bounded
// buffer, and the child is reaped as soon as it exits so liveness reflects
// the real process state.
package subprocess
