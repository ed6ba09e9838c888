// Package supervisor owns the single worker process slot.
//
// A Supervisor starts, stops and health-checks at most one worker at a
// time and serializes every query against it, since worker output carries
// no request correlation.
package supervisor
