// Package cache provides an in-memory key/value store with a fixed
// time-to-live per instance.
//
// Entries carry an absolute expiry stamped at write time. Expired entries
// are never returned: Get removes them when it observes them, and Cleanup
// sweeps all of them for keys that are never read again.
package cache
