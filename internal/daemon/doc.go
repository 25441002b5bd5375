// Package daemon wires the catalog, worker pool, chat poller, and status
// endpoint into a single-instance background service guarded by a file lock.
package daemon
