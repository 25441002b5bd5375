// Package intake runs the per-submitter conversation that gathers placement
// metadata for a received file. Each chat owns an independent state machine;
// a completed conversation hands its job to the worker pool.
package intake
