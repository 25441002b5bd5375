// Package queue owns the in-memory job queue, the bounded worker pool that
// drains it, and the per-job progress tracker. Jobs are admitted only once
// all metadata for their category is present; the queue is not durable
// across restarts.
package queue
