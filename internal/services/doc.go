// Package services defines shared utilities consumed by the intake
// conversation, the worker pipeline, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job identifiers and submitter chat IDs for
//     logging across goroutine boundaries.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the taxonomy the worker boundary reports on (validation,
//     authorization, retrieval, placement, conversion, configuration).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
