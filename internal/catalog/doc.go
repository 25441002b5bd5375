// Package catalog persists the series/episode index consulted during intake.
// It is pure data access backed by SQLite; all placement and queueing logic
// lives elsewhere. Workers never touch the catalog.
package catalog
