// Package logging configures slog for the daemon: a console handler for
// interactive use, a JSON handler for machine consumption, and helpers that
// keep structured field names consistent across components.
package logging
