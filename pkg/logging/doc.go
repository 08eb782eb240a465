// Package logging provides structured logging utilities for the node source.
//
// It wraps the standard library slog package with project defaults: JSON
// output to stderr, environment-based level configuration (LOG_LEVEL),
// module/version context injection, and source location tracking for debug
// logs. Stderr is used exclusively because stdout carries the rendered
// resource-model document consumed by Rundeck.
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("pvenodes", "v1.0.0")
//
//	    slog.Info("discovery started", "cluster", host)
//	    slog.Debug("detailed state", "guest", guest)
//	    slog.Error("run failed", "error", err)
//	}
package logging
