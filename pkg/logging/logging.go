/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package logging

import (
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a log level string to a slog.Level.
// Unrecognized values default to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefaultStructuredLogger configures the process-wide slog default with
// JSON output to stderr and module/version context. Stdout is reserved for
// the rendered inventory document, so all diagnostics go to stderr.
func SetDefaultStructuredLogger(module, version string) {
	SetDefaultStructuredLoggerWithLevel(module, version, os.Getenv("LOG_LEVEL"))
}

// SetDefaultStructuredLoggerWithLevel is like SetDefaultStructuredLogger but
// takes an explicit level string, typically from a --log-level flag.
func SetDefaultStructuredLoggerWithLevel(module, version, level string) {
	lvl := ParseLevel(level)
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	})
	logger := slog.New(handler).With(
		slog.String("module", module),
		slog.String("version", version),
	)
	slog.SetDefault(logger)
}
