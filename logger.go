package gr

import (
	"log/slog"

	"github.com/gogpu/gr/internal/logging"
)

// SetLogger configures the logger for gr and all its sub-packages.
// By default, gr produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by gr:
//   - [slog.LevelDebug]: cache misses and evictions, flush points, offscreen AA tiling
//   - [slog.LevelInfo]: lifecycle events (backend selected, context lost)
//   - [slog.LevelWarn]: misuse and device failures (unbalanced unlock, failed allocation)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	gr.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	gr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by gr.
// Sub-packages (cache/, recording/, backend/) share the same logger through
// an internal package, so one call configures all of them.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.L()
}
