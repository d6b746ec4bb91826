package sprite

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for sprite and all its sub-packages.
// By default nothing is logged. Pass nil to restore silence.
//
// Log levels used:
//   - [slog.LevelDebug]: index buffer growth, per-frame batch counts, decoded images
//   - [slog.LevelInfo]: device and adapter selection
//   - [slog.LevelWarn]: non-fatal resource release failures
//
// Example:
//
//	sprite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages (backend/wgpu,
// platform/glfw, cmd/quadbench) log through it so one SetLogger call
// configures everything.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
