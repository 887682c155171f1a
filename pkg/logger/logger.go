// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the per-request logger injected by the Logger middleware,
// so every line written while serving a request carries its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order created", "order_id", o.ID)
//	// → time=... level=INFO msg="order created" request_id=a1b2c3d4 order_id=...
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// L is the process-wide logger. It is replaced by Setup at startup.
var L *slog.Logger

func init() {
	L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// NewHandler returns the console handler for env: JSON for production,
// human-readable text otherwise.
func NewHandler(w io.Writer, env string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(w, opts) // structured JSON for log aggregators
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// Setup builds the console handler for env, fans out to any extra handlers
// (e.g. a MongoHandler) and installs the result as L and the slog default.
func Setup(env, level string, extra ...slog.Handler) *slog.Logger {
	var h slog.Handler = NewHandler(os.Stdout, env, ParseLevel(level))
	if len(extra) > 0 {
		h = NewMultiHandler(append([]slog.Handler{h}, extra...)...)
	}
	L = slog.New(h)
	slog.SetDefault(L)
	return L
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }
