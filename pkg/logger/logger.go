// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns the logger the
// request middleware stored in the context, already tagged with request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("product created", "product_id", id)
//	// → time=... level=INFO msg="product created" request_id=3f0c... product_id=65f1...
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/shashiranjanraj/productd/config"
)

var (
	L *slog.Logger

	mu   sync.Mutex
	base slog.Handler
	sink *MongoHandler
)

func init() {
	Setup(config.AppEnv(), os.Stdout)
}

// Setup rebuilds the base logger for env, writing to w. JSON in production,
// text everywhere else.
func Setup(env string, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	base = newHandler(env, w)
	install(base)
}

func newHandler(env string, w io.Writer) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

func install(h slog.Handler) {
	L = slog.New(h)
	slog.SetDefault(L)
}

// AttachSink fans every record out to h as well as the base handler.
// Passing nil detaches the current sink.
func AttachSink(h *MongoHandler) {
	mu.Lock()
	defer mu.Unlock()

	sink = h
	if h == nil {
		install(base)
		return
	}
	install(NewMultiHandler(base, h))
}

// Close flushes and detaches the Mongo sink, if any.
func Close() {
	mu.Lock()
	h := sink
	mu.Unlock()

	if h == nil {
		return
	}
	AttachSink(nil)
	h.Close()
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored by the Logger middleware,
// or the base logger when there is none.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log into ctx. Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }

// LevelFor maps an HTTP status to the level its access log line uses.
func LevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
