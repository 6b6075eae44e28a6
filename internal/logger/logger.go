// Package logger is the process-wide structured logger. Records written
// through the *Context helpers pick up the request and user ids that the
// HTTP layer stores on the context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	InitializeWithWriter(level, format, os.Stdout)
}

// InitializeWithWriter is Initialize with an explicit destination.
// Unknown levels fall back to info, unknown formats to text.
func InitializeWithWriter(level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	}

	defaultLogger = slog.New(contextHandler{Handler: handler})
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if uid, ok := ctx.Value(userIDKey).(int64); ok && uid != 0 {
		r.AddAttrs(slog.Int64("user_id", uid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}

// WithRequestID stores the request id for later log records
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, if any
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithUserID stores the authenticated member for later log records
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Get returns the default logger, creating an info/text one on first use.
func Get() *slog.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	Get().DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}

// EnterMethod and ExitMethod trace service calls at debug level.
func EnterMethod(method string, args ...any) {
	Get().Debug("→ Method entered", prepend(args, "method", method, "event", "enter")...)
}

func ExitMethod(method string, args ...any) {
	Get().Debug("← Method exited", prepend(args, "method", method, "event", "exit")...)
}

// ExitMethodWithError is ExitMethod at error level.
func ExitMethodWithError(method string, err error, args ...any) {
	Get().Error("← Method exited with error", prepend(args, "method", method, "event", "exit", "error", err)...)
}

// DatabaseCall and DatabaseResult bracket a single query.
func DatabaseCall(operation, table string, args ...any) {
	Get().Debug("→ Database call", prepend(args, "operation", operation, "table", table)...)
}

func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	result("Database call", err, prepend(args, "operation", operation, "rows_affected", rowsAffected))
}

// ExternalServiceCall and ExternalServiceResult bracket calls to SendGrid,
// Redis and other remote dependencies.
func ExternalServiceCall(service, operation string, args ...any) {
	Get().Debug("→ External service call", prepend(args, "service", service, "operation", operation)...)
}

func ExternalServiceResult(service, operation string, err error, args ...any) {
	result("External service call", err, prepend(args, "service", service, "operation", operation))
}

func result(what string, err error, args []any) {
	if err != nil {
		Get().Error("← "+what+" failed", append(args, "error", err)...)
		return
	}
	Get().Debug("← "+what+" succeeded", args...)
}

func prepend(args []any, head ...any) []any {
	return append(head, args...)
}
