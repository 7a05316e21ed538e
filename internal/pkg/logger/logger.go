package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// Init configures the default slog logger with a JSON handler at the given
// level. Safe to call more than once; the last call wins.
func Init(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	slog.SetDefault(slog.New(handler))
}

// WithTraceID returns a context carrying the given trace ID. Every Ctx*
// logging call made with that context includes the ID as a trace_id field.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func getTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

func ctxAttrs(ctx context.Context, attrs []any) []any {
	if id := getTraceID(ctx); id != "" {
		attrs = append(attrs, slog.String("trace_id", id))
	}
	return attrs
}

func CtxDebug(ctx context.Context, msg string, attrs ...any) {
	slog.Debug(msg, ctxAttrs(ctx, attrs)...)
}

func CtxInfo(ctx context.Context, msg string, attrs ...any) {
	slog.Info(msg, ctxAttrs(ctx, attrs)...)
}

func CtxWarn(ctx context.Context, msg string, attrs ...any) {
	slog.Warn(msg, ctxAttrs(ctx, attrs)...)
}

func CtxError(ctx context.Context, msg string, err error, attrs ...any) {
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	slog.Error(msg, ctxAttrs(ctx, attrs)...)
}

func Debug(msg string, attrs ...any) {
	slog.Debug(msg, attrs...)
}

func Info(msg string, attrs ...any) {
	slog.Info(msg, attrs...)
}

func Warn(msg string, attrs ...any) {
	slog.Warn(msg, attrs...)
}

func Error(msg string, err error, attrs ...any) {
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	slog.Error(msg, attrs...)
}
