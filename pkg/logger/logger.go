package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

var (
	log  *slog.Logger
	once sync.Once
)

// Init configures the process-wide logger.
// development: coloured text via tint, production: JSON.
func Init(env string) {
	log = New(os.Stdout, env)
	slog.SetDefault(log)
}

func New(w io.Writer, env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

func GetLogger() *slog.Logger {
	once.Do(func() {
		if log == nil {
			Init("development")
		}
	})
	return log
}

func Info(msg string, args ...any)  { GetLogger().Info(msg, args...) }
func Warn(msg string, args ...any)  { GetLogger().Warn(msg, args...) }
func Debug(msg string, args ...any) { GetLogger().Debug(msg, args...) }

func Error(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"error", err.Error()}, args...)
	}
	GetLogger().Error(msg, args...)
}

// Fatal logs and exits.
func Fatal(msg string, err error, args ...any) {
	Error(msg, err, args...)
	os.Exit(1)
}

func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// FromContext returns the global logger annotated with the request and user ids, if any.
func FromContext(ctx context.Context) *slog.Logger {
	l := GetLogger()
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		l = l.With("request_id", id)
	}
	if id, ok := contextUserID(ctx); ok {
		l = l.With("user_id", id)
	}
	return l
}

// ForUser is FromContext for work done on behalf of userID. The id is added
// only when the context does not already carry it; when the caller is someone
// else (an admin acting on a dealer) it is logged as target_user_id.
func ForUser(ctx context.Context, userID uint) *slog.Logger {
	l := FromContext(ctx)
	caller, _ := contextUserID(ctx)
	switch {
	case caller == userID:
		return l
	case caller == 0:
		return l.With("user_id", userID)
	default:
		return l.With("target_user_id", userID)
	}
}

func contextUserID(ctx context.Context) (uint, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok && id != 0
}

// JobLog records the outcome of a background job run.
func JobLog(job string, err error, args ...any) {
	fields := append([]any{"job", job}, args...)
	if err != nil {
		GetLogger().Error("job failed", append(fields, "error", err.Error())...)
		return
	}
	GetLogger().Info("job completed", fields...)
}
