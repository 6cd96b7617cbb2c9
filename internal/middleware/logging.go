package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs every RPC and records its metrics.
// It logs the procedure name, user ID, duration, and any error codes/messages.
type LoggingInterceptor struct {
	logger *slog.Logger
}

var _ connect.Interceptor = (*LoggingInterceptor)(nil)

// NewLoggingInterceptor creates a logging interceptor. A nil logger uses
// slog.Default().
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{logger: logger}
}

// WrapUnary implements connect.Interceptor.
func (l *LoggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		l.observe(ctx, req.Spec().Procedure, start, err)
		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (l *LoggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (l *LoggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		l.observe(ctx, conn.Spec().Procedure, start, err)
		return err
	}
}

func (l *LoggingInterceptor) observe(ctx context.Context, procedure string, start time.Time, err error) {
	elapsed := time.Since(start)
	userID := GetUserID(ctx) // empty if pre-auth

	code := "ok"
	if err != nil {
		code = connect.CodeOf(err).String()
	}
	rpcRequests.WithLabelValues(procedure, code).Inc()
	rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())

	duration := elapsed.Milliseconds()
	if err != nil {
		var connectErr *connect.Error
		if errors.As(err, &connectErr) {
			l.logger.Warn("RPC error",
				"procedure", procedure,
				"code", connectErr.Code(),
				"error", connectErr.Message(),
				"user_id", userID,
				"duration_ms", duration,
			)
		} else {
			l.logger.Error("RPC error",
				"procedure", procedure,
				"error", err,
				"user_id", userID,
				"duration_ms", duration,
			)
		}
		return
	}
	l.logger.Info("RPC ok",
		"procedure", procedure,
		"user_id", userID,
		"duration_ms", duration,
	)
}
