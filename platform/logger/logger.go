// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ChannelIDKey is the context key for the chat channel identifier
	ChannelIDKey contextKey = "channel_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if channelID, ok := ctx.Value(ChannelIDKey).(string); ok && channelID != "" {
		newLogger = newLogger.WithChannel(channelID)
	}

	return newLogger
}

// WithChannel returns a logger scoped to a chat channel.
func (l *Logger) WithChannel(channelID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("channel_id", channelID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// InboundMessage logs receipt of a chat message.
func (l *Logger) InboundMessage(channelID, messageID string, length int) {
	l.Info("inbound_message",
		slog.String("channel_id", channelID),
		slog.String("message_id", messageID),
		slog.Int("length", length),
	)
}

// OutboundReply logs delivery of a chat reply.
func (l *Logger) OutboundReply(channelID string, document bool) {
	l.Info("outbound_reply",
		slog.String("channel_id", channelID),
		slog.Bool("document", document),
	)
}

// RemoteCallFailed logs a failed call to an external collaborator.
func (l *Logger) RemoteCallFailed(target, operation string, err error) {
	l.Error("remote_call_failed",
		slog.String("target", target),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// SyncResult logs the outcome of a background sync job.
func (l *Logger) SyncResult(job string, count int, err error) {
	if err != nil {
		l.Error("sync_failed",
			slog.String("job", job),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Info("sync_complete",
		slog.String("job", job),
		slog.Int("count", count),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
