package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// StoreIDKey is the context key for store ID
	StoreIDKey contextKey = "store_id"
	// OperatorKey is the context key for the acting operator
	OperatorKey contextKey = "operator"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithStoreID adds store ID to context and returns enriched logger
func WithStoreID(ctx context.Context, logger *zap.Logger, storeID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, StoreIDKey, storeID)
	enriched := logger.With(zap.String("store_id", storeID))
	return WithContext(ctx, enriched), enriched
}

// WithOperator adds the acting operator to context and returns enriched
// logger
func WithOperator(ctx context.Context, logger *zap.Logger, operator string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, OperatorKey, operator)
	enriched := logger.With(zap.String("operator", operator))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetStoreID retrieves store ID from context
func GetStoreID(ctx context.Context) string {
	if storeID, ok := ctx.Value(StoreIDKey).(string); ok {
		return storeID
	}
	return ""
}

// GetOperator retrieves the acting operator from context
func GetOperator(ctx context.Context) string {
	if operator, ok := ctx.Value(OperatorKey).(string); ok {
		return operator
	}
	return ""
}

// L returns a logger enriched with every identity field present in the
// context. Usage: logger.L(ctx).Info("message", ...)
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if requestID := GetRequestID(ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	if storeID := GetStoreID(ctx); storeID != "" {
		l = l.With(zap.String("store_id", storeID))
	}
	if operator := GetOperator(ctx); operator != "" {
		l = l.With(zap.String("operator", operator))
	}
	return l
}
