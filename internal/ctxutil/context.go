// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	requestIDKey contextKey = "ctxutil.requestID"
	clientIPKey  contextKey = "ctxutil.clientIP"
	rollKey      contextKey = "ctxutil.roll"
)

// WithRequestID adds a request ID to the context for tracing.
// Request ID is generated per HTTP request (or per CLI invocation) for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithClientIP records the caller's IP address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// GetClientIP retrieves the caller's IP address, or "" if unset.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok {
		return ip
	}
	return ""
}

// WithRoll records the roll number being processed.
func WithRoll(ctx context.Context, roll string) context.Context {
	return context.WithValue(ctx, rollKey, roll)
}

// GetRoll retrieves the roll number being processed, or "" if unset.
func GetRoll(ctx context.Context) string {
	if roll, ok := ctx.Value(rollKey).(string); ok {
		return roll
	}
	return ""
}

// PreserveTracing creates a detached context that preserves tracing values.
// The new context is independent of the parent's cancellation and deadlines.
//
// Use for work that must outlive the request, such as the lookup history
// write that happens after the response has been sent.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if ip := GetClientIP(ctx); ip != "" {
		newCtx = WithClientIP(newCtx, ip)
	}
	if roll := GetRoll(ctx); roll != "" {
		newCtx = WithRoll(newCtx, roll)
	}

	return newCtx
}
