// Package sentry reports unexpected failures to Better Stack Errors through
// the Sentry SDK. Expected outcomes of a chart lookup (bad input, a missing
// chart, a host that refuses downloads) are not reported.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/must-gpa/chartlet/internal/ctxutil"
	domerrors "github.com/must-gpa/chartlet/internal/errors"
)

// Config holds Sentry configuration for Better Stack integration.
type Config struct {
	// Token is the Better Stack Errors application token. Empty disables reporting.
	Token string
	// Host is the Better Stack Errors ingesting host (e.g., "errors.betterstack.com").
	Host        string
	Environment string
	Release     string
	ServerName  string
	// SampleRate controls error sampling (0.0-1.0, default 1.0).
	SampleRate float64
}

// DSN builds the Better Stack DSN: https://TOKEN@HOST/1.
// The project ID is required by the SDK and ignored by Better Stack.
func (c Config) DSN() string {
	return fmt.Sprintf("https://%s@%s/1", c.Token, c.Host)
}

// Initialize sets up the Sentry SDK. A Config without Token is a no-op.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN(),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
		SampleRate:       sampleRate,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// ShouldReport reports whether err is unexpected.
func ShouldReport(err error) bool {
	if err == nil {
		return false
	}
	switch domerrors.Kind(err) {
	case "invalid", "not_found", "blocked", "network_error":
		return false
	}
	return !domerrors.IsRateLimitExceeded(err)
}

// CaptureException reports err when it is unexpected, tagged with the
// request ID and roll number carried by ctx.
func CaptureException(ctx context.Context, err error) {
	if !ShouldReport(err) || !IsEnabled() {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if id, ok := ctxutil.GetRequestID(ctx); ok {
			scope.SetTag("request_id", id)
		}
		if roll := ctxutil.GetRoll(ctx); roll != "" {
			scope.SetTag("roll_number", roll)
		}
		hub.CaptureException(err)
	})
}
