// Package config provides centralized timeout constants for the application.
//
// The chart host is a single campus server behind a non-standard port. It is
// usually quick but stalls under exam-result load, so outbound requests get
// one generous timeout and a single attempt instead of retries.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Request bodies are tiny JSON payloads.
	HTTPRead = 10 * time.Second

	// HTTPWrite must cover a full range PDF build, which fetches every chart
	// in the range before the first byte is written.
	HTTPWrite = 5 * time.Minute

	// HTTPIdle is the keep-alive idle timeout.
	HTTPIdle = 120 * time.Second

	// HTTPReadHeader bounds slow header senders.
	HTTPReadHeader = 5 * time.Second
)

// Scraper timeouts
const (
	// ScraperRequest is the timeout for a single request to the chart host.
	ScraperRequest = 10 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour

	// DatabaseSlowQuery is the threshold above which repository calls log a warning.
	DatabaseSlowQuery = 200 * time.Millisecond
)

// Background job intervals
const (
	// LookupRetention is how long lookup history rows are kept.
	LookupRetention = 30 * 24 * time.Hour

	// LookupCleanupInterval is how often expired history rows are deleted.
	LookupCleanupInterval = 12 * time.Hour

	// RateLimiterCleanupInterval is how often idle per-client limiters are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Archive timeouts
const (
	// ArchiveUpload bounds a single R2 upload of a generated bundle.
	ArchiveUpload = 30 * time.Second
)

// Container health probe
const (
	// Healthcheck bounds one /livez call from cmd/healthcheck.
	Healthcheck = 5 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
