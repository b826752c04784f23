package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "CHARTLET_PORT"
	EnvLogLevel        = "CHARTLET_LOG_LEVEL"
	EnvShutdownTimeout = "CHARTLET_SHUTDOWN_TIMEOUT"
	EnvServerName      = "CHARTLET_SERVER_NAME"

	// Data
	EnvDataDir = "CHARTLET_DATA_DIR"

	// Chart host
	EnvChartHost            = "CHARTLET_CHART_HOST"
	EnvChartScheme          = "CHARTLET_CHART_SCHEME"
	EnvProbeStrategy        = "CHARTLET_PROBE_STRATEGY"
	EnvDownloadStrategy     = "CHARTLET_DOWNLOAD_STRATEGY"
	EnvPlaceholderOnMissing = "CHARTLET_PLACEHOLDER_ON_MISSING"

	// Scraper
	EnvScraperTimeout = "CHARTLET_SCRAPER_TIMEOUT"
	EnvScraperRPS     = "CHARTLET_SCRAPER_RPS"
	EnvScraperBurst   = "CHARTLET_SCRAPER_BURST"

	// Batch
	EnvBatchWorkers = "CHARTLET_BATCH_WORKERS"
	EnvMaxRangeSize = "CHARTLET_MAX_RANGE_SIZE"

	// Rate Limits
	EnvClientRateBurst  = "CHARTLET_CLIENT_RATE_BURST"
	EnvClientRateRefill = "CHARTLET_CLIENT_RATE_REFILL"

	// R2 Archive Feature
	EnvR2Enabled         = "CHARTLET_R2_ENABLED"
	EnvR2AccountID       = "CHARTLET_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "CHARTLET_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "CHARTLET_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "CHARTLET_R2_BUCKET_NAME"
	EnvR2ArchivePrefix   = "CHARTLET_R2_ARCHIVE_PREFIX"

	// Sentry Feature
	EnvSentryEnabled     = "CHARTLET_SENTRY_ENABLED"
	EnvSentryToken       = "CHARTLET_SENTRY_TOKEN"
	EnvSentryHost        = "CHARTLET_SENTRY_HOST"
	EnvSentryEnvironment = "CHARTLET_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "CHARTLET_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "CHARTLET_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "CHARTLET_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "CHARTLET_METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "CHARTLET_METRICS_USERNAME"
	EnvMetricsPassword    = "CHARTLET_METRICS_PASSWORD"
)
