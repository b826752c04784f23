// Package app provides application initialization and lifecycle management
// for the chartlet HTTP service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/must-gpa/chartlet/internal/batch"
	"github.com/must-gpa/chartlet/internal/buildinfo"
	"github.com/must-gpa/chartlet/internal/config"
	"github.com/must-gpa/chartlet/internal/logger"
	"github.com/must-gpa/chartlet/internal/metrics"
	"github.com/must-gpa/chartlet/internal/r2client"
	"github.com/must-gpa/chartlet/internal/ratelimit"
	"github.com/must-gpa/chartlet/internal/resolver"
	"github.com/must-gpa/chartlet/internal/scraper"
	"github.com/must-gpa/chartlet/internal/sentry"
	"github.com/must-gpa/chartlet/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg      *config.Config
	logger   *logger.Logger
	db       *storage.DB
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	resolver *resolver.Resolver
	batch    *batch.Runner
	archive  *r2client.Client // nil when the R2 archive is disabled
	limiter  *ratelimit.KeyedLimiter
	server   *http.Server
	wg       sync.WaitGroup // background jobs and history writes
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "chartlet")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context() calls pick up request_id and roll_number
	// through the ContextHandler.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Release()).Info("Initializing application...")

	if cfg.SentryEnabled {
		err := sentry.Initialize(sentry.Config{
			Token:       cfg.SentryToken,
			Host:        cfg.SentryHost,
			Environment: cfg.SentryEnvironment,
			Release:     buildinfo.Release(),
			ServerName:  cfg.ServerName,
			SampleRate:  cfg.SentrySampleRate,
		})
		if err != nil {
			log.WithError(err).Warn("Sentry initialization failed, continuing without error tracking")
		} else if sentry.IsEnabled() {
			log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
		}
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	var archive *r2client.Client
	if cfg.R2Enabled {
		archive, err = r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2Endpoint(),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
			Prefix:      cfg.R2ArchivePrefix,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("r2 archive: %w", err)
		}
		log.WithField("bucket", cfg.R2BucketName).Info("R2 bundle archive enabled")
	}

	client := scraper.NewClient(scraper.Options{
		Timeout: cfg.ScraperTimeout,
		RPS:     cfg.ScraperRPS,
		Burst:   cfg.ScraperBurst,
		Metrics: m,
	})

	res, err := resolver.New(client, m, resolver.OptionsFromConfig(cfg))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.WithField("host", cfg.ChartHost).
		WithField("probe", res.ProbeStrategy()).
		WithField("download", res.DownloadStrategy()).
		WithField("placeholder", cfg.PlaceholderOnMissing).
		Info("Chart resolver ready")

	runner := batch.New(res, batch.Options{
		Workers: cfg.BatchWorkers,
		MaxSize: cfg.MaxRangeSize,
		Metrics: m,
	})

	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "client",
		Burst:         cfg.ClientRateBurst,
		RefillRate:    cfg.ClientRateRefill,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	app := &Application{
		cfg:      cfg,
		logger:   log,
		db:       db,
		metrics:  m,
		registry: registry,
		resolver: res,
		batch:    runner,
		archive:  archive,
		limiter:  limiter,
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gzhttp.GzipHandler(app.routes()),
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// routes builds the gin engine.
func (a *Application) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestContextMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		operatorAuthMiddleware(a.cfg.MetricsAuthEnabled, "metrics", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	public := router.Group("", rateLimitMiddleware(a.limiter))
	public.POST("/get_gpa", a.getGPA)
	public.GET("/download/:roll", a.downloadChart)

	api := public.Group("/api/v1")
	api.GET("/charts/:roll", a.getChart)
	api.GET("/ranges", a.checkRange)
	api.GET("/ranges/pdf", a.bundleRange)

	// Operator routes expose client IPs and archived bundles, so they only
	// exist when basic auth is configured.
	if a.cfg.MetricsAuthEnabled {
		ops := api.Group("", operatorAuthMiddleware(true, "operator", a.cfg.MetricsUsername, a.cfg.MetricsPassword))
		ops.GET("/charts/:roll/history", a.chartHistory)
		ops.GET("/stats", a.lookupStats)
		ops.GET("/archives/*key", a.archivedBundle)
		ops.HEAD("/archives/*key", a.archivedBundle)
	}

	return router
}

// Handler returns the fully wrapped HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and background jobs and blocks until SIGINT or
// SIGTERM, or until the server fails to listen.
//
// Shutdown order: stop accepting requests, stop background jobs and wait
// for them (including pending history writes), then close the database.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case runErr = <-serverErr:
		a.logger.WithError(runErr).Error("HTTP server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer shutdownCancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	cancel()
	return errors.Join(runErr, a.Close(shutdownCtx))
}

func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.lookupCleanup(ctx)
	})
}

// startHTTPServer serves in a goroutine; the returned channel receives the
// listen error if the server stops for any reason other than Shutdown.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// Close waits for background work and releases resources. Background jobs
// must already have been told to stop through their context.
func (a *Application) Close(ctx context.Context) error {
	a.logger.Info("Waiting for background jobs to finish...")
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	start := time.Now()
	select {
	case <-done:
		a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
			Info("All background jobs completed")
	case <-ctx.Done():
		a.logger.Warn("Timed out waiting for background jobs")
	}

	a.limiter.Stop()

	var err error
	if cerr := a.db.Close(); cerr != nil {
		a.logger.WithError(cerr).WithField("component", "database").Error("Component close error")
		err = cerr
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	a.logger.Info("Shutdown complete")
	return err
}
