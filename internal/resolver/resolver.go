// Package resolver is the single entry point for turning user input into
// chart references, availability answers and downloads. The probe and
// download strategies are chosen once from configuration.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/must-gpa/chartlet/internal/chart"
	"github.com/must-gpa/chartlet/internal/config"
	domerrors "github.com/must-gpa/chartlet/internal/errors"
	"github.com/must-gpa/chartlet/internal/metrics"
	"github.com/must-gpa/chartlet/internal/roll"
	"github.com/must-gpa/chartlet/internal/scraper"
)

// Options selects the chart host and strategies.
type Options struct {
	Scheme               string
	Host                 string
	ProbeStrategy        string
	DownloadStrategy     string
	PlaceholderOnMissing bool
}

// OptionsFromConfig maps configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Scheme:               cfg.ChartScheme,
		Host:                 cfg.ChartHost,
		ProbeStrategy:        cfg.ProbeStrategy,
		DownloadStrategy:     cfg.DownloadStrategy,
		PlaceholderOnMissing: cfg.PlaceholderOnMissing,
	}
}

// Result is the availability answer for one reference.
type Result struct {
	chart.Reference
	Available bool
	// Err is the probe failure when Available is false.
	Err error
}

// Resolver validates roll numbers and resolves them against the chart host.
type Resolver struct {
	builder     *chart.URLBuilder
	prober      chart.Prober
	downloader  chart.Downloader
	fetcher     *chart.FetchDownloader
	placeholder bool
	metrics     *metrics.Metrics
	now         func() time.Time
}

// New creates a Resolver. client is shared by every strategy.
func New(client *scraper.Client, m *metrics.Metrics, opts Options) (*Resolver, error) {
	prober, err := chart.NewProber(opts.ProbeStrategy, client, m)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	fetcher := chart.NewFetchDownloader(client, m)
	var downloader chart.Downloader = fetcher
	if opts.DownloadStrategy != chart.StrategyFetch && opts.DownloadStrategy != "" {
		downloader, err = chart.NewDownloader(opts.DownloadStrategy, client, m)
		if err != nil {
			return nil, fmt.Errorf("resolver: %w", err)
		}
	}

	return &Resolver{
		builder:     chart.NewURLBuilder(opts.Scheme, opts.Host),
		prober:      prober,
		downloader:  downloader,
		fetcher:     fetcher,
		placeholder: opts.PlaceholderOnMissing,
		metrics:     m,
		now:         time.Now,
	}, nil
}

// ProbeStrategy returns the configured probe strategy name.
func (r *Resolver) ProbeStrategy() string { return r.prober.Strategy() }

// DownloadStrategy returns the configured download strategy name.
func (r *Resolver) DownloadStrategy() string { return r.downloader.Strategy() }

// Builder exposes the URL builder.
func (r *Resolver) Builder() *chart.URLBuilder { return r.builder }

// Resolve validates input and builds its Reference. No network access.
func (r *Resolver) Resolve(input string) (chart.Reference, error) {
	n, err := roll.Parse(input)
	if err != nil {
		return chart.Reference{}, err
	}
	return r.builder.Ref(n), nil
}

// Lookup validates input and probes the chart host.
// A malformed roll is returned as error; an unavailable chart is reported
// through Result.Err so callers still get the reference.
func (r *Resolver) Lookup(ctx context.Context, input string) (Result, error) {
	ref, err := r.Resolve(input)
	if err != nil {
		return Result{}, err
	}
	return r.Check(ctx, ref), nil
}

// Check probes an already resolved reference.
func (r *Resolver) Check(ctx context.Context, ref chart.Reference) Result {
	err := r.prober.Probe(ctx, ref.URL)
	if err != nil {
		slog.InfoContext(ctx, "Chart unavailable",
			"roll_number", ref.Roll.String(),
			"reason", domerrors.Kind(err))
	}
	return Result{Reference: ref, Available: err == nil, Err: err}
}

// Download validates input and hands the chart over using the configured
// strategy. With placeholders enabled, a chart the host does not have is
// replaced by a generated image instead of failing.
func (r *Resolver) Download(ctx context.Context, input, name string) (*chart.Download, error) {
	ref, err := r.Resolve(input)
	if err != nil {
		return nil, err
	}

	d, err := r.downloader.Download(ctx, ref, name)
	if err == nil {
		return d, nil
	}
	if !r.placeholder || !domerrors.IsNotFound(err) || domerrors.IsNetwork(err) {
		return nil, err
	}

	content, perr := chart.Placeholder(ref.Roll.String())
	if perr != nil {
		return nil, fmt.Errorf("render placeholder: %w", perr)
	}
	if r.metrics != nil {
		r.metrics.RecordDownload(r.downloader.Strategy(), "placeholder")
	}
	slog.InfoContext(ctx, "Serving placeholder chart", "roll_number", ref.Roll.String())
	return &chart.Download{
		Filename:    chart.Filename(ref.Roll.String(), name, r.now()),
		ContentType: "image/jpeg",
		Content:     content,
		Placeholder: true,
	}, nil
}

// FetchImage returns the chart bytes regardless of the download strategy.
// Batch bundling needs the bytes even when users are sent links.
func (r *Resolver) FetchImage(ctx context.Context, ref chart.Reference) ([]byte, error) {
	content, _, err := r.fetcher.Fetch(ctx, ref.URL)
	return content, err
}
