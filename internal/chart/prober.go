package chart

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	domerrors "github.com/must-gpa/chartlet/internal/errors"
	"github.com/must-gpa/chartlet/internal/metrics"
	"github.com/must-gpa/chartlet/internal/scraper"
)

// Probe strategy names.
const (
	StrategyImage  = "image"
	StrategyStatus = "status"
)

// Prober checks whether a chart URL currently resolves to an image.
// Probe returns nil when the chart is available and a *NotFoundError
// otherwise; transport failures are kept as the wrapped cause. Exactly one
// attempt is made.
type Prober interface {
	Probe(ctx context.Context, url string) error
	Strategy() string
}

// NewProber returns the prober for strategy.
func NewProber(strategy string, client *scraper.Client, m *metrics.Metrics) (Prober, error) {
	base := probeBase{
		client:  client,
		flight:  scraper.NewFlight[struct{}]("probe", m),
		metrics: m,
	}
	switch strategy {
	case StrategyImage, "":
		base.strategy = StrategyImage
		return &ImageProber{probeBase: base}, nil
	case StrategyStatus:
		base.strategy = StrategyStatus
		return &StatusProber{probeBase: base}, nil
	default:
		return nil, fmt.Errorf("unknown probe strategy %q", strategy)
	}
}

type probeBase struct {
	client   *scraper.Client
	flight   *scraper.Flight[struct{}]
	metrics  *metrics.Metrics
	strategy string
}

func (p *probeBase) Strategy() string { return p.strategy }

// run collapses concurrent probes of the same URL and records the outcome.
func (p *probeBase) run(ctx context.Context, url string, check func(context.Context, string) error) error {
	start := time.Now()
	_, err := p.flight.Do(ctx, p.strategy+":"+url, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, check(ctx, url)
	})
	if err != nil && !domerrors.IsNotFound(err) {
		// The caller went away or the flight failed before check returned.
		err = domerrors.NewNotFoundError(url, 0, domerrors.NewNetworkError(url, err))
	}

	outcome := domerrors.Kind(err)
	if p.metrics != nil {
		p.metrics.RecordProbe(p.strategy, outcome, time.Since(start).Seconds())
	}
	slog.DebugContext(ctx, "Chart probe finished",
		"strategy", p.strategy,
		"url", url,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds())
	return err
}

// ImageProber loads the URL the way a browser loads an <img>: the response
// must be 2xx and its body must decode as an image header. A page that is
// not an image counts as a broken image, i.e. not found.
type ImageProber struct {
	probeBase
}

// Probe implements Prober.
func (p *ImageProber) Probe(ctx context.Context, url string) error {
	return p.run(ctx, url, func(ctx context.Context, url string) error {
		resp, err := p.client.Get(ctx, url)
		if err != nil {
			return domerrors.NewNotFoundError(url, 0, domerrors.NewNetworkError(url, err))
		}
		if !resp.OK() {
			return domerrors.NewNotFoundError(url, resp.StatusCode, nil)
		}
		if !IsImage(resp.Body) {
			return domerrors.NewNotFoundError(url, resp.StatusCode,
				fmt.Errorf("response is not an image (content-type %q)", resp.ContentType()))
		}
		return nil
	})
}

// StatusProber only looks at the status code. It uses HEAD and falls back
// to GET when the host does not allow HEAD.
type StatusProber struct {
	probeBase
}

// Probe implements Prober.
func (p *StatusProber) Probe(ctx context.Context, url string) error {
	return p.run(ctx, url, func(ctx context.Context, url string) error {
		resp, err := p.client.Head(ctx, url)
		if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
			resp, err = p.client.Get(ctx, url)
		}
		if err != nil {
			return domerrors.NewNotFoundError(url, 0, domerrors.NewNetworkError(url, err))
		}
		if !resp.OK() {
			return domerrors.NewNotFoundError(url, resp.StatusCode, nil)
		}
		return nil
	})
}
