package chart

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domerrors "github.com/must-gpa/chartlet/internal/errors"
	"github.com/must-gpa/chartlet/internal/metrics"
	"github.com/must-gpa/chartlet/internal/scraper"
)

// Download strategy names.
const (
	StrategyLink  = "link"
	StrategyFetch = "fetch"
)

// Download is what a Downloader hands back to the caller.
// Exactly one of RedirectURL or Content is set.
type Download struct {
	Filename    string
	ContentType string
	Content     []byte
	RedirectURL string
	// Placeholder is set when Content is a generated stand-in image.
	Placeholder bool
}

// Downloader makes a chart available for local saving under a display name.
type Downloader interface {
	Download(ctx context.Context, ref Reference, name string) (*Download, error)
	Strategy() string
}

// NewDownloader returns the downloader for strategy.
func NewDownloader(strategy string, client *scraper.Client, m *metrics.Metrics) (Downloader, error) {
	switch strategy {
	case StrategyLink:
		return &LinkDownloader{metrics: m}, nil
	case StrategyFetch, "":
		return NewFetchDownloader(client, m), nil
	default:
		return nil, fmt.Errorf("unknown download strategy %q", strategy)
	}
}

// LinkDownloader points the client straight at the chart host.
// No bytes pass through this process, so nothing can fail here; a missing
// chart surfaces in the client.
type LinkDownloader struct {
	metrics *metrics.Metrics
}

// Strategy implements Downloader.
func (d *LinkDownloader) Strategy() string { return StrategyLink }

// Download implements Downloader.
func (d *LinkDownloader) Download(_ context.Context, ref Reference, name string) (*Download, error) {
	if d.metrics != nil {
		d.metrics.RecordDownload(StrategyLink, "ok")
	}
	return &Download{
		Filename:    Filename(ref.Roll.String(), name, time.Time{}),
		RedirectURL: ref.URL,
	}, nil
}

// FetchDownloader reads the chart bytes and returns them as an attachment.
type FetchDownloader struct {
	client  *scraper.Client
	flight  *scraper.Flight[*scraper.Response]
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewFetchDownloader creates a FetchDownloader.
func NewFetchDownloader(client *scraper.Client, m *metrics.Metrics) *FetchDownloader {
	return &FetchDownloader{
		client:  client,
		flight:  scraper.NewFlight[*scraper.Response]("download", m),
		metrics: m,
		now:     time.Now,
	}
}

// Strategy implements Downloader.
func (d *FetchDownloader) Strategy() string { return StrategyFetch }

// Download implements Downloader.
func (d *FetchDownloader) Download(ctx context.Context, ref Reference, name string) (*Download, error) {
	content, contentType, err := d.Fetch(ctx, ref.URL)
	if d.metrics != nil {
		d.metrics.RecordDownload(StrategyFetch, domerrors.Kind(err))
	}
	if err != nil {
		slog.DebugContext(ctx, "Chart download failed", "url", ref.URL, "error", err)
		return nil, err
	}
	return &Download{
		Filename:    Filename(ref.Roll.String(), name, d.now()),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// Fetch reads the image at url and classifies failures:
// 401/403 is DownloadBlockedError, any other non-2xx or a body that is not
// an image is NotFoundError, and a transport failure is NetworkError.
func (d *FetchDownloader) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := d.flight.Do(ctx, url, func(ctx context.Context) (*scraper.Response, error) {
		return d.client.Get(ctx, url)
	})
	if err != nil {
		return nil, "", domerrors.NewNetworkError(url, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, "", domerrors.NewDownloadBlockedError(url, resp.StatusCode)
	case !resp.OK():
		return nil, "", domerrors.NewNotFoundError(url, resp.StatusCode, nil)
	case !IsImage(resp.Body):
		return nil, "", domerrors.NewNotFoundError(url, resp.StatusCode,
			fmt.Errorf("response is not an image (content-type %q)", resp.ContentType()))
	}

	contentType := resp.ContentType()
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return resp.Body, contentType, nil
}
