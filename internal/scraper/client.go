// Package scraper provides the outbound HTTP client used to talk to the
// chart host: browser-like headers, a shared token bucket, gzip handling
// and request collapsing. It never retries; callers decide what a failed
// attempt means.
package scraper

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/corpix/uarand"

	"github.com/must-gpa/chartlet/internal/metrics"
	"github.com/must-gpa/chartlet/internal/ratelimit"
)

// MaxBodySize caps how much of a response body is buffered.
// Chart images are tens of kilobytes; anything larger is not a chart.
const MaxBodySize = 8 << 20

// ErrBodyTooLarge is returned when a body exceeds the client's limit. The
// body is discarded rather than handed on truncated.
var ErrBodyTooLarge = errors.New("response body too large")

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// RPS is the outbound request rate. Zero disables rate limiting.
	RPS   float64
	Burst float64
	// Metrics is optional.
	Metrics *metrics.Metrics
	// MaxBodySize overrides the MaxBodySize default.
	MaxBodySize int64
	// Transport overrides the default transport (tests).
	Transport http.RoundTripper
}

// Response is a fully buffered HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Client is an HTTP client for the chart host with rate limiting
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	userAgents []string
	metrics    *metrics.Metrics
	maxBody    int64
}

// NewClient creates a new scraper client.
func NewClient(opts Options) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			// Redirects are followed; the host answers a missing chart with
			// a plain 404 so the final status is what matters.
		},
		userAgents: generateUserAgents(),
		metrics:    opts.Metrics,
		maxBody:    opts.MaxBodySize,
	}
	if c.maxBody <= 0 {
		c.maxBody = MaxBodySize
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = ratelimit.New(burst, opts.RPS)
	}
	return c
}

// Get performs a single GET request.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url)
}

// Head performs a single HEAD request.
func (c *Client) Head(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, http.MethodHead, url)
}

// Do performs exactly one request and buffers the response.
// Any status code is returned as a Response; only failures to obtain a
// response at all (rate limiter cancelled, DNS, TLS, reset, timeout) are
// returned as errors.
func (c *Client) Do(ctx context.Context, method, url string) (*Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.randomUserAgent())
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	out := &Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	if method == http.MethodHead {
		return out, nil
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	out.Body, err = io.ReadAll(io.LimitReader(reader, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(out.Body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, c.maxBody, url)
	}
	return out, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RecordRateLimiterWait("scraper", time.Since(start).Seconds())
	}
	return nil
}

// randomUserAgent returns a random user agent string
func (c *Client) randomUserAgent() string {
	if len(c.userAgents) == 0 {
		return uarand.GetRandom()
	}
	return c.userAgents[rand.IntN(len(c.userAgents))]
}

// generateUserAgents returns a list of common desktop browser user agents.
// The chart host serves the image to browsers only, so requests look like one.
func generateUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Safari/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	}
}
