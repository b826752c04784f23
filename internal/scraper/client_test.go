package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientGet(t *testing.T) {
	t.Parallel()

	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer srv.Close()

	c := NewClient(Options{Timeout: 5 * time.Second})
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !resp.OK() {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != "jpegbytes" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.ContentType() != "image/jpeg" {
		t.Errorf("content type = %q", resp.ContentType())
	}
	req := <-seen
	if req.Method != http.MethodGet {
		t.Errorf("method = %s", req.Method)
	}
	if ua := req.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Mozilla/5.0") {
		t.Errorf("unexpected User-Agent %q", ua)
	}
}

func TestClientNonSuccessIsNotAnError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	c := NewClient(Options{Timeout: 5 * time.Second})
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound || resp.OK() {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if hits.Load() != 1 {
		t.Errorf("expected exactly one request, got %d", hits.Load())
	}
}

func TestClientHeadSkipsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewClient(Options{Timeout: time.Second}).Head(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if len(resp.Body) != 0 || !resp.OK() {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestClientGzip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("compressed payload"))
	_ = zw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	resp, err := NewClient(Options{Timeout: time.Second}).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(resp.Body) != "compressed payload" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestClientTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{Timeout: time.Second}).Get(context.Background(), url)
	if err == nil {
		t.Fatal("expected transport error")
	}
}

func TestClientRateLimiterHonoursContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{Timeout: time.Second, RPS: 0.001, Burst: 1})
	if _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("first request should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx, srv.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded from limiter, got %v", err)
	}
}

func TestRandomUserAgent(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if ua := c.randomUserAgent(); ua == "" {
		t.Error("fallback user agent should not be empty")
	}
}

func TestClientRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(bytes.Repeat([]byte{0xFF}, len(r.URL.Path)+64))
	}))
	defer srv.Close()

	c := NewClient(Options{Timeout: 5 * time.Second, MaxBodySize: 64})

	if _, err := c.Get(context.Background(), srv.URL+"/x"); !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("expected ErrBodyTooLarge, got %v", err)
	}

	exact := NewClient(Options{Timeout: 5 * time.Second, MaxBodySize: 66})
	resp, err := exact.Get(context.Background(), srv.URL+"/x")
	if err != nil {
		t.Fatalf("body at the limit should pass: %v", err)
	}
	if len(resp.Body) != 66 {
		t.Errorf("body length = %d, want 66", len(resp.Body))
	}
}

func TestClientDefaultBodyLimit(t *testing.T) {
	t.Parallel()
	if c := NewClient(Options{}); c.maxBody != MaxBodySize {
		t.Errorf("maxBody = %d, want %d", c.maxBody, MaxBodySize)
	}
}
