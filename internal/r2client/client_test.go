package r2client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeR2 is a minimal path-style S3 endpoint holding objects in memory.
type fakeR2 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeR2) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.URL.Path
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("ETag", `"etag-1"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodGet {
			_, _ = w.Write(body)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeR2) {
	t.Helper()
	fake := &fakeR2{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		Endpoint:    srv.URL,
		AccessKeyID: "test-key",
		SecretKey:   "test-secret",
		BucketName:  "charts",
		Prefix:      "bundles/",
	})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) }
	return c, fake
}

func TestNewRequiresConfig(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), Config{Endpoint: "https://x", AccessKeyID: "a"})
	assert.Error(t, err)
}

func TestArchiveKey(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t)

	key := c.ArchiveKey("BCS-21")
	assert.True(t, strings.HasPrefix(key, "bundles/2024/05/06/"), key)
	assert.True(t, strings.HasSuffix(key, "-BCS-21.pdf"), key)
	assert.NotEqual(t, key, c.ArchiveKey("BCS-21"), "keys must be unique")
}

func TestArchivePDFRoundTrip(t *testing.T) {
	t.Parallel()
	c, fake := newTestClient(t)
	ctx := context.Background()

	pdf := []byte("%PDF-1.3 fake")
	key, err := c.ArchivePDF(ctx, "class", pdf)
	require.NoError(t, err)

	fake.mu.Lock()
	stored := fake.objects["/charts/"+key]
	contentType := fake.types["/charts/"+key]
	fake.mu.Unlock()
	assert.True(t, bytes.Contains(stored, pdf), "stored body should contain the bundle")
	assert.Equal(t, "application/pdf", contentType)

	etag, err := c.Stat(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "etag-1", etag)

	b, err := c.Open(ctx, key)
	require.NoError(t, err)
	defer b.Body.Close()
	body, err := io.ReadAll(b.Body)
	require.NoError(t, err)
	assert.Equal(t, stored, body)
	assert.Equal(t, "etag-1", b.ETag)
	assert.Equal(t, int64(len(stored)), b.Size)
}

func TestOwns(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t)

	tests := []struct {
		key  string
		want bool
	}{
		{"bundles/2024/05/06/abc-class.pdf", true},
		{"", false},
		{"other/2024/05/06/abc-class.pdf", false},
		{"bundles/2024/05/06/abc-class.txt", false},
		{"bundles/../secrets.pdf", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Owns(tt.key), tt.key)
	}
}

func TestMissingBundle(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.Stat(ctx, "bundles/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Open(ctx, "bundles/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Open(ctx, "elsewhere/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}
