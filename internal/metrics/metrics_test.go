package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}

	if m.ProbeTotal == nil {
		t.Error("ProbeTotal is nil")
	}
	if m.ProbeDurationSeconds == nil {
		t.Error("ProbeDurationSeconds is nil")
	}
	if m.DownloadTotal == nil {
		t.Error("DownloadTotal is nil")
	}
	if m.BatchSize == nil {
		t.Error("BatchSize is nil")
	}
	if m.HTTPErrorsTotal == nil {
		t.Error("HTTPErrorsTotal is nil")
	}
	if m.RateLimiterDropped == nil {
		t.Error("RateLimiterDropped is nil")
	}
	if m.SingleflightDedupTotal == nil {
		t.Error("SingleflightDedupTotal is nil")
	}
	if m.ArchiveUploadsTotal == nil {
		t.Error("ArchiveUploadsTotal is nil")
	}
}

func TestRecordProbe(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordProbe("image", "ok", 0.2)
	m.RecordProbe("image", "not_found", 0.1)
	m.RecordProbe("status", "ok", 0.05)

	if got := testutil.ToFloat64(m.ProbeTotal.WithLabelValues("image", "ok")); got != 1 {
		t.Errorf("image/ok = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.ProbeTotal); got != 3 {
		t.Errorf("probe series = %d, want 3", got)
	}
}

func TestRecordDownload(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordDownload("fetch", "ok")
	m.RecordDownload("fetch", "ok")
	m.RecordDownload("link", "ok")

	if got := testutil.ToFloat64(m.DownloadTotal.WithLabelValues("fetch", "ok")); got != 2 {
		t.Errorf("fetch/ok = %v, want 2", got)
	}
}

func TestRecordMisc(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordBatch(30)
	m.RecordHTTPError("invalid", "/get_gpa")
	m.RecordRateLimiterWait("scraper", 0.01)
	m.RecordRateLimiterDrop("client")
	m.RecordSingleflightDedup("probe")
	m.RecordArchiveUpload("success")

	if got := testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("client")); got != 1 {
		t.Errorf("client drops = %v, want 1", got)
	}
}
