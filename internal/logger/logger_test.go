package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/must-gpa/chartlet/internal/ctxutil"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_KeyRenaming(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("slow chart host")

	entry := decode(t, &buf)
	if entry["message"] != "slow chart host" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp key missing")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at error level, got %s", buf.String())
	}
	if log.Level() != slog.LevelError {
		t.Errorf("Level() = %v", log.Level())
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("resolver").
		WithRequestID("req-9").
		WithError(errors.New("boom")).
		WithFields(map[string]any{"roll_number": "FA21-BCS-001"}).
		WithField("strategy", "image").
		Info("probe failed")

	entry := decode(t, &buf)
	want := map[string]any{
		"module":      "resolver",
		"request_id":  "req-9",
		"error":       "boom",
		"roll_number": "FA21-BCS-001",
		"strategy":    "image",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithRequestID(context.Background(), "ctx-req")
	log.InfoContext(ctx, "handled")

	if entry := decode(t, &buf); entry["request_id"] != "ctx-req" {
		t.Errorf("request_id = %v, want ctx-req", entry["request_id"])
	}
}

func TestLogger_Formatted(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Infof("expanded %d rolls", 3)
	if entry := decode(t, &buf); entry["message"] != "expanded 3 rolls" {
		t.Errorf("message = %v", entry["message"])
	}
}
