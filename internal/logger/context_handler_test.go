package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/must-gpa/chartlet/internal/ctxutil"
)

func TestContextHandler_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  func(context.Context) context.Context
		expect map[string]string
		absent []string
	}{
		{
			name:   "empty context adds nothing",
			setup:  func(ctx context.Context) context.Context { return ctx },
			absent: []string{"request_id", "client_ip", "roll_number"},
		},
		{
			name: "request id only",
			setup: func(ctx context.Context) context.Context {
				return ctxutil.WithRequestID(ctx, "req-1")
			},
			expect: map[string]string{"request_id": "req-1"},
			absent: []string{"client_ip", "roll_number"},
		},
		{
			name: "all values",
			setup: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "req-2")
				ctx = ctxutil.WithClientIP(ctx, "10.0.0.9")
				return ctxutil.WithRoll(ctx, "FA21-BCS-001")
			},
			expect: map[string]string{
				"request_id":  "req-2",
				"client_ip":   "10.0.0.9",
				"roll_number": "FA21-BCS-001",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))
			log.InfoContext(tt.setup(context.Background()), "lookup")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to parse JSON: %v", err)
			}
			for k, v := range tt.expect {
				if entry[k] != v {
					t.Errorf("%s = %v, want %q", k, entry[k], v)
				}
			}
			for _, k := range tt.absent {
				if _, ok := entry[k]; ok {
					t.Errorf("%s should be absent, got %v", k, entry[k])
				}
			}
		})
	}
}

func TestContextHandler_EnabledDelegates(t *testing.T) {
	t.Parallel()
	h := NewContextHandler(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled under a warn handler")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled under a warn handler")
	}
}
