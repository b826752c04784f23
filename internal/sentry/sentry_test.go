package sentry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domerrors "github.com/must-gpa/chartlet/internal/errors"
)

func TestInitialize_EmptyToken(t *testing.T) {
	if err := Initialize(Config{Token: ""}); err != nil {
		t.Errorf("Expected nil error for empty token, got %v", err)
	}
}

func TestInitialize_MissingHost(t *testing.T) {
	if err := Initialize(Config{Token: "test-token", Host: ""}); err == nil {
		t.Error("Expected error when host is missing")
	}
}

func TestDSN(t *testing.T) {
	got := Config{Token: "tok", Host: "errors.betterstack.com"}.DSN()
	if got != "https://tok@errors.betterstack.com/1" {
		t.Errorf("DSN() = %q", got)
	}
}

func TestShouldReport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", domerrors.NewValidationError("roll_number", domerrors.MsgInvalidRoll), false},
		{"not found", domerrors.NewNotFoundError("u", 404, nil), false},
		{"blocked", domerrors.NewDownloadBlockedError("u", 403), false},
		{"network", fmt.Errorf("fetch: %w", domerrors.NewNetworkError("u", errors.New("reset"))), false},
		{"rate limited", domerrors.ErrRateLimitExceeded, false},
		{"pdf failure", errors.New("pdf: broken image"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldReport(tt.err); got != tt.want {
				t.Errorf("ShouldReport() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCaptureExceptionDisabledIsNoop(t *testing.T) {
	// Must not panic without an initialized client.
	CaptureException(context.Background(), errors.New("boom"))
}
