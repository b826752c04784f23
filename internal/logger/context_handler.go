package logger

import (
	"context"
	"log/slog"

	"github.com/must-gpa/chartlet/internal/ctxutil"
)

// ContextHandler stamps request_id, client_ip and roll_number from the
// context onto each record logged with a *Context call.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctxutil.GetRequestID(ctx); ok && id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	for key, val := range map[string]string{
		"client_ip":   ctxutil.GetClientIP(ctx),
		"roll_number": ctxutil.GetRoll(ctx),
	} {
		if val != "" {
			r.AddAttrs(slog.String(key, val))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
