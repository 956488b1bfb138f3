package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/interview-linebot-go/internal/ctxutil"
)

// ContextHandler adds the ctxutil tracing values (user_id, chat_id,
// request_id, channel) to every record logged with a context.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler wraps handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds the non-empty tracing values and delegates.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if v := ctxutil.GetUserID(ctx); v != "" {
			r.AddAttrs(slog.String("user_id", v))
		}
		if v := ctxutil.GetChatID(ctx); v != "" {
			r.AddAttrs(slog.String("chat_id", v))
		}
		if v, ok := ctxutil.GetRequestID(ctx); ok {
			r.AddAttrs(slog.String("request_id", v))
		}
		if v := ctxutil.GetChannel(ctx); v != "" {
			r.AddAttrs(slog.String("channel", v))
		}
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
