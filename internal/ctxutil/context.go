// Package ctxutil carries per-event tracing values through context.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	chatIDKey    contextKey = "ctxutil.chatID"
	requestIDKey contextKey = "ctxutil.requestID"
	channelKey   contextKey = "ctxutil.channel"
)

// Channel names the transport an event arrived on.
const (
	ChannelLINE     = "line"
	ChannelActivity = "activity"
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func getString(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithUserID adds the sender's platform user ID to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, userIDKey, userID)
}

// GetUserID returns the user ID, or "" when absent.
func GetUserID(ctx context.Context) string {
	return getString(ctx, userIDKey)
}

// WithChatID adds the conversation ID (LINE user/group/room, activity conversation).
func WithChatID(ctx context.Context, chatID string) context.Context {
	return withString(ctx, chatIDKey, chatID)
}

// GetChatID returns the chat ID, or "" when absent.
func GetChatID(ctx context.Context) string {
	return getString(ctx, chatIDKey)
}

// WithRequestID adds the inbound HTTP request ID for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID and whether a non-empty one was set.
func GetRequestID(ctx context.Context) (string, bool) {
	id := getString(ctx, requestIDKey)
	return id, id != ""
}

// WithChannel records which transport adapter produced the event.
func WithChannel(ctx context.Context, channel string) context.Context {
	return withString(ctx, channelKey, channel)
}

// GetChannel returns the transport name, or "" when absent.
func GetChannel(ctx context.Context) string {
	return getString(ctx, channelKey)
}

// PreserveTracing returns a fresh context carrying only the tracing values of
// ctx. It has no deadline and is not canceled with ctx, so LINE events can keep
// processing after the webhook has answered 200. Starting from Background
// avoids retaining the request context (Go issue #64478).
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()
	for _, key := range []contextKey{userIDKey, chatIDKey, requestIDKey, channelKey} {
		if v := getString(ctx, key); v != "" {
			newCtx = withString(newCtx, key, v)
		}
	}
	return newCtx
}
