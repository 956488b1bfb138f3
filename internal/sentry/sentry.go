// Package sentry initializes error tracking and reports internal faults
// raised while handling chat events.
package sentry

import (
	"context"
	"errors"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/ctxutil"
	"github.com/getsentry/sentry-go"
)

// Config holds Sentry configuration.
type Config struct {
	// DSN of the project. Empty disables error tracking.
	DSN string

	// Environment identifies the deployment (e.g. "production").
	Environment string

	// Release identifies the build; see buildinfo.
	Release string

	// SampleRate controls error sampling (0.0-1.0); zero means 1.0.
	SampleRate float64

	Debug bool
}

// Initialize sets up the SDK. An empty DSN leaves Sentry disabled and returns nil.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return errors.New("sentry: sample rate must be between 0 and 1")
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events. Reports whether everything was sent.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client is bound to the current hub.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureEventError reports err with the tracing values carried by ctx.
// The request hub placed on ctx by sentrygin is preferred; otherwise a clone
// of the current hub is used so tags do not leak between events.
func CaptureEventError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if v := ctxutil.GetChannel(ctx); v != "" {
			scope.SetTag("channel", v)
		}
		if v, ok := ctxutil.GetRequestID(ctx); ok {
			scope.SetTag("request_id", v)
		}
		if v := ctxutil.GetChatID(ctx); v != "" {
			scope.SetTag("chat_id", v)
		}
		if v := ctxutil.GetUserID(ctx); v != "" {
			scope.SetUser(sentry.User{ID: v})
		}
		hub.CaptureException(err)
	})
}
