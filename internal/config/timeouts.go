// Timeouts shared by the server and the webhook adapters.
//
// LINE reply tokens are single use and expire about a minute after the event,
// and the loading animation shows for at most 60 seconds. Event processing is
// therefore capped at 60s and a throttled reply never waits longer than
// ReplyMaxWait.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing bounds the handling of a single event.
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is short since chat platforms send small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite covers a synchronous activity reply.
	WebhookHTTPWrite = 65 * time.Second

	// WebhookHTTPIdle is the keep-alive idle timeout.
	WebhookHTTPIdle = 120 * time.Second

	// ReplyMaxWait caps how long a reply waits on the global limiter.
	ReplyMaxWait = 5 * time.Second
)

// Health checks
const (
	// ReadinessCheck bounds /readyz, including the store round trip.
	ReadinessCheck = 5 * time.Second

	// StartupCheck bounds the card catalog and store checks run before serving.
	StartupCheck = 15 * time.Second
)

// R2 store
const (
	// R2LockTTL is the default lease on an availability record lock.
	R2LockTTL = 30 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the default time in-flight requests and events get to finish.
	GracefulShutdown = 30 * time.Second
)
