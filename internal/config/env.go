package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvLineChannelAccessToken = "RECRUIT_LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "RECRUIT_LINE_CHANNEL_SECRET"

	// Server
	EnvPort            = "RECRUIT_PORT"
	EnvLogLevel        = "RECRUIT_LOG_LEVEL"
	EnvShutdownTimeout = "RECRUIT_SHUTDOWN_TIMEOUT"
	EnvWebhookTimeout  = "RECRUIT_WEBHOOK_TIMEOUT"
	EnvGlobalRateRPS   = "RECRUIT_GLOBAL_RATE_RPS"

	// Data
	EnvDataDir       = "RECRUIT_DATA_DIR"
	EnvCardsDir      = "RECRUIT_CARDS_DIR"
	EnvStoreBackend  = "RECRUIT_STORE_BACKEND"
	EnvInterviewKey  = "RECRUIT_INTERVIEW_KEY"
	EnvCandidateName = "RECRUIT_CANDIDATE_NAME"

	// R2 store backend
	EnvR2AccountID       = "RECRUIT_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "RECRUIT_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "RECRUIT_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "RECRUIT_R2_BUCKET_NAME"
	EnvR2Prefix          = "RECRUIT_R2_PREFIX"
	EnvR2LockTTL         = "RECRUIT_R2_LOCK_TTL"

	// Activity endpoint
	EnvActivityEnabled  = "RECRUIT_ACTIVITY_ENABLED"
	EnvActivityUsername = "RECRUIT_ACTIVITY_USERNAME"
	EnvActivityPassword = "RECRUIT_ACTIVITY_PASSWORD"

	// Sentry Feature
	EnvSentryDSN         = "RECRUIT_SENTRY_DSN"
	EnvSentryEnvironment = "RECRUIT_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "RECRUIT_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "RECRUIT_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "RECRUIT_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "RECRUIT_METRICS_USERNAME"
	EnvMetricsPassword = "RECRUIT_METRICS_PASSWORD"
)

// Unprefixed credential names accepted for existing deployments.
const (
	legacyLineChannelAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	legacyLineChannelSecret      = "LINE_CHANNEL_SECRET"
)
