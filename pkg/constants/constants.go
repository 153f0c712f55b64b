// Package constants defines all constant values used throughout the application.
//
// This package centralizes:
// - Outbound webhook payload literals (types, actions, origin tags)
// - Environment variable names and their legacy fallbacks
// - Time-based constraints and timeouts
// - Slack request security limits
//
// The payload literals form the wire contract with the downstream automation
// workflows and must not change without coordinating with their owners.
package constants

import "time"

// Payload type discriminators sent in the "type" field.
const (
	PayloadTypeDataSubmission = "data_submission"
	PayloadTypeApprovalAction = "approval_action"
)

// Approval actions sent in the "action" field.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Origin tags sent in the "source" field.
const (
	// SourceSlackBot marks payloads produced by user interactions.
	SourceSlackBot = "slack_bot"

	// SourceWebhookTest marks payloads produced by the check-webhooks command
	// so downstream workflows can discard them.
	SourceWebhookTest = "webhook_test"
)

// TimestampLayout renders payload timestamps as ISO-8601 UTC with millisecond
// precision, e.g. 2024-01-02T15:04:05.000Z. Always format a UTC time with it.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Environment variable names.
const (
	EnvSlackBotToken      = "SLACK_BOT_TOKEN"
	EnvSlackSigningSecret = "SLACK_SIGNING_SECRET"
	EnvSlackAppToken      = "SLACK_APP_TOKEN"
	EnvDataWebhookURL     = "DATA_WEBHOOK_URL"
	EnvApprovalWebhookURL = "APPROVAL_WEBHOOK_URL"
	EnvAuthUser           = "AUTH_USER"
	EnvAuthPassword       = "AUTH_PASSWORD"
	EnvWebhookTimeout     = "WEBHOOK_TIMEOUT"
	EnvPort               = "PORT"
	EnvLogLevel           = "LOG_LEVEL"
	EnvEnvFile            = "ENV_FILE"
)

// Legacy environment variable names accepted as fallbacks.
// Existing deployments configured the bot with an N8N_ prefix.
const (
	EnvLegacyDataWebhookURL     = "N8N_DATA_WEBHOOK_URL"
	EnvLegacyApprovalWebhookURL = "N8N_APPROVAL_WEBHOOK_URL"
	EnvLegacyAuthUser           = "N8N_AUTH_USER"
	EnvLegacyAuthPassword       = "N8N_AUTH_PASSWORD"
)

// Time-based security limits.
const (
	// MaxSlackRequestAge is the maximum age of a Slack request signature.
	// Requests older than this are rejected to prevent replay attacks.
	// Slack recommends 5 minutes as a reasonable window.
	MaxSlackRequestAge = 300 // seconds (5 minutes)
)

// Outbound webhook limits.
const (
	// DefaultWebhookTimeout bounds a single outbound webhook POST.
	DefaultWebhookTimeout = 10 * time.Second

	// MaxLoggedResponseBody caps how much of a webhook response body is read
	// for operator logs.
	MaxLoggedResponseBody = 4096
)

// Timeouts for various operations.
const (
	// SlackAPITimeout bounds follow-up Slack Web API calls (views.update,
	// chat.postMessage) made after the interaction has been acknowledged.
	SlackAPITimeout = 10 * time.Second

	// HandlerTimeout bounds the synchronous part of an HTTP handler.
	HandlerTimeout = 30 * time.Second

	// ServerReadTimeout is the maximum duration for reading the entire request.
	// Prevents slow client attacks.
	ServerReadTimeout = 10 * time.Second

	// ServerWriteTimeout is the maximum duration before timing out writes.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	ServerIdleTimeout = 120 * time.Second

	// LivenessCheckTimeout bounds all liveness checks of one /health request.
	LivenessCheckTimeout = 5 * time.Second

	// ReadinessCheckTimeout bounds all readiness checks of one /ready request.
	ReadinessCheckTimeout = 10 * time.Second

	// GracefulShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Allows in-flight requests and webhook dispatches to complete.
	GracefulShutdownTimeout = 30 * time.Second
)

// Default configuration values.
const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultEnvFile is the dotenv file read at startup when present.
	DefaultEnvFile = ".env"
)
