// Package config provides default values for configuration.
package config

import "time"

// Server defaults
const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8080
	DefaultReadTimeout = 30 * time.Second
	// Outlives DefaultWebhookTimeout so a slow workflow still gets its response written.
	DefaultWriteTimeout = 6 * time.Minute
)

// Webhook defaults
const (
	DefaultWebhookTimeout = 5 * time.Minute
)

// Trigger rate limit defaults
const (
	DefaultTriggerRequestsPerMinute = 30
	DefaultTriggerBurst             = 5
)

// Sheets defaults
const (
	DefaultCategoryRange = "Categories!A:A"
	DefaultStatusRange   = "Ideas!A:A"
	// Keeps a hung spreadsheet read from stalling page renders and trigger responses.
	DefaultSheetsTimeout = 15 * time.Second
)

// Auth defaults
const (
	DefaultDashboardUser = "admin"
)

// Logging defaults
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Operation names that can be bound to a webhook URL.
const (
	OperationCreateIdea   = "create_idea"
	OperationCreatePrompt = "create_prompt"
	OperationCreateImage  = "create_image"
	OperationCreatePost   = "create_post"
	// OperationWebhook is the single hook behind the legacy WEBHOOK_URL variable.
	OperationWebhook = "webhook"
)

// OperationNames lists every operation in display order.
var OperationNames = []string{
	OperationCreateIdea,
	OperationCreatePrompt,
	OperationCreateImage,
	OperationCreatePost,
	OperationWebhook,
}
