// Package config handles configuration loading from environment variables and optional YAML files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Webhooks  WebhooksConfig
	RateLimit RateLimitConfig
	Sheets    SheetsConfig
	Auth      AuthConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// TrustProxy makes X-Forwarded-For and X-Real-IP identify the client.
	TrustProxy   bool
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// OperationConfig binds one operation to its webhook and the page of the workflow behind it.
type OperationConfig struct {
	URL         string
	WorkflowURL string
}

// WebhooksConfig holds outbound webhook settings.
type WebhooksConfig struct {
	Timeout    time.Duration
	Operations map[string]OperationConfig
}

// URL returns the webhook URL bound to an operation, or "" when unset.
func (w WebhooksConfig) URL(operation string) string {
	return w.Operations[operation].URL
}

// WorkflowURL returns the workflow page URL for an operation, or "" when unset.
func (w WebhooksConfig) WorkflowURL(operation string) string {
	return w.Operations[operation].WorkflowURL
}

// ConfiguredCount returns how many operations have a webhook URL.
func (w WebhooksConfig) ConfiguredCount() int {
	n := 0
	for _, op := range w.Operations {
		if op.URL != "" {
			n++
		}
	}
	return n
}

// RateLimitConfig throttles trigger requests per client. Zero RequestsPerMinute disables it.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// Enabled reports whether trigger requests are throttled.
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerMinute > 0
}

// SheetsConfig holds the spreadsheet source settings.
type SheetsConfig struct {
	SpreadsheetID   string
	CategoryRange   string
	StatusRange     string
	CredentialsFile string
	CredentialsJSON string
	// Timeout bounds each range read.
	Timeout         time.Duration
}

// Configured reports whether a spreadsheet is set.
func (s SheetsConfig) Configured() bool {
	return s.SpreadsheetID != ""
}

// AuthConfig holds dashboard Basic auth settings.
type AuthConfig struct {
	Username     string
	PasswordHash string
}

// Enabled reports whether Basic auth is required.
func (a AuthConfig) Enabled() bool {
	return a.PasswordHash != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	ops := make(map[string]OperationConfig, len(OperationNames))
	for _, name := range OperationNames {
		ops[name] = OperationConfig{}
	}
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		Webhooks: WebhooksConfig{
			Timeout:    DefaultWebhookTimeout,
			Operations: ops,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: DefaultTriggerRequestsPerMinute,
			Burst:             DefaultTriggerBurst,
		},
		Sheets: SheetsConfig{
			CategoryRange: DefaultCategoryRange,
			StatusRange:   DefaultStatusRange,
			Timeout:       DefaultSheetsTimeout,
		},
		Auth: AuthConfig{
			Username: DefaultDashboardUser,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load builds the configuration from defaults, the optional config file and
// environment variables, in that order of precedence (environment wins).
func Load() (*Config, error) {
	cfg := Default()

	if err := loadConfigFile(cfg, GetConfigFilePath()); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.TrustProxy = getEnvBool("TRUST_PROXY_HEADERS", cfg.Server.TrustProxy)

	cfg.Webhooks.Timeout = getEnvDuration("WEBHOOK_TIMEOUT", cfg.Webhooks.Timeout)
	for _, name := range OperationNames {
		urlKey, workflowKey := operationEnvKeys(name)
		op := cfg.Webhooks.Operations[name]
		op.URL = getEnv(urlKey, op.URL)
		op.WorkflowURL = getEnv(workflowKey, op.WorkflowURL)
		cfg.Webhooks.Operations[name] = op
	}

	cfg.RateLimit.RequestsPerMinute = getEnvInt("TRIGGER_RATE_LIMIT_PER_MINUTE", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.Burst = getEnvInt("TRIGGER_RATE_LIMIT_BURST", cfg.RateLimit.Burst)

	cfg.Sheets.SpreadsheetID = getEnv("SHEETS_SPREADSHEET_ID", cfg.Sheets.SpreadsheetID)
	cfg.Sheets.CategoryRange = getEnv("SHEETS_CATEGORY_RANGE", cfg.Sheets.CategoryRange)
	cfg.Sheets.StatusRange = getEnv("SHEETS_STATUS_RANGE", cfg.Sheets.StatusRange)
	cfg.Sheets.CredentialsFile = getEnv("SHEETS_CREDENTIALS_FILE", cfg.Sheets.CredentialsFile)
	cfg.Sheets.CredentialsJSON = getEnv("SHEETS_CREDENTIALS_JSON", cfg.Sheets.CredentialsJSON)
	cfg.Sheets.Timeout = getEnvDuration("SHEETS_TIMEOUT", cfg.Sheets.Timeout)

	cfg.Auth.Username = getEnv("DASHBOARD_USER", cfg.Auth.Username)
	cfg.Auth.PasswordHash = getEnv("DASHBOARD_PASSWORD_HASH", cfg.Auth.PasswordHash)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
}

// operationEnvKeys returns the variables holding the webhook and workflow page URLs.
// The legacy operation keeps its historical WEBHOOK_URL name.
func operationEnvKeys(operation string) (urlKey, workflowKey string) {
	if operation == OperationWebhook {
		return "WEBHOOK_URL", "WORKFLOW_URL"
	}
	prefix := strings.ToUpper(operation)
	return prefix + "_WEBHOOK_URL", prefix + "_WORKFLOW_URL"
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Webhooks.Timeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive")
	}
	for _, name := range OperationNames {
		op := c.Webhooks.Operations[name]
		if err := validateURL(op.URL); err != nil {
			return fmt.Errorf("invalid webhook URL for %s: %w", name, err)
		}
		if err := validateURL(op.WorkflowURL); err != nil {
			return fmt.Errorf("invalid workflow URL for %s: %w", name, err)
		}
	}
	if c.RateLimit.Enabled() && c.RateLimit.Burst < 1 {
		return fmt.Errorf("TRIGGER_RATE_LIMIT_BURST must be at least 1")
	}
	if c.Sheets.Configured() && (c.Sheets.CategoryRange == "" || c.Sheets.StatusRange == "") {
		return fmt.Errorf("sheet ranges must be set when SHEETS_SPREADSHEET_ID is set")
	}
	if c.Sheets.Timeout <= 0 {
		return fmt.Errorf("SHEETS_TIMEOUT must be positive")
	}
	if c.Auth.Enabled() && c.Auth.Username == "" {
		return fmt.Errorf("DASHBOARD_USER must be set when DASHBOARD_PASSWORD_HASH is set")
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAny(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value, exists := os.LookupEnv(key); exists && value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
