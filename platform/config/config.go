// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// JWTConfig provides JWT validation settings for admin middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// WebhookAuthConfig provides the shared key expected on gateway webhook calls.
type WebhookAuthConfig interface {
	GetWebhookAPIKey() string
}

// GatewayConfig provides settings for the mobile messaging gateway client.
type GatewayConfig interface {
	GetGatewayBaseURL() string
	GetGatewayAPIKey() string
}

// ContentAPIConfig provides settings for the content system client.
type ContentAPIConfig interface {
	GetContentAPIBaseURL() string
	GetContentAPIKey() string
	GetRegistrationSource() string
}

// SchedulerConfig provides settings for the completion retry queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetCompletionRetryDelay() time.Duration
}

// DedupConfig provides settings for inbound duplicate suppression.
type DedupConfig interface {
	GetRedisURL() string
	GetDedupTTL() time.Duration
}

// AlertConfig provides settings for operational alert emails.
type AlertConfig interface {
	GetAlertsEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetAlertFromAddress() string
	GetAlertToAddress() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	WebhookAPIKey        string
	CORSAllowAll         bool
	CORSOrigins          []string
	GatewayBaseURL       string
	GatewayAPIKey        string
	ContentAPIBaseURL    string
	ContentAPIKey        string
	RegistrationSource   string
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	CompletionRetryDelay time.Duration
	DedupTTL             time.Duration
	AlertsEnabled        bool
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	AlertFromAddress     string
	AlertToAddress       string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// WebhookAuthConfig implementation
func (c *Config) GetWebhookAPIKey() string { return c.WebhookAPIKey }

// GatewayConfig implementation
func (c *Config) GetGatewayBaseURL() string { return c.GatewayBaseURL }
func (c *Config) GetGatewayAPIKey() string  { return c.GatewayAPIKey }

// ContentAPIConfig implementation
func (c *Config) GetContentAPIBaseURL() string  { return c.ContentAPIBaseURL }
func (c *Config) GetContentAPIKey() string      { return c.ContentAPIKey }
func (c *Config) GetRegistrationSource() string { return c.RegistrationSource }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                    { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool              { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetCompletionRetryDelay() time.Duration { return c.CompletionRetryDelay }

// DedupConfig implementation
func (c *Config) GetDedupTTL() time.Duration { return c.DedupTTL }

// AlertConfig implementation
func (c *Config) GetAlertsEnabled() bool      { return c.AlertsEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetAlertFromAddress() string { return c.AlertFromAddress }
func (c *Config) GetAlertToAddress() string   { return c.AlertToAddress }

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from the environment (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	alertsEnabled := strings.EqualFold(getEnv("ALERTS_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		WebhookAPIKey:        getEnv("WEBHOOK_API_KEY", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		GatewayBaseURL:       getEnv("GATEWAY_BASE_URL", ""),
		GatewayAPIKey:        getEnv("GATEWAY_API_KEY", ""),
		ContentAPIBaseURL:    getEnv("CONTENT_API_BASE_URL", ""),
		ContentAPIKey:        getEnv("CONTENT_API_KEY", ""),
		RegistrationSource:   getEnv("CONTENT_API_REGISTRATION_SOURCE", "sms"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		CompletionRetryDelay: mustDuration(getEnv("COMPLETION_RETRY_DELAY", "5m")),
		DedupTTL:             mustDuration(getEnv("INBOUND_DEDUP_TTL", "10m")),
		AlertsEnabled:        alertsEnabled,
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		AlertFromAddress:     getEnv("ALERT_FROM_ADDRESS", ""),
		AlertToAddress:       getEnv("ALERT_TO_ADDRESS", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.WebhookAPIKey == "" {
		return nil, fmt.Errorf("WEBHOOK_API_KEY is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.GatewayBaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	if cfg.ContentAPIBaseURL == "" {
		return nil, fmt.Errorf("CONTENT_API_BASE_URL is required")
	}
	if cfg.AlertsEnabled && (cfg.SMTPHost == "" || cfg.AlertToAddress == "" || cfg.AlertFromAddress == "") {
		return nil, fmt.Errorf("SMTP_HOST, ALERT_FROM_ADDRESS and ALERT_TO_ADDRESS are required when ALERTS_ENABLED is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
