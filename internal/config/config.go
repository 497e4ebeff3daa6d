// Package config provides configuration management.
// It loads configuration from environment variables, an optional .env file and config.yaml using Viper.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Primary provider configuration
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`

	// Mock provider configuration
	Mock MockConfig `json:"mock" mapstructure:"mock"`

	// Session configuration
	Session SessionConfig `json:"session" mapstructure:"session"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Zero disables it, which the event stream needs.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// ProviderConfig holds the primary (Gemini) provider configuration.
type ProviderConfig struct {
	// APIKey is the Gemini API credential. Empty is allowed; calls then fall back.
	APIKey string `json:"-" mapstructure:"api_key"`

	// Model is the generation model name.
	Model string `json:"model" mapstructure:"model"`

	// BaseURL overrides the Gemini API endpoint (empty for the SDK default).
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds each HTTP call to the provider.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// MockConfig holds the mock provider configuration.
type MockConfig struct {
	// LatencyMillis is the simulated latency of each mock call.
	LatencyMillis int `json:"latency_ms" mapstructure:"latency_ms"`
}

// SessionConfig holds browser session configuration.
type SessionConfig struct {
	// TTLMinutes is how long an idle session is kept.
	TTLMinutes int `json:"ttl_minutes" mapstructure:"ttl_minutes"`

	// CookieName is the name of the session cookie.
	CookieName string `json:"cookie_name" mapstructure:"cookie_name"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`
}

// HasCredential reports whether a primary provider API key is configured.
func (c *Configuration) HasCredential() bool {
	return strings.TrimSpace(c.Provider.APIKey) != ""
}

// ProviderTimeout returns the per-call provider timeout.
func (c *Configuration) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// MockLatency returns the simulated mock latency.
func (c *Configuration) MockLatency() time.Duration {
	return time.Duration(c.Mock.LatencyMillis) * time.Millisecond
}

// SessionTTL returns the idle session lifetime.
func (c *Configuration) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// Address returns host:port for the HTTP listener.
func (c *Configuration) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate validates the configuration and returns an error if required fields are missing.
// A missing API key is not an error.
func (c *Configuration) Validate() error {
	var validationErrors []string

	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	// Validate provider configuration
	if c.Provider.Model == "" {
		validationErrors = append(validationErrors, "provider.model is required")
	}
	if c.Provider.TimeoutSeconds < 0 {
		validationErrors = append(validationErrors, "provider.timeout_seconds cannot be negative")
	}

	if c.Mock.LatencyMillis < 0 {
		validationErrors = append(validationErrors, "mock.latency_ms cannot be negative")
	}

	// Validate session configuration
	if c.Session.TTLMinutes <= 0 {
		validationErrors = append(validationErrors, "session.ttl_minutes must be positive")
	}
	if c.Session.CookieName == "" {
		validationErrors = append(validationErrors, "session.cookie_name is required")
	}

	// Validate logging configuration
	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "text" {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format '%s' is invalid, must be one of: json, text",
			c.Logging.Format,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
