// Package config provides configuration management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "MODULAR_AI"

	// EnvGeminiAPIKey is the conventional Gemini credential variable.
	EnvGeminiAPIKey = "GEMINI_API_KEY"

	// EnvAPIKey is the bare credential variable the front-end has always read.
	EnvAPIKey = "API_KEY"
)

// LoadDotEnv reads KEY=VALUE pairs from path into the environment.
// A missing file is not an error, and variables already set are never overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &ConfigError{Op: "dotenv", Err: err}
	}
	return nil
}

// Load builds the configuration from environment variables and files.
// Priority order (highest to lowest):
// 1. Environment variables (prefixed with MODULAR_AI_)
// 2. config.yaml (configPath, or the default search paths)
// 3. Default values
//
// The API key additionally falls back to GEMINI_API_KEY and then API_KEY.
func Load(configPath string) (*Configuration, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure Viper
	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	// Add config search paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/modular-ai")
		v.AddConfigPath("$HOME/.modular-ai")
	}

	// Enable environment variable override
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// The config file is optional unless one was named explicitly.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	}

	// Unmarshal configuration
	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	loadAPIKeyFallbacks(&cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 0)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Provider defaults
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "gemini-2.5-flash")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.timeout_seconds", 30)

	// Mock defaults
	v.SetDefault("mock.latency_ms", 1000)

	// Session defaults
	v.SetDefault("session.ttl_minutes", 30)
	v.SetDefault("session.cookie_name", "modular_ai_session")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// loadAPIKeyFallbacks fills the API key from GEMINI_API_KEY or API_KEY when
// neither the config file nor MODULAR_AI_PROVIDER_API_KEY provided one.
func loadAPIKeyFallbacks(cfg *Configuration) {
	if cfg.HasCredential() {
		cfg.Provider.APIKey = strings.TrimSpace(cfg.Provider.APIKey)
		return
	}

	for _, name := range []string{EnvGeminiAPIKey, EnvAPIKey} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			cfg.Provider.APIKey = key
			return
		}
	}
}
