package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError wraps a failure to obtain settings at all: the .env file could not
// be parsed, the named config file could not be read, or viper could not decode it.
// The server refuses to start on it.
type ConfigError struct {
	Op  string // dotenv, read or unmarshal
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s error: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ValidationError lists every rule Configuration.Validate found broken, one
// message per key (e.g. "server.port must be between 1 and 65535").
// A missing API key is not among them; that only degrades the primary.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid configuration: " + e.Errors[0]
	}
	return fmt.Sprintf("invalid configuration (%d problems):\n  - %s",
		len(e.Errors), strings.Join(e.Errors, "\n  - "))
}

// HasError reports whether any message mentions key, such as "logging.level".
func (e *ValidationError) HasError(key string) bool {
	for _, msg := range e.Errors {
		if strings.Contains(msg, key) {
			return true
		}
	}
	return false
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var c *ConfigError
	return errors.As(err, &c)
}
