// Package domain contains the core business entities and value objects.
package domain

import (
	"errors"
	"fmt"
)

// Reasons attached to a ProviderError.
const (
	ReasonMissingCredential = "missing_credential"
	ReasonAuth              = "auth"
	ReasonQuota             = "quota"
	ReasonTimeout           = "timeout"
	ReasonNotFound          = "not_found"
	ReasonMalformed         = "malformed"
	ReasonTransport         = "transport"
	ReasonUpstream          = "upstream"
)

// ValidationError is returned for input rejected before any provider is called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProviderError wraps a failed provider call with the upstream cause.
type ProviderError struct {
	Provider ProviderID
	Reason   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("provider %s failed (%s): %v", e.Provider, e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UnknownProviderError is returned when a provider identifier is outside the known set.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Provider)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsProviderError checks if an error is a ProviderError.
func IsProviderError(err error) bool {
	var p *ProviderError
	return errors.As(err, &p)
}

// IsUnknownProviderError checks if an error is an UnknownProviderError.
func IsUnknownProviderError(err error) bool {
	var u *UnknownProviderError
	return errors.As(err, &u)
}
