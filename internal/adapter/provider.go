// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to abstract provider-specific APIs behind a common interface.
package adapter

import (
	"context"

	"github.com/hpn/modular-ai/internal/domain"
)

// Caller defines the interface for provider callers.
// All provider implementations must satisfy this interface.
type Caller interface {
	// Call turns a prompt into a response.
	// Failures are reported as *domain.ProviderError carrying the upstream cause.
	Call(ctx context.Context, prompt string) (domain.AIResponse, error)

	// Name returns the provider's identifier.
	Name() domain.ProviderID
}
