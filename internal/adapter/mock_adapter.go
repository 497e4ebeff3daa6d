// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hpn/modular-ai/internal/domain"
)

// DefaultMockLatency is the simulated network latency of the mock provider.
const DefaultMockLatency = time.Second

// MockAdapter implements Caller with a canned, deterministic response.
// It is used as a demo provider and as the fallback target.
type MockAdapter struct {
	latency time.Duration
	logger  *slog.Logger
}

// MockAdapterOption is a functional option for configuring MockAdapter.
type MockAdapterOption func(*MockAdapter)

// WithLatency sets the simulated latency. Zero disables the wait.
func WithLatency(latency time.Duration) MockAdapterOption {
	return func(m *MockAdapter) {
		if latency >= 0 {
			m.latency = latency
		}
	}
}

// WithMockLogger sets a custom logger.
func WithMockLogger(logger *slog.Logger) MockAdapterOption {
	return func(m *MockAdapter) {
		m.logger = logger
	}
}

// NewMockAdapter creates a new MockAdapter.
func NewMockAdapter(opts ...MockAdapterOption) *MockAdapter {
	m := &MockAdapter{
		latency: DefaultMockLatency,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Name returns the provider identifier.
func (m *MockAdapter) Name() domain.ProviderID {
	return domain.ProviderMock
}

// Latency returns the configured simulated latency.
func (m *MockAdapter) Latency() time.Duration {
	return m.latency
}

// Call waits for the simulated latency and returns the templated response.
// It only fails when ctx is done before the latency elapses.
func (m *MockAdapter) Call(ctx context.Context, prompt string) (domain.AIResponse, error) {
	m.logger.Debug("mocking groq call", slog.Int("prompt_length", len(prompt)))

	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.AIResponse{}, fmt.Errorf("mock call interrupted: %w", ctx.Err())
		}
	}

	return domain.AIResponse{
		Result:   MockResult(prompt),
		Provider: domain.ProviderMock,
		Degraded: false,
	}, nil
}

// MockResult renders the canned response text for a prompt.
func MockResult(prompt string) string {
	return fmt.Sprintf("This is a mocked response from Groq for the prompt: \"%s\". It demonstrates the multi-provider architecture.", prompt)
}
