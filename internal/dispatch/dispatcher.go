// Package dispatch selects a provider caller for a request and applies the fallback rule.
package dispatch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hpn/modular-ai/internal/adapter"
	"github.com/hpn/modular-ai/internal/domain"
)

// Outcome describes how a single dispatch resolved.
type Outcome struct {
	Requested domain.ProviderID
	Response  domain.AIResponse
	Err       error
	Latency   time.Duration
}

// Stats holds dispatch counters since start-up.
type Stats struct {
	PrimarySuccesses int64 `json:"primary_successes"`
	Fallbacks        int64 `json:"fallbacks"`
	MockCalls        int64 `json:"mock_calls"`
	UnknownProviders int64 `json:"unknown_providers"`
}

// Dispatcher routes a prompt to the requested provider.
// A failed primary call is answered by the mock caller and marked degraded.
type Dispatcher struct {
	primary  adapter.Caller
	mock     adapter.Caller
	logger   *slog.Logger
	observer func(Outcome)

	primaryOK atomic.Int64
	fallbacks atomic.Int64
	mockCalls atomic.Int64
	unknown   atomic.Int64
}

// Option is a functional option for configuring Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithObserver registers a callback invoked after every dispatch.
func WithObserver(fn func(Outcome)) Option {
	return func(d *Dispatcher) {
		d.observer = fn
	}
}

// New creates a Dispatcher over a primary caller and the mock caller used for fallback.
func New(primary, mock adapter.Caller, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		primary: primary,
		mock:    mock,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch resolves prompt against provider.
//
// For known providers the only error that can surface is a cancelled ctx while the
// mock caller waits. A provider outside the known set yields *domain.UnknownProviderError.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt string, provider domain.ProviderID) (domain.AIResponse, error) {
	start := time.Now()

	var (
		resp domain.AIResponse
		err  error
	)

	switch provider {
	case domain.ProviderMock:
		d.mockCalls.Add(1)
		resp, err = d.mock.Call(ctx, prompt)
	case domain.ProviderGemini:
		resp, err = d.callWithFallback(ctx, prompt)
	default:
		d.unknown.Add(1)
		d.logger.Error("unknown provider requested", slog.String("provider", string(provider)))
		err = &domain.UnknownProviderError{Provider: string(provider)}
	}

	d.notify(Outcome{
		Requested: provider,
		Response:  resp,
		Err:       err,
		Latency:   time.Since(start),
	})

	return resp, err
}

// callWithFallback calls the primary and, only once it has definitively failed, the mock.
func (d *Dispatcher) callWithFallback(ctx context.Context, prompt string) (domain.AIResponse, error) {
	resp, err := d.primary.Call(ctx, prompt)
	if err == nil {
		d.primaryOK.Add(1)
		d.logger.Info("primary provider succeeded",
			slog.String("provider", string(d.primary.Name())),
		)
		return resp, nil
	}

	d.fallbacks.Add(1)
	d.logger.Warn("primary provider failed, falling back",
		slog.String("provider", string(d.primary.Name())),
		slog.String("fallback", string(d.mock.Name())),
		slog.String("error", err.Error()),
	)

	fallback, ferr := d.mock.Call(ctx, prompt)
	if ferr != nil {
		d.logger.Error("fallback provider failed",
			slog.String("primary_error", err.Error()),
			slog.String("fallback_error", ferr.Error()),
		)
		return domain.AIResponse{}, ferr
	}

	return fallback.AsDegraded(), nil
}

func (d *Dispatcher) notify(o Outcome) {
	if d.observer != nil {
		d.observer(o)
	}
}

// Stats returns a snapshot of the dispatch counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		PrimarySuccesses: d.primaryOK.Load(),
		Fallbacks:        d.fallbacks.Load(),
		MockCalls:        d.mockCalls.Load(),
		UnknownProviders: d.unknown.Load(),
	}
}
