// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/hpn/modular-ai/internal/domain"
)

const (
	// DefaultGeminiModel is the model the primary provider generates with.
	DefaultGeminiModel = string(domain.ProviderGemini)

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second
)

// ErrMissingCredential is the cause reported when no API key was configured.
var ErrMissingCredential = errors.New("gemini API key is not configured")

// GeminiAdapter implements Caller for the Google Gemini API.
// A GeminiAdapter without an API key is valid; every call then fails fast.
type GeminiAdapter struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// GeminiAdapterOption is a functional option for configuring GeminiAdapter.
type GeminiAdapterOption func(*GeminiAdapter)

// WithModel overrides the generation model. Responses still carry the
// gemini-2.5-flash provider id, which names the primary slot, not the model.
func WithModel(model string) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		if model != "" {
			g.model = model
		}
	}
}

// WithBaseURL sets a custom base URL for the Gemini API.
func WithBaseURL(url string) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		if url != "" && !strings.HasSuffix(url, "/") {
			url += "/"
		}
		g.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. The adapter works on a copy.
func WithHTTPClient(client *http.Client) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		g.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// NewGeminiAdapter creates a new GeminiAdapter with the given API key.
func NewGeminiAdapter(apiKey string, opts ...GeminiAdapterOption) *GeminiAdapter {
	g := &GeminiAdapter{
		apiKey:  strings.TrimSpace(apiKey),
		model:   DefaultGeminiModel,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Name returns the provider identifier.
func (g *GeminiAdapter) Name() domain.ProviderID {
	return domain.ProviderGemini
}

// Model returns the model used for generation.
func (g *GeminiAdapter) Model() string {
	return g.model
}

// HasCredential reports whether an API key was configured.
func (g *GeminiAdapter) HasCredential() bool {
	return g.apiKey != ""
}

// Call sends the prompt to generateContent and returns the response text.
// The response provider is always domain.ProviderGemini, whatever model is configured.
func (g *GeminiAdapter) Call(ctx context.Context, prompt string) (domain.AIResponse, error) {
	if !g.HasCredential() {
		return domain.AIResponse{}, g.fail(domain.ReasonMissingCredential, ErrMissingCredential)
	}

	client, err := g.genaiClient()
	if err != nil {
		return domain.AIResponse{}, g.fail(domain.ReasonMissingCredential, err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return domain.AIResponse{}, g.fail(classifyError(err), err)
	}

	text := resp.Text()
	if text == "" {
		return domain.AIResponse{}, g.fail(domain.ReasonMalformed, errors.New("response contained no text"))
	}

	return domain.AIResponse{
		Result:   text,
		Provider: domain.ProviderGemini,
		Degraded: false,
	}, nil
}

// genaiClient builds the SDK client once. Construction is local for the Gemini API backend.
func (g *GeminiAdapter) genaiClient() (*genai.Client, error) {
	g.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     g.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.transport(),
		}
		if g.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
		}
		g.client, g.clientErr = genai.NewClient(context.Background(), cfg)
		if g.clientErr != nil {
			g.clientErr = fmt.Errorf("failed to create gemini client: %w", g.clientErr)
		}
	})
	return g.client, g.clientErr
}

// transport returns a copy of the configured client with the adapter timeout applied.
func (g *GeminiAdapter) transport() *http.Client {
	c := &http.Client{}
	if g.httpClient != nil {
		*c = *g.httpClient
	}
	c.Timeout = g.timeout
	return c
}

func (g *GeminiAdapter) fail(reason string, err error) error {
	return &domain.ProviderError{
		Provider: domain.ProviderGemini,
		Reason:   reason,
		Err:      err,
	}
}

// classifyError maps an SDK or transport failure to a ProviderError reason.
// Status codes win when the SDK exposes them; otherwise the message is inspected.
func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}

	if code, ok := apiErrorCode(err); ok {
		switch {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return domain.ReasonAuth
		case code == http.StatusTooManyRequests:
			return domain.ReasonQuota
		case code == http.StatusNotFound:
			return domain.ReasonNotFound
		case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
			return domain.ReasonTimeout
		default:
			return domain.ReasonUpstream
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "403", "unauthorized", "api key not valid", "permission denied"):
		return domain.ReasonAuth
	case containsAny(msg, "429", "quota", "rate limit", "resource_exhausted", "exhausted"):
		return domain.ReasonQuota
	case containsAny(msg, "timeout", "deadline exceeded"):
		return domain.ReasonTimeout
	case containsAny(msg, "unmarshal", "invalid character", "unexpected end of json"):
		return domain.ReasonMalformed
	case containsAny(msg, "connection", "eof", "dial", "refused", "no such host"):
		return domain.ReasonTransport
	default:
		return domain.ReasonUpstream
	}
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
