// Package session holds the per-session interaction controller and the store that owns them.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hpn/modular-ai/internal/domain"
)

// FailurePrefix precedes the underlying message when a dispatch is rejected.
const FailurePrefix = "Failed to get response. "

// ErrSubmitInFlight is returned for input while a request is still running.
var ErrSubmitInFlight = errors.New("a request is already in flight")

// Phase is the controller's position in its request cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Dispatcher resolves a prompt against a provider.
type Dispatcher interface {
	Dispatch(ctx context.Context, prompt string, provider domain.ProviderID) (domain.AIResponse, error)
}

// State is a snapshot of a controller. Response and Error are never both set.
type State struct {
	Prompt    string             `json:"prompt"`
	Provider  domain.ProviderID  `json:"provider"`
	IsLoading bool               `json:"is_loading"`
	Response  *domain.AIResponse `json:"response"`
	Error     string             `json:"error,omitempty"`
	Phase     Phase              `json:"phase"`
}

// Ticket identifies a submitted request. Done is closed once the request resolves,
// whether its result was applied or discarded as stale.
type Ticket struct {
	Token uint64
	Done  <-chan struct{}
}

// Controller owns the interaction state for one session and runs one request at a time.
type Controller struct {
	mu         sync.Mutex
	state      State
	token      uint64
	dispatcher Dispatcher
	logger     *slog.Logger

	subs    map[int]chan State
	nextSub int

	lastActive time.Time
}

// ControllerOption is a functional option for configuring Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets a custom logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithProvider sets the initially selected provider.
func WithProvider(p domain.ProviderID) ControllerOption {
	return func(c *Controller) {
		c.state.Provider = p
	}
}

// NewController creates an idle controller.
func NewController(d Dispatcher, opts ...ControllerOption) *Controller {
	c := &Controller{
		state: State{
			Provider: domain.DefaultProvider,
			Phase:    PhaseIdle,
		},
		dispatcher: d,
		logger:     slog.Default(),
		subs:       make(map[int]chan State),
		lastActive: time.Now(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SetPrompt replaces the prompt text.
func (c *Controller) SetPrompt(prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsLoading {
		return ErrSubmitInFlight
	}
	c.state.Prompt = prompt
	c.touchLocked()
	return nil
}

// SetProvider changes the provider selection.
func (c *Controller) SetProvider(p domain.ProviderID) error {
	if !p.IsValid() {
		return &domain.UnknownProviderError{Provider: string(p)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsLoading {
		return ErrSubmitInFlight
	}
	c.state.Provider = p
	c.touchLocked()
	return nil
}

// Submit starts a request for the current prompt and provider.
//
// A blank prompt sets the validation error without dispatching and returns it.
// While a request is loading, Submit returns ErrSubmitInFlight and changes nothing.
// The dispatch itself runs detached from ctx's cancellation.
func (c *Controller) Submit(ctx context.Context) (Ticket, error) {
	c.mu.Lock()

	if c.state.IsLoading {
		c.mu.Unlock()
		return Ticket{}, ErrSubmitInFlight
	}

	c.touchLocked()

	if err := domain.ValidatePrompt(c.state.Prompt); err != nil {
		c.state.Error = err.Error()
		c.state.Response = nil
		c.state.Phase = PhaseIdle
		c.publishLocked()
		c.mu.Unlock()
		return Ticket{}, err
	}

	c.token++
	token := c.token
	prompt, provider := c.state.Prompt, c.state.Provider

	c.state.Error = ""
	c.state.Response = nil
	c.state.IsLoading = true
	c.state.Phase = PhaseSubmitting
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Debug("request submitted",
		slog.Uint64("token", token),
		slog.String("provider", string(provider)),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := c.dispatcher.Dispatch(context.WithoutCancel(ctx), prompt, provider)
		c.complete(token, resp, err)
	}()

	return Ticket{Token: token, Done: done}, nil
}

// complete applies a resolved request if token is still the latest one issued.
// It reports whether the result was applied.
func (c *Controller) complete(token uint64, resp domain.AIResponse, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		c.logger.Debug("discarding stale result",
			slog.Uint64("token", token),
			slog.Uint64("latest", c.token),
		)
		return false
	}

	c.state.IsLoading = false
	if err != nil {
		c.logger.Error("request failed", slog.String("error", err.Error()))
		c.state.Error = FailurePrefix + err.Error()
		c.state.Response = nil
		c.state.Phase = PhaseFailed
	} else {
		r := resp
		c.state.Response = &r
		c.state.Error = ""
		c.state.Phase = PhaseSucceeded
	}

	c.touchLocked()
	c.publishLocked()
	return true
}

// Reset clears the last result and error. Any pending token is invalidated.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsLoading {
		return ErrSubmitInFlight
	}

	c.token++
	c.state.Response = nil
	c.state.Error = ""
	c.state.Phase = PhaseIdle
	c.touchLocked()
	c.publishLocked()
	return nil
}

// Subscribe returns a channel that receives a snapshot after every state change.
// Slow readers only see the latest snapshot. Call the returned func to unsubscribe.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan State, 1)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// IsLoading reports whether a request is in flight.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsLoading
}

// LastActive returns the time of the last interaction.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) touchLocked() {
	c.lastActive = time.Now()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Response != nil {
		r := *s.Response
		s.Response = &r
	}
	return s
}

// publishLocked pushes the current snapshot to subscribers, replacing any unread one.
func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		s := c.snapshotLocked()
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
