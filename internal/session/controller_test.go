package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hpn/modular-ai/internal/adapter"
	"github.com/hpn/modular-ai/internal/dispatch"
	"github.com/hpn/modular-ai/internal/domain"
)

// fakeDispatcher blocks each call until release is closed, then returns its scripted result.
type fakeDispatcher struct {
	calls   atomic.Int32
	release chan struct{}
	resp    domain.AIResponse
	err     error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, prompt string, provider domain.ProviderID) (domain.AIResponse, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.resp, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitDone(t *testing.T, tk Ticket) {
	t.Helper()
	select {
	case <-tk.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("request did not resolve in time")
	}
}

// newRealController wires a controller to a real dispatcher with the given primary.
func newRealController(primary adapter.Caller) *Controller {
	mock := adapter.NewMockAdapter(adapter.WithLatency(10*time.Millisecond), adapter.WithMockLogger(quietLogger()))
	d := dispatch.New(primary, mock, dispatch.WithLogger(quietLogger()))
	return NewController(d, WithControllerLogger(quietLogger()))
}

func TestController_WhitespacePromptIsRejected(t *testing.T) {
	t.Log("=== TEST: Whitespace prompt ===")

	f := &fakeDispatcher{}
	c := NewController(f, WithControllerLogger(quietLogger()))
	c.SetPrompt("   ")

	_, err := c.Submit(context.Background())
	if !domain.IsValidationError(err) {
		t.Fatalf("Submit() error = %v, want ValidationError", err)
	}

	s := c.Snapshot()
	if s.Error != "Please enter a prompt." {
		t.Errorf("Error = %q, want %q", s.Error, "Please enter a prompt.")
	}
	if s.Response != nil {
		t.Error("Response set after validation failure")
	}
	if s.IsLoading || s.Phase != PhaseIdle {
		t.Errorf("state = %+v, want idle and not loading", s)
	}
	if f.calls.Load() != 0 {
		t.Errorf("dispatcher called %d times, want 0", f.calls.Load())
	}
}

func TestController_MockScenario(t *testing.T) {
	t.Log("=== TEST: Explain gravity via mock ===")

	c := newRealController(&failingCaller{})
	c.SetPrompt("Explain gravity")
	if err := c.SetProvider(domain.ProviderMock); err != nil {
		t.Fatalf("SetProvider() error: %v", err)
	}

	tk, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if !c.Snapshot().IsLoading {
		t.Error("IsLoading = false right after Submit")
	}
	waitDone(t, tk)

	s := c.Snapshot()
	if s.Response == nil {
		t.Fatalf("Response = nil, state = %+v", s)
	}
	if !strings.Contains(s.Response.Result, "Explain gravity") {
		t.Errorf("Result = %q, want it to contain the prompt", s.Response.Result)
	}
	if s.Response.Degraded || s.Response.Provider != domain.ProviderMock {
		t.Errorf("Response = %+v, want groq-mock not degraded", s.Response)
	}
	if s.Phase != PhaseSucceeded || s.IsLoading || s.Error != "" {
		t.Errorf("state = %+v, want succeeded", s)
	}
}

// failingCaller is a primary provider that always fails.
type failingCaller struct{}

func (failingCaller) Call(context.Context, string) (domain.AIResponse, error) {
	return domain.AIResponse{}, &domain.ProviderError{Provider: domain.ProviderGemini, Reason: domain.ReasonTransport, Err: errors.New("boom")}
}

func (failingCaller) Name() domain.ProviderID { return domain.ProviderGemini }

func TestController_PrimaryFailureScenario(t *testing.T) {
	c := newRealController(failingCaller{})
	c.SetPrompt("X")

	tk, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	waitDone(t, tk)

	s := c.Snapshot()
	if s.Response == nil {
		t.Fatalf("Response = nil, state = %+v", s)
	}
	if !s.Response.Degraded || s.Response.Provider != domain.ProviderMock {
		t.Errorf("Response = %+v, want degraded groq-mock", s.Response)
	}
}

func TestController_SubmitWhileLoading(t *testing.T) {
	f := &fakeDispatcher{release: make(chan struct{}), resp: domain.AIResponse{Result: "ok", Provider: domain.ProviderMock}}
	c := NewController(f, WithControllerLogger(quietLogger()))
	c.SetPrompt("first")

	tk, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("second Submit() error = %v, want ErrSubmitInFlight", err)
	}
	if err := c.SetPrompt("second"); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("SetPrompt() while loading = %v, want ErrSubmitInFlight", err)
	}
	if err := c.SetProvider(domain.ProviderGemini); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("SetProvider() while loading = %v, want ErrSubmitInFlight", err)
	}

	close(f.release)
	waitDone(t, tk)

	if f.calls.Load() != 1 {
		t.Errorf("dispatcher called %d times, want 1", f.calls.Load())
	}
	if s := c.Snapshot(); s.Prompt != "first" {
		t.Errorf("Prompt = %q, want unchanged %q", s.Prompt, "first")
	}
}

func TestController_DispatchErrorReachesFailed(t *testing.T) {
	f := &fakeDispatcher{err: &domain.UnknownProviderError{Provider: "gpt-4"}}
	c := NewController(f, WithControllerLogger(quietLogger()))
	c.SetPrompt("X")

	tk, _ := c.Submit(context.Background())
	waitDone(t, tk)

	s := c.Snapshot()
	want := `Failed to get response. unknown provider "gpt-4"`
	if s.Error != want {
		t.Errorf("Error = %q, want %q", s.Error, want)
	}
	if s.Response != nil || s.IsLoading || s.Phase != PhaseFailed {
		t.Errorf("state = %+v, want failed with no response", s)
	}
}

func TestController_StaleResultDiscarded(t *testing.T) {
	f := &fakeDispatcher{resp: domain.AIResponse{Result: "fresh", Provider: domain.ProviderMock}}
	c := NewController(f, WithControllerLogger(quietLogger()))
	c.SetPrompt("X")

	tk, _ := c.Submit(context.Background())
	waitDone(t, tk)

	stale := domain.AIResponse{Result: "stale", Provider: domain.ProviderGemini}
	if c.complete(tk.Token-1, stale, nil) {
		t.Fatal("complete() applied a result with an outdated token")
	}
	if got := c.Snapshot().Response.Result; got != "fresh" {
		t.Errorf("Result = %q, want %q", got, "fresh")
	}
}

func TestController_ResetInvalidatesToken(t *testing.T) {
	f := &fakeDispatcher{resp: domain.AIResponse{Result: "r", Provider: domain.ProviderMock}}
	c := NewController(f, WithControllerLogger(quietLogger()))
	c.SetPrompt("X")

	tk, _ := c.Submit(context.Background())
	waitDone(t, tk)

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if c.complete(tk.Token, domain.AIResponse{Result: "late"}, nil) {
		t.Error("result applied after Reset")
	}
	s := c.Snapshot()
	if s.Response != nil || s.Error != "" || s.Phase != PhaseIdle {
		t.Errorf("state after Reset = %+v", s)
	}
	if s.Prompt != "X" {
		t.Errorf("Reset cleared the prompt: %q", s.Prompt)
	}
}

func TestController_NewSubmitClearsPreviousResult(t *testing.T) {
	f := &fakeDispatcher{resp: domain.AIResponse{Result: "one", Provider: domain.ProviderMock}}
	c := NewController(f, WithControllerLogger(quietLogger()))
	c.SetPrompt("X")

	tk, _ := c.Submit(context.Background())
	waitDone(t, tk)

	f.release = make(chan struct{})
	tk, _ = c.Submit(context.Background())

	s := c.Snapshot()
	if s.Response != nil || s.Error != "" || !s.IsLoading || s.Phase != PhaseSubmitting {
		t.Errorf("state during second request = %+v", s)
	}

	close(f.release)
	waitDone(t, tk)
}

func TestController_Subscribe(t *testing.T) {
	f := &fakeDispatcher{resp: domain.AIResponse{Result: "done", Provider: domain.ProviderMock}}
	c := NewController(f, WithControllerLogger(quietLogger()))
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	c.SetPrompt("X")
	tk, _ := c.Submit(context.Background())
	waitDone(t, tk)

	// Latest-wins: the buffered snapshot is the resolved one.
	var last State
	deadline := time.After(time.Second)
	for {
		select {
		case last = <-updates:
			if last.Phase == PhaseSucceeded {
				if last.Response == nil || last.Response.Result != "done" {
					t.Errorf("final snapshot = %+v", last)
				}
				return
			}
		case <-deadline:
			t.Fatalf("never saw succeeded snapshot, last = %+v", last)
		}
	}
}

func TestController_SnapshotIsCopy(t *testing.T) {
	f := &fakeDispatcher{resp: domain.AIResponse{Result: "orig", Provider: domain.ProviderMock}}
	c := NewController(f, WithControllerLogger(quietLogger()))
	c.SetPrompt("X")
	tk, _ := c.Submit(context.Background())
	waitDone(t, tk)

	s := c.Snapshot()
	s.Response.Result = "mutated"

	if got := c.Snapshot().Response.Result; got != "orig" {
		t.Errorf("internal Response mutated through snapshot: %q", got)
	}
}

func TestController_ConcurrentSubmitsDispatchOnce(t *testing.T) {
	f := &fakeDispatcher{release: make(chan struct{}), resp: domain.AIResponse{Result: "ok", Provider: domain.ProviderMock}}
	c := NewController(f, WithControllerLogger(quietLogger()))
	c.SetPrompt("X")

	var wg sync.WaitGroup
	var accepted atomic.Int32
	var ticket Ticket
	var tmu sync.Mutex
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tk, err := c.Submit(context.Background()); err == nil {
				accepted.Add(1)
				tmu.Lock()
				ticket = tk
				tmu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted.Load() != 1 {
		t.Fatalf("accepted %d submissions, want 1", accepted.Load())
	}
	close(f.release)
	waitDone(t, ticket)
	if f.calls.Load() != 1 {
		t.Errorf("dispatcher called %d times, want 1", f.calls.Load())
	}
}
