package session

import (
	"testing"
	"time"

	"github.com/hpn/modular-ai/internal/domain"
)

func newTestStore(ttl time.Duration) *Store {
	f := &fakeDispatcher{resp: domain.AIResponse{Result: "ok", Provider: domain.ProviderMock}}
	return NewStore(func() *Controller {
		return NewController(f, WithControllerLogger(quietLogger()))
	}, WithSessionTTL(ttl), WithStoreLogger(quietLogger()))
}

// TestStoreCreateGet tests basic session registration and lookup.
func TestStoreCreateGet(t *testing.T) {
	t.Log("=== TEST: Session Store Create/Get ===")

	s := newTestStore(time.Minute)
	defer s.Close()

	id, ctrl := s.Create()
	if id == "" || ctrl == nil {
		t.Fatal("Create() returned empty id or nil controller")
	}

	got, ok := s.Get(id)
	if !ok || got != ctrl {
		t.Errorf("Get(%s) = %v, %v; want the created controller", id, got, ok)
	} else {
		t.Log("✓ Created session is retrievable")
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) reported found")
	}
	if _, ok := s.Get(""); ok {
		t.Error("Get(\"\") reported found")
	}
}

// TestStoreGetOrCreate tests that unknown ids yield fresh sessions.
func TestStoreGetOrCreate(t *testing.T) {
	s := newTestStore(time.Minute)
	defer s.Close()

	id, ctrl := s.GetOrCreate("not-a-session")
	if id == "not-a-session" {
		t.Error("GetOrCreate reused an unknown id")
	}

	id2, ctrl2 := s.GetOrCreate(id)
	if id2 != id || ctrl2 != ctrl {
		t.Error("GetOrCreate did not return the existing session")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

// TestStoreExpiration tests that idle sessions expire after the TTL.
func TestStoreExpiration(t *testing.T) {
	t.Log("=== TEST: Session Store Expiration ===")

	s := newTestStore(30 * time.Millisecond)
	defer s.Close()

	id, _ := s.Create()
	time.Sleep(60 * time.Millisecond)

	if _, ok := s.Get(id); ok {
		t.Error("expected session to expire")
	} else {
		t.Log("✓ Session expired after TTL")
	}

	_, evicted, size := s.Stats()
	if evicted != 1 || size != 0 {
		t.Errorf("Stats() evicted=%d size=%d, want 1 and 0", evicted, size)
	}
}

// TestStoreCleanupKeepsLoadingSessions tests that a running request pins its session.
func TestStoreCleanupKeepsLoadingSessions(t *testing.T) {
	f := &fakeDispatcher{release: make(chan struct{}), resp: domain.AIResponse{Result: "ok", Provider: domain.ProviderMock}}
	s := NewStore(func() *Controller {
		return NewController(f, WithControllerLogger(quietLogger()))
	}, WithSessionTTL(10*time.Millisecond), WithStoreLogger(quietLogger()))
	defer s.Close()

	busyID, busy := s.Create()
	idleID, _ := s.Create()

	busy.SetPrompt("X")
	tk, err := busy.Submit(t.Context())
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	s.cleanup()

	if _, ok := s.Get(busyID); !ok {
		t.Error("loading session was evicted")
	}
	if _, ok := s.Get(idleID); ok {
		t.Error("idle session survived cleanup")
	}

	close(f.release)
	waitDone(t, tk)
}

func TestStoreCloseIdempotent(t *testing.T) {
	s := newTestStore(time.Minute)
	s.Close()
	s.Close()
}
