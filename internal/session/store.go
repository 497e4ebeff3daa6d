// Package session holds the per-session interaction controller and the store that owns them.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE - In-Memory Controller Registry
// ══════════════════════════════════════════════════════════════════════════════
//
// Data Structure: map guarded by RWMutex
// Key: random session id (UUID v4)
// Value: one Controller per browser session
// TTL: sliding, refreshed on every lookup; loading controllers are never evicted
//
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultSessionTTL is how long an untouched session is kept.
	DefaultSessionTTL = 30 * time.Minute

	// CleanupInterval is how often the cleaner runs.
	CleanupInterval = 1 * time.Minute
)

// entry pairs a controller with its expiry.
type entry struct {
	controller *Controller
	expireAt   time.Time
	createdAt  time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expireAt)
}

// Store is a thread-safe registry of controllers keyed by session id.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	newCtrl func() *Controller
	logger  *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once

	// Stats
	created int64
	evicted int64
}

// StoreOption is a functional option for configuring Store.
type StoreOption func(*Store)

// WithSessionTTL sets a custom idle TTL.
func WithSessionTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithStoreLogger sets a custom logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store that builds controllers with newCtrl.
// It starts a background goroutine for TTL cleanup; call Close to stop it.
func NewStore(newCtrl func() *Controller, opts ...StoreOption) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     DefaultSessionTTL,
		newCtrl: newCtrl,
		logger:  slog.Default(),
		stop:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.startCleanup()

	return s
}

// Create registers a new controller under a fresh session id.
func (s *Store) Create() (string, *Controller) {
	id := uuid.NewString()
	ctrl := s.newCtrl()
	now := time.Now()

	s.mu.Lock()
	s.entries[id] = &entry{
		controller: ctrl,
		expireAt:   now.Add(s.ttl),
		createdAt:  now,
	}
	s.created++
	s.mu.Unlock()

	s.logger.Debug("session created", slog.String("session_id", id))
	return id, ctrl
}

// Get returns the controller for id and extends its expiry.
func (s *Store) Get(id string) (*Controller, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}

	now := time.Now()
	if e.isExpired(now) && !e.controller.IsLoading() {
		delete(s.entries, id)
		s.evicted++
		return nil, false
	}

	e.expireAt = now.Add(s.ttl)
	return e.controller, true
}

// GetOrCreate returns the controller for id, or a new one when id is unknown or expired.
// The returned id is the one the caller should keep.
func (s *Store) GetOrCreate(id string) (string, *Controller) {
	if ctrl, ok := s.Get(id); ok {
		return id, ctrl
	}
	return s.Create()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns created/evicted counters and the current size.
func (s *Store) Stats() (created, evicted int64, size int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, s.evicted, len(s.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// startCleanup periodically removes expired sessions until Close is called.
func (s *Store) startCleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

// cleanup removes expired sessions that have no request in flight.
func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	expired := 0

	for id, e := range s.entries {
		if e.isExpired(now) && !e.controller.IsLoading() {
			delete(s.entries, id)
			expired++
		}
	}
	s.evicted += int64(expired)

	if expired > 0 && s.logger != nil {
		s.logger.Debug("session cleanup",
			slog.Int("expired_sessions", expired),
			slog.Int("remaining_sessions", len(s.entries)),
		)
	}
}
