package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/minshop/qrp/internal/domain/session"
)

const janitorInterval = time.Minute

type sessionEntry struct {
	attributes map[string]any
	expiresAt  time.Time
}

// SessionStore keeps per-session attribute maps with a sliding TTL. A janitor
// goroutine drops expired sessions; accessing a session refreshes its TTL.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}
}

func (s *SessionStore) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		bg, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.janitorLoop(bg)
	})
}

func (s *SessionStore) Stop(ctx context.Context) {
	_ = ctx
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *SessionStore) Get(ctx context.Context, sessionID, name string) (any, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(sessionID)
	if entry == nil {
		return nil, domain.ErrAttributeNotFound
	}
	entry.expiresAt = time.Now().Add(s.ttl)

	value, ok := entry.attributes[name]
	if !ok {
		return nil, domain.ErrAttributeNotFound
	}
	return value, nil
}

func (s *SessionStore) Set(ctx context.Context, sessionID, name string, value any) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(sessionID)
	if entry == nil {
		entry = &sessionEntry{attributes: make(map[string]any)}
		s.sessions[sessionID] = entry
	}
	entry.attributes[name] = value
	entry.expiresAt = time.Now().Add(s.ttl)
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, sessionID, name string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(sessionID)
	if entry == nil {
		return nil
	}
	delete(entry.attributes, name)
	entry.expiresAt = time.Now().Add(s.ttl)
	return nil
}

// live returns the session entry, pruning it first when expired. Callers must
// hold the write lock.
func (s *SessionStore) live(sessionID string) *sessionEntry {
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return nil
	}
	return entry
}

func (s *SessionStore) janitorLoop(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionStore) sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
