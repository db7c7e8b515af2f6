package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps conversations in process memory. Entries expire after
// the TTL measured from their last save; a zero TTL keeps them forever.
type SessionStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]sessionEntry
}

type sessionEntry struct {
	conv    domain.Conversation
	expires time.Time
}

// NewSessionStore creates an in-memory session store.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]sessionEntry),
	}
}

// Get returns a copy of the conversation. An expired entry is removed, unless
// a Save replaced it between the read and the removal.
func (s *SessionStore) Get(_ context.Context, sessionID string) (domain.Conversation, error) {
	s.mu.RLock()
	entry, ok := s.items[sessionID]
	s.mu.RUnlock()

	if ok && s.expired(entry) {
		s.mu.Lock()
		entry, ok = s.items[sessionID]
		if ok && s.expired(entry) {
			delete(s.items, sessionID)
			ok = false
		}
		s.mu.Unlock()
	}
	if !ok {
		return domain.Conversation{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return entry.conv.With(), nil
}

// Save stores a copy of the conversation.
func (s *SessionStore) Save(_ context.Context, conv domain.Conversation) error {
	if conv.SessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	entry := sessionEntry{conv: conv.With()}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.items[conv.SessionID] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes a conversation.
func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.items, sessionID)
	s.mu.Unlock()
	return nil
}

// Close releases resources.
func (s *SessionStore) Close() error {
	return nil
}

func (s *SessionStore) expired(e sessionEntry) bool {
	return !e.expires.IsZero() && !s.now().Before(e.expires)
}
