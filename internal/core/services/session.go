package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// Greeting is the first assistant turn of every new session.
const Greeting = "안녕하세요! 📘 경북대 학사 도우미입니다. 무엇이든 물어보세요!"

// Answerer is the part of the pipeline a session needs.
type Answerer interface {
	Answer(ctx context.Context, conv domain.Conversation, question string) (domain.Answer, domain.Conversation, error)
}

// SessionService keeps conversations in a store and routes questions through
// the pipeline. Each answer is decorated with an asset chosen from the question.
type SessionService struct {
	pipeline Answerer
	store    driven.SessionStore
	rules    []domain.AssetRule
	fallback []domain.AssetID
	greeting string
	now      func() time.Time
	newID    func() string

	locks sessionLocks
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithAssetRules replaces the default keyword rules and fallback assets.
func WithAssetRules(rules []domain.AssetRule, fallback []domain.AssetID) SessionOption {
	return func(s *SessionService) {
		s.rules = rules
		s.fallback = fallback
	}
}

// WithGreeting replaces the greeting text.
func WithGreeting(text string) SessionOption {
	return func(s *SessionService) {
		s.greeting = text
	}
}

// NewSessionService creates a session service.
func NewSessionService(pipeline Answerer, store driven.SessionStore, opts ...SessionOption) *SessionService {
	s := &SessionService{
		pipeline: pipeline,
		store:    store,
		rules:    DefaultAssetRules(),
		fallback: DefaultFallbackAssets(),
		greeting: Greeting,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New starts a conversation with the greeting turn and stores it.
func (s *SessionService) New(ctx context.Context) (domain.Conversation, error) {
	now := s.now()
	conv := domain.Conversation{
		SessionID: s.newID(),
		CreatedAt: now,
	}.With(domain.Turn{
		Role:    domain.RoleAssistant,
		Content: s.greeting,
		Asset:   SelectAsset(s.rules, s.fallback, 0, ""),
		At:      now,
	})

	if err := s.store.Save(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("save session: %w", err)
	}
	return conv, nil
}

// Get returns a stored conversation.
func (s *SessionService) Get(ctx context.Context, sessionID string) (domain.Conversation, error) {
	return s.store.Get(ctx, sessionID)
}

// Ask answers a question within a session. The stored conversation is only
// updated when the answer succeeds. Asks on the same session run one at a
// time within this process, so no turn is lost to a concurrent save.
func (s *SessionService) Ask(ctx context.Context, sessionID, question string) (domain.Answer, domain.Conversation, error) {
	unlock, err := s.locks.lock(ctx, sessionID)
	if err != nil {
		return domain.Answer{}, domain.Conversation{}, err
	}
	defer unlock()

	conv, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Answer{}, domain.Conversation{}, err
	}

	answer, next, err := s.pipeline.Answer(ctx, conv, question)
	if err != nil {
		return domain.Answer{}, conv, err
	}

	answer.Asset = SelectAsset(s.rules, s.fallback, len(conv.Turns), answer.Question)
	if n := len(next.Turns); n > 0 && next.Turns[n-1].Role == domain.RoleAssistant {
		next.Turns[n-1].Asset = answer.Asset
	}

	if err := s.store.Save(ctx, next); err != nil {
		return domain.Answer{}, conv, fmt.Errorf("save session: %w", err)
	}
	return answer, next, nil
}

// Reset deletes a conversation.
func (s *SessionService) Reset(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// sessionLocks hands out one lock per session id. Entries are dropped when
// no caller holds or waits for them.
type sessionLocks struct {
	mu   sync.Mutex
	byID map[string]*sessionLock
}

type sessionLock struct {
	ch   chan struct{}
	refs int
}

// lock waits for the session's lock or for ctx to end.
func (l *sessionLocks) lock(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	if l.byID == nil {
		l.byID = make(map[string]*sessionLock)
	}
	sl, ok := l.byID[id]
	if !ok {
		sl = &sessionLock{ch: make(chan struct{}, 1)}
		l.byID[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	select {
	case sl.ch <- struct{}{}:
		return func() {
			<-sl.ch
			l.release(id, sl)
		}, nil
	case <-ctx.Done():
		l.release(id, sl)
		return nil, ctx.Err()
	}
}

func (l *sessionLocks) release(id string, sl *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.byID, id)
	}
}
