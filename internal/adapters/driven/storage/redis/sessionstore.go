// Package redis stores conversations in Redis so sessions survive restarts
// and can be shared between server replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "ragdesk:session:"

// SessionStore keeps each conversation as a JSON value with a sliding TTL.
type SessionStore struct {
	client *redisv9.Client
	ttl    time.Duration
	prefix string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int

	// TTL is refreshed on every save. Zero keeps sessions forever.
	TTL time.Duration

	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// NewSessionStore connects and pings the server.
func NewSessionStore(ctx context.Context, opts Options) (*SessionStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("%w: session.redis_addr is required", domain.ErrConfiguration)
	}

	client := redisv9.NewClient(&redisv9.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{client: client, ttl: opts.TTL, prefix: prefix}, nil
}

// Get returns the conversation or domain.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.Conversation, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return domain.Conversation{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("redis get session: %w", err)
	}

	var conv domain.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return conv, nil
}

// Save writes the conversation and resets its TTL.
func (s *SessionStore) Save(ctx context.Context, conv domain.Conversation) error {
	if conv.SessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(conv.SessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes a conversation.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}
