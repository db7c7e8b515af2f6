package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// SessionStore persists conversations keyed by session id.
type SessionStore interface {
	// Get returns the conversation or domain.ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (domain.Conversation, error)

	// Save stores the conversation under its SessionID.
	Save(ctx context.Context, conv domain.Conversation) error

	// Delete removes a conversation. Deleting an unknown id is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}
