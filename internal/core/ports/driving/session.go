package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// SessionService manages conversations keyed by session id.
type SessionService interface {
	// New starts a conversation with a greeting turn.
	New(ctx context.Context) (domain.Conversation, error)

	// Get returns a stored conversation.
	Get(ctx context.Context, sessionID string) (domain.Conversation, error)

	// Ask answers a question within a session and stores the updated conversation.
	Ask(ctx context.Context, sessionID, question string) (domain.Answer, domain.Conversation, error)

	// Reset deletes a conversation.
	Reset(ctx context.Context, sessionID string) error
}
