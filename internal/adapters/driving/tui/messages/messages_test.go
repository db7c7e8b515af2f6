package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestAnswerReceived_ErrorLeavesConversationEmpty(t *testing.T) {
	msg := AnswerReceived{Err: domain.ErrGenerationService}

	assert.True(t, errors.Is(msg.Err, domain.ErrGenerationService))
	assert.Empty(t, msg.Conversation.SessionID)
	assert.Empty(t, msg.Conversation.Turns)
}

func TestStatsRefreshed(t *testing.T) {
	msg := StatsRefreshed{
		State: domain.StateReady,
		Stats: domain.IndexStats{Records: 12, Documents: 2, Sources: []string{"a.pdf", "b.pdf"}},
	}

	assert.Equal(t, domain.StateReady, msg.State)
	assert.Equal(t, 12, msg.Stats.Records)
	assert.Len(t, msg.Stats.Sources, 2)
}
