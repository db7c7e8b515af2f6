package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_WithDoesNotShareBackingArray(t *testing.T) {
	at := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	base := Conversation{SessionID: "s1"}
	base.Turns = make([]Turn, 1, 8)
	base.Turns[0] = Turn{Role: RoleAssistant, Content: "안녕하세요"}

	a := base.With(Turn{Role: RoleUser, Content: "A", At: at})
	b := base.With(Turn{Role: RoleUser, Content: "B", At: at})

	require.Len(t, a.Turns, 2)
	require.Len(t, b.Turns, 2)
	assert.Equal(t, "A", a.Turns[1].Content)
	assert.Equal(t, "B", b.Turns[1].Content)
	assert.Len(t, base.Turns, 1)
	assert.Equal(t, at, a.UpdatedAt)
}

func TestConversation_LastUserMessage(t *testing.T) {
	c := Conversation{}
	_, ok := c.LastUserMessage()
	assert.False(t, ok)

	c = c.With(
		Turn{Role: RoleUser, Content: "졸업 학점은?"},
		Turn{Role: RoleAssistant, Content: "130학점입니다."},
	)
	msg, ok := c.LastUserMessage()
	assert.True(t, ok)
	assert.Equal(t, "졸업 학점은?", msg)
}

func TestConversation_Recent(t *testing.T) {
	c := Conversation{}.With(
		Turn{Role: RoleAssistant, Content: "hello"},
		Turn{Role: RoleUser, Content: "q1"},
		Turn{Role: RoleAssistant, Content: "a1"},
	)

	assert.Nil(t, c.Recent(0))
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
	}, c.Recent(2))
	assert.Len(t, c.Recent(10), 3)
}

func TestPrompt_Messages(t *testing.T) {
	p := Prompt{
		System:  "sys",
		History: []Message{{Role: RoleUser, Content: "earlier"}},
		User:    "now",
	}

	msgs := p.Messages()

	require.Len(t, msgs, 3)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "earlier", msgs[1].Content)
	assert.Equal(t, Message{Role: RoleUser, Content: "now"}, msgs[2])

	assert.Len(t, Prompt{User: "only"}.Messages(), 1)
}
