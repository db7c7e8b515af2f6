package domain

import "time"

// Turn is one message in a conversation.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Asset   AssetID   `json:"asset,omitempty"`
	At      time.Time `json:"at"`
}

// Conversation is chat state owned by the caller. Pipeline calls take a
// conversation and return an updated copy; they never keep one.
type Conversation struct {
	SessionID string    `json:"session_id"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// With returns a copy of the conversation with turns appended.
// The receiver's backing array is never shared with the result.
func (c Conversation) With(turns ...Turn) Conversation {
	out := c
	out.Turns = make([]Turn, 0, len(c.Turns)+len(turns))
	out.Turns = append(out.Turns, c.Turns...)
	out.Turns = append(out.Turns, turns...)
	if len(turns) > 0 {
		out.UpdatedAt = turns[len(turns)-1].At
	}
	return out
}

// LastUserMessage returns the most recent user turn, if any.
func (c Conversation) LastUserMessage() (string, bool) {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleUser {
			return c.Turns[i].Content, true
		}
	}
	return "", false
}

// Recent returns up to n trailing turns as prompt messages.
func (c Conversation) Recent(n int) []Message {
	if n <= 0 || len(c.Turns) == 0 {
		return nil
	}
	start := len(c.Turns) - n
	if start < 0 {
		start = 0
	}
	msgs := make([]Message, 0, len(c.Turns)-start)
	for _, t := range c.Turns[start:] {
		msgs = append(msgs, Message{Role: t.Role, Content: t.Content})
	}
	return msgs
}
