// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// SessionStarted carries a freshly created conversation, greeting included.
type SessionStarted struct {
	Conversation domain.Conversation
	Err          error
}

// QuestionSubmitted is sent when the user presses send on a non-blank question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the outcome of a question. On error Conversation
// is the zero value and the caller keeps its previous one.
type AnswerReceived struct {
	Answer       domain.Answer
	Conversation domain.Conversation
	Err          error
}

// StatsRefreshed carries the pipeline state and index statistics.
type StatsRefreshed struct {
	State domain.PipelineState
	Stats domain.IndexStats
}

// ErrorOccurred is sent when an operation fails outside a request.
type ErrorOccurred struct {
	Err error
}

// Quit requests the program to exit.
type Quit struct{}
