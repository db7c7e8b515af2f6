package domain

// Message roles used in prompts and conversations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Placeholders recognised in prompt templates.
const (
	ContextPlaceholder  = "{context}"
	QuestionPlaceholder = "{question}"
)

// Message is one turn sent to a generator.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is an assembled two-part prompt: a system instruction carrying the
// retrieved context, and a human turn carrying the question.
type Prompt struct {
	System  string    `json:"system"`
	History []Message `json:"history,omitempty"`
	User    string    `json:"user"`
}

// Messages flattens the prompt into chat messages.
func (p Prompt) Messages() []Message {
	msgs := make([]Message, 0, len(p.History)+2)
	if p.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: p.System})
	}
	msgs = append(msgs, p.History...)
	msgs = append(msgs, Message{Role: RoleUser, Content: p.User})
	return msgs
}

// PromptTemplate is configuration for the prompt assembler.
type PromptTemplate struct {
	// SystemInstruction may contain {context}. Without it the context is
	// appended after a blank line.
	SystemInstruction string

	// HumanTemplate may contain {question}. Empty means the bare question.
	HumanTemplate string

	// Language is a BCP 47 tag such as "ko" or "en".
	Language string

	// Style is "polite" or "neutral".
	Style string

	// HistoryTurns is how many previous conversation turns to include.
	HistoryTurns int
}

// Answer is the result of a query.
type Answer struct {
	Question string        `json:"question"`
	Text     string        `json:"text"`
	Sources  []ScoredChunk `json:"sources"`
	Prompt   Prompt        `json:"-"`
	Asset    AssetID       `json:"asset,omitempty"`
}

// Built-in template languages and styles.
const (
	DefaultLanguage = "ko"
	DefaultStyle    = "polite"
)

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var builtinTemplates = map[string]PromptTemplate{
	"ko/polite": {
		SystemInstruction: "당신은 경북대학교에 관한 정보를 제공하는 AI 도우미입니다. 아래 문서 내용을 참고하여 정확하고 공손하게 한국어로 답변해 주세요. 가장 관련된 정보를 바탕으로 답변하고, 모르면 모른다고 답하세요.\n\n" + ContextPlaceholder,
		HumanTemplate:     QuestionPlaceholder,
		Language:          "ko",
		Style:             "polite",
	},
	"en/neutral": {
		SystemInstruction: "You answer questions using only the documents below. Be accurate and concise. If the documents do not contain the answer, say that you do not know.\n\n" + ContextPlaceholder,
		HumanTemplate:     QuestionPlaceholder,
		Language:          "en",
		Style:             "neutral",
	},
}

// BuiltinTemplate returns the built-in template for a language and style.
func BuiltinTemplate(language, style string) (PromptTemplate, bool) {
	t, ok := builtinTemplates[language+"/"+style]
	return t, ok
}

// BuiltinTemplates returns all built-in templates ordered by language then style.
func BuiltinTemplates() []PromptTemplate {
	return []PromptTemplate{builtinTemplates["en/neutral"], builtinTemplates["ko/polite"]}
}
