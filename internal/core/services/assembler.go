package services

import (
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// ContextSeparator joins retrieved chunk texts into one context block.
const ContextSeparator = "\n\n"

// Assemble fills the template with the joined chunk texts and the question.
//
// The system instruction gets the context in place of {context}, or after a
// blank line when the placeholder is missing. The human template gets the
// question in place of {question}; an empty human template is the bare question.
func Assemble(chunks []domain.Chunk, question string, tmpl domain.PromptTemplate) domain.Prompt {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	joined := strings.Join(texts, ContextSeparator)

	system := tmpl.SystemInstruction
	switch {
	case strings.Contains(system, domain.ContextPlaceholder):
		system = strings.ReplaceAll(system, domain.ContextPlaceholder, joined)
	case system == "":
		system = joined
	default:
		system = strings.TrimRight(system, "\n") + ContextSeparator + joined
	}

	user := question
	if tmpl.HumanTemplate != "" {
		user = strings.ReplaceAll(tmpl.HumanTemplate, domain.QuestionPlaceholder, question)
	}

	return domain.Prompt{System: system, User: user}
}

// chunksOf extracts the chunks from retrieval hits.
func chunksOf(hits []domain.ScoredChunk) []domain.Chunk {
	chunks := make([]domain.Chunk, len(hits))
	for i := range hits {
		chunks[i] = hits[i].Chunk
	}
	return chunks
}
