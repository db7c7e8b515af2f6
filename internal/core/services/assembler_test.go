package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{Content: t}
	}
	return out
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name       string
		chunks     []domain.Chunk
		tmpl       domain.PromptTemplate
		wantSystem string
		wantUser   string
	}{
		{
			name:       "placeholder replaced",
			chunks:     chunks("A", "B"),
			tmpl:       domain.PromptTemplate{SystemInstruction: "Use:\n{context}\nEnd", HumanTemplate: "Q: {question}"},
			wantSystem: "Use:\nA\n\nB\nEnd",
			wantUser:   "Q: why?",
		},
		{
			name:       "context appended without placeholder",
			chunks:     chunks("A"),
			tmpl:       domain.PromptTemplate{SystemInstruction: "Answer politely.\n"},
			wantSystem: "Answer politely.\n\nA",
			wantUser:   "why?",
		},
		{
			name:       "empty instruction is the context",
			chunks:     chunks("A", "B"),
			tmpl:       domain.PromptTemplate{},
			wantSystem: "A\n\nB",
			wantUser:   "why?",
		},
		{
			name:       "no chunks",
			chunks:     nil,
			tmpl:       domain.PromptTemplate{SystemInstruction: "ctx: {context}"},
			wantSystem: "ctx: ",
			wantUser:   "why?",
		},
		{
			name:       "repeated placeholders",
			chunks:     chunks("A"),
			tmpl:       domain.PromptTemplate{SystemInstruction: "{context}|{context}", HumanTemplate: "{question} {question}"},
			wantSystem: "A|A",
			wantUser:   "why? why?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assemble(tt.chunks, "why?", tt.tmpl)

			assert.Equal(t, tt.wantSystem, got.System)
			assert.Equal(t, tt.wantUser, got.User)
			assert.Empty(t, got.History)
		})
	}
}

func TestAssemble_BuiltinKoreanTemplate(t *testing.T) {
	tmpl, ok := domain.BuiltinTemplate("ko", "polite")
	assert.True(t, ok)

	got := Assemble(chunks("졸업 학점은 130학점입니다."), "졸업 학점은?", tmpl)

	assert.Contains(t, got.System, "경북대학교")
	assert.Contains(t, got.System, "\n\n졸업 학점은 130학점입니다.")
	assert.NotContains(t, got.System, domain.ContextPlaceholder)
	assert.Equal(t, "졸업 학점은?", got.User)
}

func TestAssemble_PreservesChunkOrder(t *testing.T) {
	got := Assemble(chunks("first", "second", "third"), "q", domain.PromptTemplate{})

	assert.Equal(t, "first\n\nsecond\n\nthird", got.System)
}
