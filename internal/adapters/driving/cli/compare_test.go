package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestCompareCmd_PrintsBothAnswers(t *testing.T) {
	ts := setupTestServices(t)
	ts.compare.result = domain.Comparison{
		RAG:         domain.Answer{Text: "130학점입니다."},
		Direct:      "보통 120학점 이상입니다.",
		RAGScore:    domain.Score{Precision: 0.91, Recall: 0.88, F1: 0.8947},
		DirectScore: domain.Score{Precision: 0.81, Recall: 0.77, F1: 0.7894},
	}

	out, err := executeCommand(t, "compare", "졸업 학점은?", "--reference", "졸업에는 130학점이 필요합니다.")

	require.NoError(t, err)
	assert.Contains(t, out, "[Reference]\n졸업에는 130학점이 필요합니다.")
	assert.Contains(t, out, "[RAG]\n130학점입니다.\nPrecision 0.9100  Recall 0.8800  F1 0.8947")
	assert.Contains(t, out, "[Direct]\n보통 120학점 이상입니다.\nPrecision 0.8100  Recall 0.7700  F1 0.7894")
}

func TestCompareCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.compare.result = domain.Comparison{Direct: "direct", DirectScore: domain.Score{F1: 0.5}}

	out, err := executeCommand(t, "compare", "--json", "--reference", "ref", "q")

	require.NoError(t, err)
	assert.Contains(t, out, `"question": "q"`)
	assert.Contains(t, out, `"reference": "ref"`)
	assert.Contains(t, out, `"direct": "direct"`)
	assert.Contains(t, out, `"direct_score"`)
	assert.Contains(t, out, `"rag_score"`)
}

func TestCompareCmd_RequiresReference(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "compare", "q")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "--reference")
}

func TestCompareCmd_Error(t *testing.T) {
	ts := setupTestServices(t)
	ts.compare.err = domain.ErrGenerationService

	_, err := executeCommand(t, "compare", "q", "--reference", "ref")

	assert.ErrorIs(t, err, domain.ErrGenerationService)
}

func TestCompareCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	compareService = nil

	_, err := executeCommand(t, "compare", "q", "--reference", "ref")

	assert.ErrorIs(t, err, errServiceNotConfigured)
}
