package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func record(id string, vec ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		Chunk:     domain.Chunk{ID: id, Content: "content " + id},
		Embedding: vec,
	}
}

func ids(results []domain.ScoredChunk) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.ID
	}
	return out
}

func TestNewIndex_Empty(t *testing.T) {
	idx, err := NewIndex(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, idx.Dimensions())

	results, err := idx.Search(context.Background(), []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNewIndex_DimensionMismatch(t *testing.T) {
	_, err := NewIndex([]domain.VectorRecord{record("a", 1, 0), record("b", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_OrdersByCosine(t *testing.T) {
	idx, err := NewIndex([]domain.VectorRecord{
		record("east", 1, 0),
		record("north", 0, 1),
		record("northeast", 1, 1),
		record("west", -1, 0),
	})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{2, 0.1}, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"east", "northeast", "north", "west"}, ids(results))
	assert.InDelta(t, -0.9988, results[3].Score, 1e-3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	idx, err := NewIndex([]domain.VectorRecord{
		record("first", 1, 0),
		record("second", 2, 0),
		record("third", 0.5, 0),
	})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, ids(results))
}

func TestSearch_KBounds(t *testing.T) {
	idx, err := NewIndex([]domain.VectorRecord{record("a", 1, 0), record("b", 0, 1)})
	require.NoError(t, err)
	ctx := context.Background()

	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(results))

	results, err = idx.Search(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	idx, err := NewIndex([]domain.VectorRecord{record("a", 1, 0)})
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_ZeroVectorScoresZero(t *testing.T) {
	idx, err := NewIndex([]domain.VectorRecord{record("zero", 0, 0), record("a", 1, 0)})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Zero(t, results[1].Score)
}

func TestIndex_RecordsIsACopy(t *testing.T) {
	idx, err := NewIndex([]domain.VectorRecord{record("a", 1, 0)})
	require.NoError(t, err)

	recs := idx.Records()
	recs[0] = record("mutated", 0, 1)

	assert.Equal(t, "a", idx.Records()[0].Chunk.ID)
}

func TestIndex_ConcurrentSearch(t *testing.T) {
	records := make([]domain.VectorRecord, 100)
	for i := range records {
		records[i] = record(string(rune('A'+i%26)), float32(i), float32(100-i))
	}
	idx, err := NewIndex(records)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := idx.Search(context.Background(), []float32{1, 1}, 5)
			assert.NoError(t, err)
			assert.Len(t, res, 5)
		}()
	}
	wg.Wait()
}

func TestBuild(t *testing.T) {
	vi, err := Build([]domain.VectorRecord{record("a", 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, vi.Len())
}
