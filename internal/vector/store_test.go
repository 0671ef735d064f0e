package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir := t.TempDir()
	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &Store{store: store, logger: arbor.NewLogger()}
}

func TestQueryBySimilarityRanking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "user:u1:turn:a", "nifty level", []float32{1, 0, 0}))
	require.NoError(t, s.Put(ctx, "user:u1:turn:b", "gold price", []float32{0, 1, 0}))
	require.NoError(t, s.Put(ctx, "user:u1:turn:c", "nifty outlook", []float32{0.9, 0.1, 0}))

	matches, err := s.QueryBySimilarity(ctx, "user:u1:", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "user:u1:turn:a", matches[0].Key)
	assert.Equal(t, "user:u1:turn:c", matches[1].Key)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestQueryBySimilarityScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "user:u1:turn:a", "mine", []float32{1, 0}))
	require.NoError(t, s.Put(ctx, "user:u2:turn:b", "theirs", []float32{1, 0}))

	matches, err := s.QueryBySimilarity(ctx, "user:u1:", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "user:u1:turn:a", matches[0].Key)
}

func TestDeleteMissingKeyIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), "user:u1:turn:missing"))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2})) // dimension mismatch
}
