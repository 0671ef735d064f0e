package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	badgerstore "github.com/ternarybob/nivesh/internal/storage/badger"
	"github.com/ternarybob/nivesh/internal/vector"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// hashLLM produces deterministic embeddings keyed on the first word so
// similarity recall is testable without a real model
type hashLLM struct {
	embedErr error
}

func (m *hashLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vec := make([]float32, 8)
	for i, r := range text {
		vec[i%8] += float32(r)
	}
	return vec, nil
}

func (m *hashLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return "ok", nil
}
func (m *hashLLM) HealthCheck(ctx context.Context) error { return nil }
func (m *hashLLM) GetMode() interfaces.LLMMode           { return interfaces.LLMModeOffline }
func (m *hashLLM) Close() error                          { return nil }

func newTestMemory(t *testing.T, llm interfaces.LLMService) *Service {
	t.Helper()

	logger := arbor.NewLogger()
	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil
	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db := badgerstore.NewBadgerDBFromStore(store, logger)
	turns := badgerstore.NewConversationStorage(db, logger)
	vectors := vector.NewStore(store, logger)

	return NewService(turns, vectors, llm, logger)
}

func TestAppendAndRecentContextOrdering(t *testing.T) {
	svc := newTestMemory(t, &hashLLM{})
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	texts := []string{"first", "second", "third", "fourth"}
	for i, text := range texts {
		turn := &models.ConversationTurn{
			UserID:    "u1",
			Role:      models.TurnRoleUser,
			Text:      text,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, svc.Append(ctx, turn))
		assert.NotEmpty(t, turn.ID)
		assert.NotEmpty(t, turn.EmbeddingRef)
	}

	recent, err := svc.RecentContext(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Chronological, most recent last
	assert.Equal(t, "second", recent[0].Text)
	assert.Equal(t, "third", recent[1].Text)
	assert.Equal(t, "fourth", recent[2].Text)
}

func TestAppendEmbeddingFailureIsBestEffort(t *testing.T) {
	svc := newTestMemory(t, &hashLLM{embedErr: errors.New("model offline")})
	ctx := context.Background()

	turn := &models.ConversationTurn{UserID: "u1", Role: models.TurnRoleUser, Text: "hello"}
	require.NoError(t, svc.Append(ctx, turn))
	assert.Empty(t, turn.EmbeddingRef)

	recent, err := svc.RecentContext(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestSimilarPastRecallsMatchingTurn(t *testing.T) {
	svc := newTestMemory(t, &hashLLM{})
	ctx := context.Background()

	for _, text := range []string{"nifty level today", "gold rate check", "portfolio review"} {
		require.NoError(t, svc.Append(ctx, &models.ConversationTurn{
			UserID: "u1",
			Role:   models.TurnRoleUser,
			Text:   text,
		}))
	}

	similar, err := svc.SimilarPast(ctx, "u1", "nifty level today", 1)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, "nifty level today", similar[0].Text)
}

func TestSimilarPastScopedToUser(t *testing.T) {
	svc := newTestMemory(t, &hashLLM{})
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, &models.ConversationTurn{UserID: "u2", Role: models.TurnRoleUser, Text: "secret"}))

	similar, err := svc.SimilarPast(ctx, "u1", "secret", 5)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestSimilarPastEmbeddingFailureDegrades(t *testing.T) {
	svc := newTestMemory(t, &hashLLM{embedErr: errors.New("down")})

	similar, err := svc.SimilarPast(context.Background(), "u1", "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, similar)
}
