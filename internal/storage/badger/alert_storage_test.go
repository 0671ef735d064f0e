package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nivesh/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()
	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func TestAlertStorageLifecycle(t *testing.T) {
	db := newTestDB(t)
	storage := NewAlertStorage(db, arbor.NewLogger())
	ctx := context.Background()

	alert := &models.Alert{
		ID:             "alert-1",
		UserID:         "user-1",
		Symbol:         "^NSEI",
		ThresholdPrice: 22500,
		Direction:      models.AlertAbove,
		CreatedAt:      time.Now(),
		Active:         true,
	}
	require.NoError(t, storage.Save(ctx, alert))

	got, err := storage.Get(ctx, "alert-1")
	require.NoError(t, err)
	assert.Equal(t, "^NSEI", got.Symbol)
	assert.True(t, got.Active)

	// Deactivate and verify it drops out of the active queries
	now := time.Now()
	got.Active = false
	got.TriggeredAt = &now
	require.NoError(t, storage.Update(ctx, got))

	active, err := storage.GetActiveByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	count, err := storage.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Record is kept for history
	kept, err := storage.Get(ctx, "alert-1")
	require.NoError(t, err)
	assert.NotNil(t, kept.TriggeredAt)
}

func TestAlertStorageActiveByUser(t *testing.T) {
	db := newTestDB(t)
	storage := NewAlertStorage(db, arbor.NewLogger())
	ctx := context.Background()

	for i, userID := range []string{"user-1", "user-1", "user-2"} {
		alert := &models.Alert{
			ID:             "alert-" + string(rune('a'+i)),
			UserID:         userID,
			Symbol:         "RELIANCE",
			ThresholdPrice: 3000,
			Direction:      models.AlertBelow,
			CreatedAt:      time.Now().Add(time.Duration(i) * time.Millisecond),
			Active:         true,
		}
		require.NoError(t, storage.Save(ctx, alert))
	}

	active, err := storage.GetActiveByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := storage.GetActive(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestConversationStorageRecentTurns(t *testing.T) {
	db := newTestDB(t)
	storage := NewConversationStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		turn := &models.ConversationTurn{
			ID:        "turn-" + string(rune('a'+i)),
			UserID:    "user-1",
			Role:      models.TurnRoleUser,
			Text:      "message",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, storage.SaveTurn(ctx, turn))
	}

	turns, err := storage.RecentTurns(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	// Newest first
	assert.Equal(t, "turn-e", turns[0].ID)
	assert.Equal(t, "turn-d", turns[1].ID)
	assert.Equal(t, "turn-c", turns[2].ID)

	count, err := storage.CountByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
