package interfaces

import (
	"context"

	"github.com/ternarybob/nivesh/internal/models"
)

// MemoryService maintains per-user conversation history: an append-only
// turn log plus an embedding index for similarity recall.
type MemoryService interface {
	// Append persists a turn and, best effort, indexes its embedding.
	// Embedding failures are logged and swallowed; only a turn-store
	// failure is returned (wrapped ErrMemoryUnavailable).
	Append(ctx context.Context, turn *models.ConversationTurn) error

	// RecentContext returns up to maxTurns of the user's most recent
	// turns in chronological order (oldest first). Storage failures
	// degrade to an empty slice with a nil error.
	RecentContext(ctx context.Context, userID string, maxTurns int) ([]models.ConversationTurn, error)

	// SimilarPast returns up to k past turns semantically similar to
	// queryText, most similar first. Best effort like RecentContext.
	SimilarPast(ctx context.Context, userID string, queryText string, k int) ([]models.ConversationTurn, error)
}

// VectorMatch is one similarity search hit
type VectorMatch struct {
	Key   string  `json:"key"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// VectorStore is the narrow embedding-index abstraction the memory
// service depends on. Keys are opaque; the memory service namespaces
// them per user (user:{id}:turn:{turnID}).
type VectorStore interface {
	// Put stores or replaces a vector under the given key
	Put(ctx context.Context, key string, text string, vector []float32) error

	// QueryBySimilarity returns the k nearest vectors under keyPrefix,
	// ranked by cosine similarity descending
	QueryBySimilarity(ctx context.Context, keyPrefix string, vector []float32, k int) ([]VectorMatch, error)

	// Delete removes a vector; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
