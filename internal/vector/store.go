package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// Record is a stored embedding. KeySpace is the indexed namespace portion
// of the key (everything before ":turn:"), so per-user similarity queries
// stay cheap.
type Record struct {
	Key       string    `badgerhold:"key"`
	KeySpace  string    `badgerhold:"index"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a Badger-backed implementation of interfaces.VectorStore using
// brute-force cosine ranking. Fine for per-user conversation volumes.
type Store struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewStore creates a vector store on an existing badgerhold store
func NewStore(store *badgerhold.Store, logger arbor.ILogger) interfaces.VectorStore {
	return &Store{
		store:  store,
		logger: logger,
	}
}

// Put stores or replaces a vector under the given key
func (s *Store) Put(ctx context.Context, key string, text string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty vector for key %s", key)
	}

	record := &Record{
		Key:       key,
		KeySpace:  keySpace(key),
		Text:      text,
		Vector:    vec,
		CreatedAt: time.Now(),
	}

	if err := s.store.Upsert(key, record); err != nil {
		return fmt.Errorf("failed to store vector: %w", err)
	}
	return nil
}

// QueryBySimilarity returns the k nearest vectors under keyPrefix, ranked
// by cosine similarity descending
func (s *Store) QueryBySimilarity(ctx context.Context, keyPrefix string, vec []float32, k int) ([]interfaces.VectorMatch, error) {
	if k <= 0 {
		return nil, nil
	}

	var records []Record
	query := badgerhold.Where("KeySpace").Eq(keySpace(keyPrefix)).Index("KeySpace")
	if err := s.store.Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	matches := make([]interfaces.VectorMatch, 0, len(records))
	for _, record := range records {
		score := cosineSimilarity(vec, record.Vector)
		if math.IsNaN(score) {
			continue
		}
		matches = append(matches, interfaces.VectorMatch{
			Key:   record.Key,
			Text:  record.Text,
			Score: score,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Delete removes a vector; deleting a missing key is not an error
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.store.Delete(key, &Record{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete vector: %w", err)
	}
	return nil
}

// keySpace strips the trailing ":turn:<id>" segment so all of a user's
// vectors share one indexed value
func keySpace(key string) string {
	for i := 0; i+6 <= len(key); i++ {
		if key[i:i+6] == ":turn:" {
			return key[:i]
		}
	}
	// Already a prefix (query side), trim a trailing separator
	if n := len(key); n > 0 && key[n-1] == ':' {
		return key[:n-1]
	}
	return key
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched dimensions score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
