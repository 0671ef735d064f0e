package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/common"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// Service maintains per-user conversation history. Turns are persisted in
// Badger; embeddings go to the vector store under user-scoped keys so
// similarity recall never crosses users. Recall is best effort: a broken
// store degrades to empty context, never to a failed request.
type Service struct {
	turns   interfaces.ConversationStorage
	vectors interfaces.VectorStore
	llm     interfaces.LLMService
	logger  arbor.ILogger
}

// NewService creates a conversation memory service. llm may be nil, in
// which case turns are stored without embeddings.
func NewService(turns interfaces.ConversationStorage, vectors interfaces.VectorStore, llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		turns:   turns,
		vectors: vectors,
		llm:     llm,
		logger:  logger,
	}
}

// vectorKey builds the vector-store key for a turn
func vectorKey(userID, turnID string) string {
	return "user:" + userID + ":turn:" + turnID
}

// userPrefix is the vector-store key prefix covering all of a user's turns
func userPrefix(userID string) string {
	return "user:" + userID + ":"
}

// Append persists a turn and, best effort, indexes its embedding
func (s *Service) Append(ctx context.Context, turn *models.ConversationTurn) error {
	if turn.ID == "" {
		turn.ID = common.NewTurnID()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	if s.llm != nil && s.vectors != nil {
		if vec, err := s.llm.Embed(ctx, turn.Text); err != nil {
			s.logger.Warn().Err(err).Str("turn_id", turn.ID).Msg("Embedding failed, turn stored without vector")
		} else {
			key := vectorKey(turn.UserID, turn.ID)
			if err := s.vectors.Put(ctx, key, turn.Text, vec); err != nil {
				s.logger.Warn().Err(err).Str("turn_id", turn.ID).Msg("Vector store put failed, turn stored without vector")
			} else {
				turn.EmbeddingRef = key
			}
		}
	}

	if err := s.turns.SaveTurn(ctx, turn); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrMemoryUnavailable, err)
	}
	return nil
}

// RecentContext returns up to maxTurns of the user's most recent turns in
// chronological order (oldest first)
func (s *Service) RecentContext(ctx context.Context, userID string, maxTurns int) ([]models.ConversationTurn, error) {
	if maxTurns <= 0 {
		return nil, nil
	}

	turns, err := s.turns.RecentTurns(ctx, userID, maxTurns)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Recent context unavailable, degrading to empty")
		return nil, nil
	}

	// Storage returns newest first; answers read oldest first
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// SimilarPast returns up to k past turns semantically similar to
// queryText, most similar first
func (s *Service) SimilarPast(ctx context.Context, userID string, queryText string, k int) ([]models.ConversationTurn, error) {
	if k <= 0 || s.llm == nil || s.vectors == nil {
		return nil, nil
	}

	vec, err := s.llm.Embed(ctx, queryText)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Query embedding failed, skipping similarity recall")
		return nil, nil
	}

	matches, err := s.vectors.QueryBySimilarity(ctx, userPrefix(userID), vec, k)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Similarity query failed, degrading to empty")
		return nil, nil
	}

	turns := make([]models.ConversationTurn, 0, len(matches))
	for _, match := range matches {
		turnID := turnIDFromKey(match.Key)
		if turnID == "" {
			continue
		}
		turn, err := s.turns.GetTurn(ctx, turnID)
		if err != nil {
			s.logger.Warn().Err(err).Str("turn_id", turnID).Msg("Indexed turn missing from store, skipping")
			continue
		}
		turns = append(turns, *turn)
	}
	return turns, nil
}

// turnIDFromKey extracts the turn ID from a "user:{id}:turn:{turnID}" key
func turnIDFromKey(key string) string {
	const marker = ":turn:"
	if i := strings.Index(key, marker); i >= 0 {
		return key[i+len(marker):]
	}
	return ""
}
