package models

import "time"

// TurnRole identifies the author of a conversation turn
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// ConversationTurn is one message in a user's conversation history.
// EmbeddingRef is the opaque vector-store key for the turn's embedding;
// empty when embedding was skipped or failed.
type ConversationTurn struct {
	ID           string    `json:"id" badgerhold:"key"`
	UserID       string    `json:"user_id" badgerhold:"index"`
	Role         TurnRole  `json:"role"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	EmbeddingRef string    `json:"embedding_ref,omitempty"`
}
